// Package services holds the account, job posting, payment and logo
// workflows. Each talks to storage through the narrow interfaces below so it
// can run against MongoDB in production and in-memory fakes in tests.
package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"jamjob-backend/internal/models"
	"jamjob-backend/internal/notify"
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	ReserveJobSlot(ctx context.Context, email string, freeQuota int) (*models.User, error)
	ReleaseJobSlot(ctx context.Context, email string) error
	ApplyPaymentCredits(ctx context.Context, email, orderID string, credits int) (*models.User, bool, error)
}

type JobStore interface {
	Insert(ctx context.Context, job *models.Job) error
	FindAll(ctx context.Context) ([]models.Job, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Job, error)
	FindByPoster(ctx context.Context, email string) ([]models.Job, error)
	Delete(ctx context.Context, id bson.ObjectID) (*models.DeleteResult, error)
	UpdateExisting(ctx context.Context, id bson.ObjectID, fields bson.M) (*models.UpdateResult, error)
	Upsert(ctx context.Context, id bson.ObjectID, fields bson.M) (*models.UpdateResult, error)
}

type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	MarkCaptured(ctx context.Context, orderID string, c models.PaymentCapture) error
	MarkCredited(ctx context.Context, orderID string) error
}

const notifyTimeout = 10 * time.Second

// sendAsync delivers msg in the background. Delivery failures are logged
// and never affect the request that triggered them.
func sendAsync(n notify.Notifier, log logrus.FieldLogger, msg notify.Message) {
	if n == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := n.Send(ctx, msg); err != nil {
			log.WithError(err).WithField("to", msg.To).Warn("notification failed")
		}
	}()
}
