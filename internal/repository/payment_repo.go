package repository

import (
	"context"
	"errors"
	"time"

	"jamjob-backend/internal/database"
	"jamjob-backend/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type PaymentRepo struct {
	collection *mongo.Collection
}

func NewPaymentRepo(store *database.Store) *PaymentRepo {
	return &PaymentRepo{
		collection: store.Collection(database.PaymentsCollection),
	}
}

// Create records an order. Recording the same order twice fails with
// ErrDuplicate.
func (r *PaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	payment.CreatedAt = time.Now().UTC()
	result, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	payment.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

func (r *PaymentRepo) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&payment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// MarkCaptured stores the processor's capture details on a recorded order.
func (r *PaymentRepo) MarkCaptured(ctx context.Context, orderID string, c models.PaymentCapture) error {
	return r.set(ctx, orderID, bson.M{
		"captureId": c.CaptureID,
		"amount":    c.Amount,
		"currency":  c.Currency,
		"status":    c.Status,
	})
}

// MarkCredited flags a recorded order as added to its account.
func (r *PaymentRepo) MarkCredited(ctx context.Context, orderID string) error {
	return r.set(ctx, orderID, bson.M{"credited": true})
}

func (r *PaymentRepo) set(ctx context.Context, orderID string, fields bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"orderId": orderID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes for the payments collection
func (r *PaymentRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
