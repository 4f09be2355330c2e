package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"jamjob-backend/internal/apperr"
	"jamjob-backend/internal/models"
	"jamjob-backend/internal/notify"
	"jamjob-backend/internal/payment"
	"jamjob-backend/internal/repository"
)

type PaymentService struct {
	gateway  payment.Gateway
	states   *payment.StateSigner
	users    UserStore
	payments PaymentStore
	notifier notify.Notifier
	log      logrus.FieldLogger

	baseURL           string
	creditsPerPayment int
}

type PaymentConfig struct {
	BaseURL           string
	CreditsPerPayment int
}

// NewPaymentService accepts a nil gateway when no processor is configured;
// checkout calls then fail with CodeInternal.
func NewPaymentService(gateway payment.Gateway, states *payment.StateSigner, users UserStore, payments PaymentStore,
	notifier notify.Notifier, log logrus.FieldLogger, cfg PaymentConfig) *PaymentService {
	return &PaymentService{
		gateway:           gateway,
		states:            states,
		users:             users,
		payments:          payments,
		notifier:          notifier,
		log:               log,
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		creditsPerPayment: cfg.CreditsPerPayment,
	}
}

// CheckoutResult is what a completed checkout did to the account.
type CheckoutResult struct {
	Payment *models.Payment `json:"payment"`
	User    *models.User    `json:"user"`
	// AlreadyApplied is set when the order had been credited before.
	AlreadyApplied bool `json:"alreadyApplied"`
}

// CreateCheckout opens a fixed-price order and returns the link the buyer
// must visit to approve it. When email is set, the return link carries a
// signed state so the approved order can be credited to that account.
func (s *PaymentService) CreateCheckout(ctx context.Context, email string) (string, error) {
	const op = "Payments.CreateCheckout"

	if s.gateway == nil {
		return "", apperr.E(apperr.CodeInternal, op, "Something went wrong", errors.New("payment gateway is not configured"))
	}

	returnURL := s.baseURL + "/success"
	email = strings.TrimSpace(email)
	if email != "" {
		user, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return "", apperr.E(apperr.CodeInternal, op, "failed to look up user", err)
		}
		if user == nil {
			return "", apperr.E(apperr.CodeNotFound, op, "user not found", nil)
		}
		state, err := s.states.Sign(email)
		if err != nil {
			return "", apperr.E(apperr.CodeInternal, op, "Something went wrong", err)
		}
		returnURL += "?" + url.Values{"state": {state}}.Encode()
	}

	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:      payment.CheckoutAmount,
		Currency:    payment.CheckoutCurrency,
		Description: "Job posting credits",
		ReturnURL:   returnURL,
		CancelURL:   s.baseURL + "/cancel",
		RequestID:   uuid.NewString(),
	})
	if err != nil {
		return "", apperr.E(apperr.CodeInternal, op, "Something went wrong", err)
	}

	s.log.WithFields(logrus.Fields{"op": op, "email": email, "order_id": order.ID}).Info("checkout created")
	return order.ApproveURL, nil
}

// CompleteCheckout captures an approved order and adds posting credits to
// the account named in state.
//
// The order is recorded as pending before it is captured, and every later
// step is keyed on that record, so a call that failed part way can simply be
// repeated: a captured order is not captured again and credits are applied
// once. Completing a finished order returns it with AlreadyApplied set.
func (s *PaymentService) CompleteCheckout(ctx context.Context, orderID, state string) (*CheckoutResult, error) {
	const op = "Payments.CompleteCheckout"

	if s.gateway == nil {
		return nil, apperr.E(apperr.CodeInternal, op, "Something went wrong", errors.New("payment gateway is not configured"))
	}
	if orderID == "" {
		return nil, apperr.E(apperr.CodeBadRequest, op, "missing order token", nil)
	}
	if state == "" {
		return nil, apperr.E(apperr.CodeBadRequest, op, "missing checkout state", nil)
	}
	email, err := s.states.Verify(state)
	if err != nil {
		return nil, apperr.E(apperr.CodeBadRequest, op, "invalid checkout state", err)
	}
	log := s.log.WithFields(logrus.Fields{"op": op, "email": email, "order_id": orderID})

	rec, err := s.recordOrder(ctx, op, orderID, email)
	if err != nil {
		return nil, err
	}

	if rec.Status != payment.StatusCompleted {
		capture, err := s.gateway.CaptureOrder(ctx, orderID)
		if err != nil {
			return nil, apperr.E(apperr.CodeInternal, op, "failed to capture payment", err)
		}
		if capture.Status != payment.StatusCompleted {
			return nil, apperr.E(apperr.CodePaymentRequired, op, "payment was not completed", nil)
		}
		c := models.PaymentCapture{
			CaptureID: capture.CaptureID,
			Amount:    capture.Amount,
			Currency:  capture.Currency,
			Status:    capture.Status,
		}
		if c.Amount == "" {
			c.Amount, c.Currency = payment.CheckoutAmount, payment.CheckoutCurrency
		}
		if err := s.payments.MarkCaptured(ctx, orderID, c); err != nil {
			log.WithError(err).Error("payment captured but not recorded")
			return nil, apperr.E(apperr.CodeInternal, op, "failed to record payment", err)
		}
		rec.CaptureID, rec.Amount, rec.Currency, rec.Status = c.CaptureID, c.Amount, c.Currency, c.Status
	}

	user, applied, err := s.users.ApplyPaymentCredits(ctx, email, orderID, rec.Credits)
	if err != nil {
		log.WithError(err).Error("payment captured but credits not applied")
		return nil, apperr.E(apperr.CodeInternal, op, "failed to apply credits", err)
	}
	if !rec.Credited {
		if err := s.payments.MarkCredited(ctx, orderID); err != nil {
			// The account already holds the order, so a retry stays safe.
			log.WithError(err).Warn("credits applied but payment not marked credited")
		} else {
			rec.Credited = true
		}
	}

	if applied {
		log.WithField("credits", rec.Credits).Info("checkout completed")
		sendAsync(s.notifier, log, notify.PaymentReceived(email, rec.Amount, rec.Currency, rec.Credits))
	}
	return &CheckoutResult{Payment: rec, User: user, AlreadyApplied: !applied}, nil
}

// recordOrder returns the payment record for orderID, creating a pending one
// for email when there is none. An order recorded for a different account is
// a conflict.
func (s *PaymentService) recordOrder(ctx context.Context, op, orderID, email string) (*models.Payment, error) {
	for attempt := 0; ; attempt++ {
		rec, err := s.payments.FindByOrderID(ctx, orderID)
		if err != nil {
			return nil, apperr.E(apperr.CodeInternal, op, "failed to look up payment", err)
		}
		if rec != nil {
			if rec.Email != email {
				return nil, apperr.E(apperr.CodeConflict, op, "order belongs to another account", nil)
			}
			return rec, nil
		}

		user, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, apperr.E(apperr.CodeInternal, op, "failed to look up user", err)
		}
		if user == nil {
			return nil, apperr.E(apperr.CodeNotFound, op, "user not found", nil)
		}

		rec = &models.Payment{
			OrderID:  orderID,
			Email:    email,
			Amount:   payment.CheckoutAmount,
			Currency: payment.CheckoutCurrency,
			Status:   payment.StatusPending,
			Credits:  s.creditsPerPayment,
		}
		err = s.payments.Create(ctx, rec)
		if err == nil {
			return rec, nil
		}
		// A concurrent completion recorded it first; read theirs.
		if !errors.Is(err, repository.ErrDuplicate) || attempt > 0 {
			return nil, apperr.E(apperr.CodeInternal, op, "failed to record payment", err)
		}
	}
}
