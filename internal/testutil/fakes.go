package testutil

import (
	"context"
	"errors"
	"sync"

	"jamjob-backend/internal/notify"
	"jamjob-backend/internal/payment"
)

// ErrInjected is a generic failure for fakes to return.
var ErrInjected = errors.New("injected failure")

// Gateway is a scripted payment gateway.
type Gateway struct {
	mu sync.Mutex

	OrderID       string
	ApproveURL    string
	CaptureStatus string
	CreateErr     error
	CaptureErr    error

	Requests []payment.OrderRequest
	Captures []string
}

func NewGateway() *Gateway {
	return &Gateway{
		OrderID:       "ORDER-1",
		ApproveURL:    "https://www.sandbox.paypal.com/checkoutnow?token=ORDER-1",
		CaptureStatus: payment.StatusCompleted,
	}
}

func (g *Gateway) CreateOrder(ctx context.Context, req payment.OrderRequest) (*payment.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Requests = append(g.Requests, req)
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	return &payment.Order{ID: g.OrderID, Status: "CREATED", ApproveURL: g.ApproveURL}, nil
}

func (g *Gateway) CaptureOrder(ctx context.Context, orderID string) (*payment.Capture, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Captures = append(g.Captures, orderID)
	if g.CaptureErr != nil {
		return nil, g.CaptureErr
	}
	return &payment.Capture{
		OrderID:   orderID,
		Status:    g.CaptureStatus,
		CaptureID: "CAPTURE-" + orderID,
		Amount:    payment.CheckoutAmount,
		Currency:  payment.CheckoutCurrency,
	}, nil
}

// CaptureCount returns how many captures were attempted.
func (g *Gateway) CaptureCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Captures)
}

// Notifier records every message it is asked to send.
type Notifier struct {
	mu   sync.Mutex
	msgs []notify.Message

	Err error
}

func (n *Notifier) Send(ctx context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return n.Err
}

func (n *Notifier) Messages() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.msgs...)
}
