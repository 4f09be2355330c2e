// Package payment talks to the payment processor. Only order creation and
// capture are supported.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/plutov/paypal/v4"
)

const (
	// Every checkout is a single fixed-price order.
	CheckoutAmount   = "60.00"
	CheckoutCurrency = "USD"

	StatusCompleted = "COMPLETED"
	// StatusPending marks a recorded order that has not been captured yet.
	StatusPending = "PENDING"

	ModeLive = "live"
)

var ErrNoApproveLink = errors.New("order has no approve link")

type OrderRequest struct {
	Amount      string
	Currency    string
	Description string
	ReturnURL   string
	CancelURL   string
	// RequestID makes order creation idempotent on the processor side.
	RequestID string
}

type Order struct {
	ID         string
	Status     string
	ApproveURL string
}

type Capture struct {
	OrderID   string
	Status    string
	CaptureID string
	Amount    string
	Currency  string
}

type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*Capture, error)
}

type PayPalGateway struct {
	client *paypal.Client
}

// NewPayPalGateway targets the live API for mode "live" and the sandbox
// otherwise. The access token is fetched lazily on the first call.
func NewPayPalGateway(clientID, secret, mode string) (*PayPalGateway, error) {
	base := paypal.APIBaseSandBox
	if mode == ModeLive {
		base = paypal.APIBaseLive
	}
	return newPayPalGateway(clientID, secret, base)
}

func newPayPalGateway(clientID, secret, base string) (*PayPalGateway, error) {
	c, err := paypal.NewClient(clientID, secret, base)
	if err != nil {
		return nil, err
	}
	return &PayPalGateway{client: c}, nil
}

func (g *PayPalGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	units := []paypal.PurchaseUnitRequest{{
		Description: req.Description,
		Amount: &paypal.PurchaseUnitAmount{
			Currency: req.Currency,
			Value:    req.Amount,
		},
	}}
	appCtx := &paypal.ApplicationContext{
		ReturnURL: req.ReturnURL,
		CancelURL: req.CancelURL,
	}

	order, err := g.client.CreateOrderWithPaypalRequestID(ctx, paypal.OrderIntentCapture, units, nil, appCtx, req.RequestID)
	if err != nil {
		return nil, fmt.Errorf("paypal create order: %w", err)
	}

	out := &Order{ID: order.ID, Status: order.Status}
	for _, link := range order.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			out.ApproveURL = link.Href
			break
		}
	}
	if out.ApproveURL == "" {
		return nil, ErrNoApproveLink
	}
	return out, nil
}

// CaptureOrder captures an approved order. An order that was already
// captured, for example by an earlier attempt whose response was lost, is
// read back with GetOrder so repeating the call is safe.
func (g *PayPalGateway) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	resp, err := g.client.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
	if err != nil {
		order, getErr := g.client.GetOrder(ctx, orderID)
		if getErr != nil || order.Status != StatusCompleted {
			return nil, fmt.Errorf("paypal capture order %s: %w", orderID, err)
		}
		out := &Capture{OrderID: order.ID, Status: order.Status}
		for _, pu := range order.PurchaseUnits {
			out.fill(pu.Payments)
		}
		return out, nil
	}

	out := &Capture{OrderID: resp.ID, Status: resp.Status}
	for _, pu := range resp.PurchaseUnits {
		out.fill(pu.Payments)
	}
	return out, nil
}

func (c *Capture) fill(p *paypal.CapturedPayments) {
	if p == nil {
		return
	}
	for _, pc := range p.Captures {
		c.CaptureID = pc.ID
		if pc.Amount != nil {
			c.Amount = pc.Amount.Value
			c.Currency = pc.Amount.Currency
		}
	}
}
