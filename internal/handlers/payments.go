package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"jamjob-backend/internal/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
	log      logrus.FieldLogger
}

func NewPaymentHandler(payments *services.PaymentService, log logrus.FieldLogger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log}
}

type CheckoutRequest struct {
	Email string `json:"email"`
}

type checkoutResponse struct {
	ForwardLink string `json:"forwardLink"`
}

type completeResponse struct {
	Message string `json:"message"`
	*services.CheckoutResult
}

// --- POST /create-paypal-payment ---
// The body is optional. Without an email the order cannot be credited to
// an account when it completes.

func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := decodeJSON(w, r, "Payments.CreatePayment", &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, h.log, err)
		return
	}

	link, err := h.payments.CreateCheckout(r.Context(), req.Email)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{ForwardLink: link})
}

// --- GET /success?token=ORDER&state=STATE ---

func (h *PaymentHandler) Success(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.payments.CompleteCheckout(r.Context(), q.Get("token"), q.Get("state"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	msg := "Payment completed"
	if res.AlreadyApplied {
		msg = "Payment already applied"
	}
	writeJSON(w, http.StatusOK, completeResponse{Message: msg, CheckoutResult: res})
}

// --- GET /cancel ---

func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Payment cancelled"})
}
