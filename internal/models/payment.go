package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Payment tracks one checkout order. It is recorded as pending before the
// capture, updated once the capture succeeds, and marked Credited after the
// account received its posting credits. OrderID is unique.
type Payment struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID   string        `bson:"orderId" json:"orderId"`
	CaptureID string        `bson:"captureId,omitempty" json:"captureId,omitempty"`
	Email     string        `bson:"email" json:"email"`
	Amount    string        `bson:"amount" json:"amount"`
	Currency  string        `bson:"currency" json:"currency"`
	Status    string        `bson:"status" json:"status"`
	Credits   int           `bson:"credits" json:"credits"`
	Credited  bool          `bson:"credited" json:"credited"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}

// PaymentCapture is what the processor reported for a captured order.
type PaymentCapture struct {
	CaptureID string
	Amount    string
	Currency  string
	Status    string
}
