// Package payment wraps PIX charge creation and QR rendering behind one
// gateway interface so the purchase flow never touches the provider SDK.
package payment

import (
	"context"
	"fmt"
	"time"
)

// ChargeRequest describes one charge to create.
type ChargeRequest struct {
	Amount      float64
	Description string
	// BuyerRef is the opaque chat address of the buyer, carried as gateway
	// metadata for reconciliation.
	BuyerRef  string
	AccountID int
}

// Charge is a created PIX charge. Code is the copy-paste payment string;
// QRImage is the same code rendered as a PNG.
type Charge struct {
	PaymentID string
	Code      string
	QRImage   []byte
	ExpiresAt *time.Time
}

// Gateway creates charges with an external payment provider.
type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (Charge, error)
}

// CreationError wraps any gateway failure. Callers reply with a fallback
// contact and never write the ledger.
type CreationError struct {
	cause error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("payment: charge creation failed: %v", e.cause)
}

func (e *CreationError) Unwrap() error { return e.cause }

// Code identifies the error class in handler summary logs.
func (e *CreationError) Code() string { return "payment_creation" }
