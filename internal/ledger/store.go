package ledger

import "context"

// ErrNotFound is returned when no payment matches a gateway id.
var ErrNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "ledger: payment not found" }

// Code identifies the error class in handler summary logs.
func (*notFoundError) Code() string { return "payment_not_found" }

// Store persists payment records.
type Store interface {
	// List returns all payments in persisted order.
	List(ctx context.Context) ([]Payment, error)
	// Save replaces the entire record set.
	Save(ctx context.Context, payments []Payment) error
	// AddPending appends a new pending record and returns it.
	AddPending(ctx context.Context, accountID int, buyerPhone, preferenceID, paymentLink string) (Payment, error)
	// UpdateStatus marks the first record with the gateway id, stamping
	// updatedAt. Returns ErrNotFound when no record matches.
	UpdateStatus(ctx context.Context, preferenceID, status string) (Payment, error)
	// PendingByBuyer returns the buyer's pending payments.
	PendingByBuyer(ctx context.Context, buyerPhone string) ([]Payment, error)
}
