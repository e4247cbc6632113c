// Package ledger tracks the payment lifecycle of purchases.
package ledger

import (
	"sync"
	"time"
)

// Payment statuses. Records are born pending; terminal states are set out of
// band when the admin confirms or voids a charge.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusFailed   = "failed"
)

// Payment is one ledger record. AccountID references the catalog but is not
// validated against it, so it may dangle after an item removal.
type Payment struct {
	ID           int64  `json:"id" db:"id"`
	AccountID    int    `json:"accountId" db:"account_id"`
	BuyerPhone   string `json:"buyerPhone" db:"buyer_phone"`
	PreferenceID string `json:"preferenceId" db:"preference_id"`
	PaymentLink  string `json:"paymentLink" db:"payment_link"`
	Status       string `json:"status" db:"status"`
	CreatedAt    string `json:"createdAt" db:"created_at"`
	UpdatedAt    string `json:"updatedAt,omitempty" db:"updated_at"`
}

var (
	idMu   sync.Mutex
	lastID int64
)

// newID returns a millisecond timestamp, bumped when two payments land in
// the same millisecond so ids stay unique within the process.
func newID() int64 {
	idMu.Lock()
	defer idMu.Unlock()
	id := time.Now().UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return id
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
