// Package withdraw implements withdrawal requests: the reserve-on-create
// ledger rules and the multi-step chat dialog that collects amount and
// payment method. models.go describes the withdrawals table rows.
package withdraw

import (
	"strings"
	"time"
)

// Request statuses. A request is created pending and moves exactly once to
// approved or rejected; a resolved request never changes again.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Payment methods offered in the withdraw dialog.
const (
	MethodTelebirr = "Telebirr"
	MethodCBE      = "CBE"
	MethodTransfer = "Transfer"
)

// Request is one withdrawal request. The amount is deducted from the
// user's balance the moment the row is created (reserved); rejection puts
// it back, approval leaves the balance alone.
type Request struct {
	ID     int64 `db:"id"`
	UserID int64 `db:"user_id"`
	Amount int64 `db:"amount"`
	// PaymentMethod is nil for the legacy full-balance flow.
	PaymentMethod *string   `db:"payment_method"`
	Status        string    `db:"status"`
	Note          string    `db:"note"` // admin note or rejection reason
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// MethodName returns the payment method or a placeholder for the
// full-balance flow.
func (r *Request) MethodName() string {
	if r.PaymentMethod == nil {
		return "—"
	}
	return *r.PaymentMethod
}

// ParseMethod matches free text against the known payment methods:
// case-insensitive substring ("via TeleBirr please" works) or the numeric
// shortcuts 1/2/3 in menu order.
func ParseMethod(text string) (string, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	switch text {
	case "1":
		return MethodTelebirr, true
	case "2":
		return MethodCBE, true
	case "3":
		return MethodTransfer, true
	}
	for _, m := range []string{MethodTelebirr, MethodCBE, MethodTransfer} {
		if strings.Contains(text, strings.ToLower(m)) {
			return m, true
		}
	}
	return "", false
}
