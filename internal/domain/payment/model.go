package payment

import (
	"errors"
	"time"
)

// Domain errors. Records failing validation are data errors: aggregation
// excludes them and counts the exclusion rather than silently folding bad
// values into totals.
var (
	ErrMissingAccountID   = errors.New("payment record must name an account")
	ErrMissingDueDate     = errors.New("payment record must have a due date")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrNegativeAmountPaid = errors.New("amount paid cannot be negative")
)

// Record is one installment on a billable account. All money is integer
// cents; currency never touches binary floating point.
type Record struct {
	ID              string
	AccountID       string
	TenantID        string
	DueDate         time.Time
	AmountCents     int64
	PaidDate        time.Time // zero = unpaid
	AmountPaidCents int64
}

// Validate checks if the Record has valid data.
// PRE: Record struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Record) Validate() error {
	if r.AccountID == "" {
		return ErrMissingAccountID
	}
	if r.DueDate.IsZero() {
		return ErrMissingDueDate
	}
	if r.AmountCents < 0 {
		return ErrNegativeAmount
	}
	if r.AmountPaidCents < 0 {
		return ErrNegativeAmountPaid
	}
	return nil
}

// Unpaid returns true while the installment has not been settled in full.
// INVARIANT: Record fields are not mutated
func (r Record) Unpaid() bool {
	return r.AmountPaidCents < r.AmountCents
}

// OutstandingCents returns the unpaid remainder of the installment.
// INVARIANT: Record fields are not mutated
func (r Record) OutstandingCents() int64 {
	if !r.Unpaid() {
		return 0
	}
	return r.AmountCents - r.AmountPaidCents
}

// OverduePast returns true if the installment is unpaid and its due date
// has passed as of the given instant.
// INVARIANT: Record fields are not mutated
func (r Record) OverduePast(asOf time.Time) bool {
	return r.Unpaid() && asOf.After(r.DueDate)
}
