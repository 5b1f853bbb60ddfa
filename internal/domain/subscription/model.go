package subscription

import (
	"errors"
	"time"
)

// Status of a tenant's subscription. The set is closed; transitions between
// statuses go through Transition and nothing else.
type Status string

const (
	StatusActive    Status = "active"
	StatusOverdue   Status = "overdue"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// ValidStatuses contains all valid status values.
var ValidStatuses = []Status{StatusActive, StatusOverdue, StatusSuspended, StatusCancelled}

// Domain errors
var (
	ErrMissingTenant      = errors.New("subscription must belong to a tenant")
	ErrInvalidStatus      = errors.New("status must be one of: active, overdue, suspended, cancelled")
	ErrNegativeAmount     = errors.New("monthly amount cannot be negative")
	ErrNegativeTolerance  = errors.New("tolerance days cannot be negative")
	ErrMissingDueDate     = errors.New("next due date must be set")
	ErrInvalidTransition  = errors.New("transition not permitted from current status")
	ErrInsufficientAmount = errors.New("payment does not cover the amount due")
	ErrZeroTime           = errors.New("authoritative timestamp required")
)

// Subscription is one tenant's billing state. All money is integer cents.
//
// Period increments each time a reactivation opens a new subscription
// period; billing history stays append-only because a closed period is
// never resurrected. CarriedForwardCents is debt rolled into the current
// period from before its PeriodStart.
type Subscription struct {
	ID                  string
	TenantID            string
	Period              int
	Status              Status
	MonthlyAmountCents  int64
	LastPaymentDate     time.Time // zero = no payment yet
	NextDueDate         time.Time
	ToleranceDays       int
	PeriodStart         time.Time
	CarriedForwardCents int64
	CancelledAt         time.Time // zero unless cancelled
}

// Validate checks if the Subscription has valid data.
// PRE: Subscription struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Subscription) Validate() error {
	if s.TenantID == "" {
		return ErrMissingTenant
	}
	if !isValidStatus(s.Status) {
		return ErrInvalidStatus
	}
	if s.MonthlyAmountCents < 0 {
		return ErrNegativeAmount
	}
	if s.ToleranceDays < 0 {
		return ErrNegativeTolerance
	}
	if s.NextDueDate.IsZero() && s.Status != StatusCancelled {
		return ErrMissingDueDate
	}
	return nil
}

// IsCancelled returns true if the subscription is in its terminal status.
// INVARIANT: Subscription fields are not mutated
func (s Subscription) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// OutstandingCents returns the total debt on the subscription as of the
// given instant: carried-forward debt plus one monthly installment for the
// due date itself and for every billing-month boundary passed since.
// Accrual stops at cancellation.
// INVARIANT: Subscription fields are not mutated
func (s Subscription) OutstandingCents(asOf time.Time) int64 {
	if s.Status == StatusCancelled && !s.CancelledAt.IsZero() && s.CancelledAt.Before(asOf) {
		asOf = s.CancelledAt
	}
	owed := s.CarriedForwardCents
	if s.NextDueDate.IsZero() {
		return owed
	}
	for due := s.NextDueDate; asOf.After(due); due = due.AddDate(0, 1, 0) {
		owed += s.MonthlyAmountCents
	}
	return owed
}

// AmountDueCents returns the payment required to return to good standing
// from the current status: the upcoming or missed installment plus carried
// debt while active/overdue, the full outstanding balance while suspended.
// INVARIANT: Subscription fields are not mutated
func (s Subscription) AmountDueCents(asOf time.Time) int64 {
	switch s.Status {
	case StatusSuspended:
		return s.OutstandingCents(asOf)
	case StatusCancelled:
		return s.OutstandingCents(asOf)
	default:
		return s.CarriedForwardCents + s.MonthlyAmountCents
	}
}

func isValidStatus(st Status) bool {
	for _, v := range ValidStatuses {
		if v == st {
			return true
		}
	}
	return false
}
