package outbox

import (
	"errors"
	"time"
)

// Status constants for outbox entry lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// Action type constants. Dunning notices are the only external integration
// the billing core queues today.
const (
	ActionTypeDunningEmail = "dunning_email"
)

// Domain errors.
var (
	ErrEmptyActionType = errors.New("action type is required")
	ErrEmptyPayload    = errors.New("payload is required")
	ErrMissingCreated  = errors.New("created_at must be set")
)

// Entry is one queued external action. Delivery to the provider is
// best-effort with exponential backoff; the entry records every attempt so
// a failed dunning notice is retried rather than lost.
type Entry struct {
	ID              string
	ActionType      string
	TenantID        string
	Payload         string // JSON payload for replay
	Status          string
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	ExternalID      string // provider message ID once delivered
	ErrorMessage    string // last error if failed
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise; MaxAttempts defaulted
func (e *Entry) Validate() error {
	if e.ActionType == "" {
		return ErrEmptyActionType
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return ErrMissingCreated
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = 5
	}
	return nil
}

// CanRetry returns true if the entry can be attempted again.
// INVARIANT: Entry fields are not mutated
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying || e.Status == StatusFailed) &&
		e.Attempts < e.MaxAttempts
}

// IsTerminal returns true once no further attempts will be made.
// INVARIANT: Entry fields are not mutated
func (e *Entry) IsTerminal() bool {
	if e.Status == StatusDone || e.Status == StatusAbandoned {
		return true
	}
	return e.Status == StatusFailed && e.Attempts >= e.MaxAttempts
}

// MarkAttempt records a delivery attempt.
// PRE: Entry is in a retryable state
// POST: Attempts incremented, LastAttemptedAt updated, status retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the entry as delivered.
// POST: Status done, ExternalID recorded, error cleared
func (e *Entry) MarkSuccess(externalID string) {
	e.Status = StatusDone
	e.ExternalID = externalID
	e.ErrorMessage = ""
}

// MarkFailed records a failed attempt.
// POST: ErrorMessage set; status failed once attempts are exhausted
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

// MarkAbandoned marks the entry as abandoned by an operator.
// POST: Status abandoned
func (e *Entry) MarkAbandoned() {
	e.Status = StatusAbandoned
}

// NextRetryDelay returns the backoff before the next attempt:
// 2^attempts * baseDelay, capped at maxDelay.
// INVARIANT: Entry fields are not mutated
func (e *Entry) NextRetryDelay(baseDelay, maxDelay time.Duration) time.Duration {
	delay := baseDelay * (1 << e.Attempts)
	if delay > maxDelay || delay <= 0 {
		return maxDelay
	}
	return delay
}
