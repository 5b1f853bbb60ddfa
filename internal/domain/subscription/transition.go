package subscription

import "time"

// EventType identifies what happened to a subscription.
type EventType string

const (
	// EventTimeAdvanced is the periodic sweep's clock check.
	EventTimeAdvanced EventType = "time_advanced"
	// EventPaymentReceived carries a payment amount in cents.
	EventPaymentReceived EventType = "payment_received"
	// EventCancellationRequested ends the subscription; terminal.
	EventCancellationRequested EventType = "cancellation_requested"
	// EventReactivationRequested is the platform operator's manual override.
	// It opens a new subscription period and bypasses the tolerance check.
	EventReactivationRequested EventType = "reactivation_requested"
)

// Event is one input to the lifecycle state machine.
type Event struct {
	Type        EventType
	AmountCents int64 // payment events only
}

type transitionKey struct {
	From Status
	Ev   EventType
}

// allowedEvents is the declarative transition policy: which events a
// subscription in a given status may receive at all. Everything else is
// rejected with ErrInvalidTransition. Cancelled accepts only explicit
// reactivation.
var allowedEvents = map[transitionKey]bool{
	{StatusActive, EventTimeAdvanced}:    true,
	{StatusOverdue, EventTimeAdvanced}:   true,
	{StatusSuspended, EventTimeAdvanced}: true, // holds; suspension is a fixed point

	{StatusActive, EventPaymentReceived}:    true,
	{StatusOverdue, EventPaymentReceived}:   true,
	{StatusSuspended, EventPaymentReceived}: true,

	{StatusActive, EventCancellationRequested}:    true,
	{StatusOverdue, EventCancellationRequested}:   true,
	{StatusSuspended, EventCancellationRequested}: true,

	{StatusOverdue, EventReactivationRequested}:   true,
	{StatusSuspended, EventReactivationRequested}: true,
	{StatusCancelled, EventReactivationRequested}: true,
}

// Allowed reports whether a subscription in the given status may receive
// the given event type.
func Allowed(from Status, ev EventType) bool {
	return allowedEvents[transitionKey{From: from, Ev: ev}]
}

// Transition applies one event to a subscription against a single
// authoritative timestamp and returns the resulting subscription.
//
// The input is never mutated; status and NextDueDate change together in the
// returned value or not at all. A rejected event (not in the policy table,
// or a payment below the amount due) returns the subscription unchanged
// alongside the error so callers can report the rejected attempt.
// PRE: now is non-zero (callers must skip evaluation when no clock is available)
// POST: Returned subscription satisfies Validate if the input did
func Transition(s Subscription, ev Event, now time.Time) (Subscription, error) {
	if now.IsZero() {
		return s, ErrZeroTime
	}
	if !Allowed(s.Status, ev.Type) {
		return s, ErrInvalidTransition
	}

	switch ev.Type {
	case EventTimeAdvanced:
		return advanceTime(s, now), nil
	case EventPaymentReceived:
		return applyPayment(s, ev.AmountCents, now)
	case EventCancellationRequested:
		s.Status = StatusCancelled
		s.CancelledAt = now
		return s, nil
	case EventReactivationRequested:
		return reactivate(s, now), nil
	}
	return s, ErrInvalidTransition
}

// advanceTime applies the elapsed-time rules: active past due goes overdue,
// overdue past due plus tolerance goes suspended. Anything else holds.
func advanceTime(s Subscription, now time.Time) Subscription {
	switch s.Status {
	case StatusActive:
		if now.After(s.NextDueDate) {
			s.Status = StatusOverdue
		}
	case StatusOverdue:
		if now.After(s.NextDueDate.AddDate(0, 0, s.ToleranceDays)) {
			s.Status = StatusSuspended
		}
	}
	return s
}

// applyPayment settles a payment event. Overdue requires at least the
// carried debt plus the missed installment; suspended requires the full
// outstanding balance. A sufficient payment restores active status, clears
// carried debt, and advances the due date one billing month past the
// settled installment.
func applyPayment(s Subscription, amountCents int64, now time.Time) (Subscription, error) {
	if amountCents < s.AmountDueCents(now) {
		return s, ErrInsufficientAmount
	}
	s.LastPaymentDate = now
	s.CarriedForwardCents = 0
	s.NextDueDate = nextDueAfter(s.NextDueDate, now)
	s.Status = StatusActive
	return s, nil
}

// reactivate opens a new subscription period: the old period is never
// resurrected, keeping billing history append-only. Debt outstanding at the
// moment of reactivation is carried forward into the new period.
func reactivate(s Subscription, now time.Time) Subscription {
	s.CarriedForwardCents = s.OutstandingCents(now)
	s.Period++
	s.Status = StatusActive
	s.PeriodStart = now
	s.NextDueDate = now.AddDate(0, 1, 0)
	s.CancelledAt = time.Time{}
	return s
}

// nextDueAfter advances a due date by at least one billing month, and then
// month by month until it lands after now. Calendar months, not fixed
// 30-day buckets.
func nextDueAfter(due, now time.Time) time.Time {
	if due.IsZero() {
		return now.AddDate(0, 1, 0)
	}
	due = due.AddDate(0, 1, 0)
	for !due.After(now) {
		due = due.AddDate(0, 1, 0)
	}
	return due
}
