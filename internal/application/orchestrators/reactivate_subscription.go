package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	subStore "academyhub/internal/adapters/storage/subscription"
	"academyhub/internal/domain/audit"
	"academyhub/internal/domain/subscription"
)

// SubscriptionStoreForReactivate adds the period log to the command surface.
type SubscriptionStoreForReactivate interface {
	SubscriptionStoreForPayment
	AppendPeriod(ctx context.Context, entry subStore.PeriodEntry) error
}

// ReactivateSubscriptionInput carries input for the reactivation orchestrator.
type ReactivateSubscriptionInput struct {
	TenantID string
	ActorID  string
}

// ReactivateSubscriptionResult carries the opened period.
type ReactivateSubscriptionResult struct {
	Period              int
	PeriodStart         time.Time
	NextDueDate         time.Time
	CarriedForwardCents int64
}

// ReactivateSubscriptionDeps holds dependencies for ExecuteReactivateSubscription.
type ReactivateSubscriptionDeps struct {
	Subscriptions SubscriptionStoreForReactivate
	Tenants       TenantStoreForSweep
	Audits        AuditStoreForSweep
	Locks         *TenantLocks
	Now           func() time.Time
	GenerateID    func() string
}

// ExecuteReactivateSubscription is the platform operator's manual override:
// it reopens a suspended, overdue, or cancelled subscription as a fresh
// billing period with any unpaid balance carried forward. The new period is
// appended to the period history so billing records stay append-only.
// PRE: input.TenantID is non-empty; actor is a platform admin (enforced upstream)
// POST: Subscription active in a new period; period log has one new row
func ExecuteReactivateSubscription(ctx context.Context, input ReactivateSubscriptionInput, deps ReactivateSubscriptionDeps) (ReactivateSubscriptionResult, error) {
	now := deps.Now()
	if now.IsZero() {
		return ReactivateSubscriptionResult{}, subscription.ErrZeroTime
	}

	deps.Locks.Lock(input.TenantID)
	defer deps.Locks.Unlock(input.TenantID)

	sub, err := deps.Subscriptions.GetByTenant(ctx, input.TenantID)
	if err != nil {
		return ReactivateSubscriptionResult{}, fmt.Errorf("load subscription: %w", err)
	}

	next, err := subscription.Transition(sub, subscription.Event{Type: subscription.EventReactivationRequested}, now)
	if err != nil {
		rejected := audit.NewEvent(now, audit.CategorySubscription, audit.ActionReject).
			WithSeverity(audit.SeverityWarning).
			WithActor(input.ActorID).
			WithTenant(input.TenantID).
			WithResource("subscription", sub.ID).
			WithDescription(fmt.Sprintf("reactivation rejected: %v", err))
		_ = deps.Audits.Append(ctx, rejected)
		return ReactivateSubscriptionResult{}, err
	}

	if err := deps.Subscriptions.Save(ctx, next); err != nil {
		return ReactivateSubscriptionResult{}, fmt.Errorf("save subscription: %w", err)
	}
	if err := deps.Subscriptions.AppendPeriod(ctx, subStore.PeriodEntry{
		ID:                  deps.GenerateID(),
		TenantID:            next.TenantID,
		Period:              next.Period,
		PeriodStart:         next.PeriodStart,
		CarriedForwardCents: next.CarriedForwardCents,
		OpenedBy:            input.ActorID,
		CreatedAt:           now,
	}); err != nil {
		return ReactivateSubscriptionResult{}, fmt.Errorf("append period: %w", err)
	}
	if err := deps.Tenants.SetSubscriptionStatus(ctx, next.TenantID, string(next.Status)); err != nil {
		return ReactivateSubscriptionResult{}, fmt.Errorf("update tenant status: %w", err)
	}

	ev := audit.NewEvent(now, audit.CategorySubscription, audit.ActionTransition).
		WithActor(input.ActorID).
		WithTenant(input.TenantID).
		WithResource("subscription", next.ID).
		WithDescription(fmt.Sprintf("subscription reactivated from %s into period %d, %d cents carried forward", sub.Status, next.Period, next.CarriedForwardCents))
	_ = deps.Audits.Append(ctx, ev)

	slog.Info("lifecycle_event",
		"event", "reactivated",
		"tenant_id", input.TenantID,
		"from", sub.Status,
		"period", next.Period,
		"carried_forward_cents", next.CarriedForwardCents,
	)

	return ReactivateSubscriptionResult{
		Period:              next.Period,
		PeriodStart:         next.PeriodStart,
		NextDueDate:         next.NextDueDate,
		CarriedForwardCents: next.CarriedForwardCents,
	}, nil
}
