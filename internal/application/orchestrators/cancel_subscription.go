package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"academyhub/internal/domain/audit"
	"academyhub/internal/domain/subscription"
)

// CancelSubscriptionInput carries input for the cancellation orchestrator.
type CancelSubscriptionInput struct {
	TenantID string
	ActorID  string
}

// CancelSubscriptionResult carries the terminal state.
type CancelSubscriptionResult struct {
	CancelledAt      time.Time
	OutstandingCents int64
}

// CancelSubscriptionDeps holds dependencies for ExecuteCancelSubscription.
type CancelSubscriptionDeps struct {
	Subscriptions SubscriptionStoreForPayment
	Tenants       TenantStoreForSweep
	Audits        AuditStoreForSweep
	Locks         *TenantLocks
	Now           func() time.Time
}

// ExecuteCancelSubscription puts a tenant's subscription into its terminal
// status. Debt stops accruing at the cancellation instant but the balance
// owed at that point remains on record.
// PRE: input.TenantID is non-empty
// POST: Subscription is cancelled; tenant status mirrors it
func ExecuteCancelSubscription(ctx context.Context, input CancelSubscriptionInput, deps CancelSubscriptionDeps) (CancelSubscriptionResult, error) {
	now := deps.Now()
	if now.IsZero() {
		return CancelSubscriptionResult{}, subscription.ErrZeroTime
	}

	deps.Locks.Lock(input.TenantID)
	defer deps.Locks.Unlock(input.TenantID)

	sub, err := deps.Subscriptions.GetByTenant(ctx, input.TenantID)
	if err != nil {
		return CancelSubscriptionResult{}, fmt.Errorf("load subscription: %w", err)
	}

	next, err := subscription.Transition(sub, subscription.Event{Type: subscription.EventCancellationRequested}, now)
	if err != nil {
		rejected := audit.NewEvent(now, audit.CategorySubscription, audit.ActionReject).
			WithSeverity(audit.SeverityWarning).
			WithActor(input.ActorID).
			WithTenant(input.TenantID).
			WithResource("subscription", sub.ID).
			WithDescription(fmt.Sprintf("cancellation rejected: %v", err))
		_ = deps.Audits.Append(ctx, rejected)
		return CancelSubscriptionResult{}, err
	}

	if err := deps.Subscriptions.Save(ctx, next); err != nil {
		return CancelSubscriptionResult{}, fmt.Errorf("save subscription: %w", err)
	}
	if err := deps.Tenants.SetSubscriptionStatus(ctx, next.TenantID, string(next.Status)); err != nil {
		return CancelSubscriptionResult{}, fmt.Errorf("update tenant status: %w", err)
	}

	ev := audit.NewEvent(now, audit.CategorySubscription, audit.ActionTransition).
		WithActor(input.ActorID).
		WithTenant(input.TenantID).
		WithResource("subscription", next.ID).
		WithDescription(fmt.Sprintf("subscription cancelled from %s", sub.Status))
	_ = deps.Audits.Append(ctx, ev)

	slog.Info("lifecycle_event", "event", "cancelled", "tenant_id", input.TenantID, "from", sub.Status)

	return CancelSubscriptionResult{
		CancelledAt:      next.CancelledAt,
		OutstandingCents: next.OutstandingCents(now),
	}, nil
}
