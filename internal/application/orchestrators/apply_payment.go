package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"academyhub/internal/domain/audit"
	"academyhub/internal/domain/subscription"
)

// SubscriptionStoreForPayment defines the store interface needed by payment
// and lifecycle commands.
type SubscriptionStoreForPayment interface {
	GetByTenant(ctx context.Context, tenantID string) (subscription.Subscription, error)
	Save(ctx context.Context, s subscription.Subscription) error
}

// ApplyPaymentInput carries input for the payment orchestrator.
type ApplyPaymentInput struct {
	TenantID    string
	AmountCents int64
	ActorID     string
}

// ApplyPaymentResult carries the resulting subscription state.
type ApplyPaymentResult struct {
	Status      subscription.Status
	NextDueDate time.Time
}

// ApplyPaymentDeps holds dependencies for ExecuteApplyPayment.
type ApplyPaymentDeps struct {
	Subscriptions SubscriptionStoreForPayment
	Tenants       TenantStoreForSweep
	Audits        AuditStoreForSweep
	Locks         *TenantLocks
	Now           func() time.Time
}

// ExecuteApplyPayment applies a subscription payment for one tenant.
//
// An insufficient payment is rejected whole: partial payments never change
// state. A rejected attempt is still audited.
// PRE: input.TenantID is non-empty, AmountCents >= 0
// POST: On success the subscription is active with the due date advanced
func ExecuteApplyPayment(ctx context.Context, input ApplyPaymentInput, deps ApplyPaymentDeps) (ApplyPaymentResult, error) {
	now := deps.Now()
	if now.IsZero() {
		return ApplyPaymentResult{}, subscription.ErrZeroTime
	}

	deps.Locks.Lock(input.TenantID)
	defer deps.Locks.Unlock(input.TenantID)

	sub, err := deps.Subscriptions.GetByTenant(ctx, input.TenantID)
	if err != nil {
		return ApplyPaymentResult{}, fmt.Errorf("load subscription: %w", err)
	}

	ev := subscription.Event{Type: subscription.EventPaymentReceived, AmountCents: input.AmountCents}
	next, err := subscription.Transition(sub, ev, now)
	if err != nil {
		rejected := audit.NewEvent(now, audit.CategorySubscription, audit.ActionReject).
			WithSeverity(audit.SeverityWarning).
			WithActor(input.ActorID).
			WithTenant(input.TenantID).
			WithResource("subscription", sub.ID).
			WithDescription(fmt.Sprintf("payment of %d cents rejected: %v", input.AmountCents, err))
		_ = deps.Audits.Append(ctx, rejected)
		slog.Info("lifecycle_event", "event", "payment_rejected", "tenant_id", input.TenantID, "amount_cents", input.AmountCents, "reason", err)
		return ApplyPaymentResult{}, err
	}

	if err := deps.Subscriptions.Save(ctx, next); err != nil {
		return ApplyPaymentResult{}, fmt.Errorf("save subscription: %w", err)
	}
	if err := deps.Tenants.SetSubscriptionStatus(ctx, next.TenantID, string(next.Status)); err != nil {
		return ApplyPaymentResult{}, fmt.Errorf("update tenant status: %w", err)
	}

	applied := audit.NewEvent(now, audit.CategorySubscription, audit.ActionPayment).
		WithActor(input.ActorID).
		WithTenant(input.TenantID).
		WithResource("subscription", next.ID).
		WithDescription(fmt.Sprintf("payment of %d cents applied, status %s", input.AmountCents, next.Status))
	_ = deps.Audits.Append(ctx, applied)

	slog.Info("lifecycle_event",
		"event", "payment_applied",
		"tenant_id", input.TenantID,
		"amount_cents", input.AmountCents,
		"status", next.Status,
		"next_due", next.NextDueDate,
	)
	return ApplyPaymentResult{Status: next.Status, NextDueDate: next.NextDueDate}, nil
}
