package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"academyhub/internal/adapters/http/perf"
	accountdomain "academyhub/internal/domain/account"
	"academyhub/internal/domain/actor"
	"academyhub/internal/domain/audit"
	"academyhub/internal/domain/outbox"
	"academyhub/internal/domain/subscription"
)

// SubscriptionStoreForSweep defines the store interface needed by the sweep.
type SubscriptionStoreForSweep interface {
	ListLive(ctx context.Context) ([]subscription.Subscription, error)
	GetByTenant(ctx context.Context, tenantID string) (subscription.Subscription, error)
	Save(ctx context.Context, s subscription.Subscription) error
}

// TenantStoreForSweep updates the denormalized tenant status.
type TenantStoreForSweep interface {
	SetSubscriptionStatus(ctx context.Context, tenantID, status string) error
}

// AuditStoreForSweep records every transition, rejection, and skip.
type AuditStoreForSweep interface {
	Append(ctx context.Context, event audit.Event) error
}

// OutboxStoreForSweep queues dunning notices for delivery.
type OutboxStoreForSweep interface {
	Save(ctx context.Context, entry outbox.Entry) error
}

// AccountStoreForSweep resolves dunning recipients.
type AccountStoreForSweep interface {
	ListByTenant(ctx context.Context, tenantID string) ([]accountdomain.Account, error)
}

// LifecycleSweepDeps holds dependencies for ExecuteLifecycleSweep.
type LifecycleSweepDeps struct {
	Subscriptions SubscriptionStoreForSweep
	Tenants       TenantStoreForSweep
	Audits        AuditStoreForSweep
	Outbox        OutboxStoreForSweep
	Accounts      AccountStoreForSweep
	Locks         *TenantLocks
	Collector     *perf.Collector // optional
	Now           func() time.Time
	GenerateID    func() string
}

// LifecycleSweepResult summarizes one sweep pass.
type LifecycleSweepResult struct {
	Evaluated     int
	Transitioned  int
	Skipped       int
	DunningQueued int
}

// DunningPayload is the outbox payload for one queued dunning notice.
type DunningPayload struct {
	TenantID       string    `json:"tenantId"`
	Status         string    `json:"status"`
	AmountDueCents int64     `json:"amountDueCents"`
	NextDueDate    time.Time `json:"nextDueDate"`
	Recipients     []string  `json:"recipients"`
}

// ExecuteLifecycleSweep evaluates every live subscription against a single
// authoritative timestamp taken once at the start of the pass.
//
// A tenant whose evaluation fails is skipped and reported, never silently
// advanced: the sweep must not guess at billing state. Entering overdue or
// suspended queues a dunning notice for the tenant's admins.
// PRE: All deps are populated; Now returns the authoritative clock
// POST: Each transitioned subscription is saved with its tenant status;
// the pass continues past per-tenant failures
func ExecuteLifecycleSweep(ctx context.Context, deps LifecycleSweepDeps) (LifecycleSweepResult, error) {
	start := time.Now()
	var result LifecycleSweepResult

	now := deps.Now()
	if now.IsZero() {
		// No authoritative clock: report, touch nothing.
		slog.Error("lifecycle_sweep", "event", "pass_skipped", "reason", "clock_unavailable")
		ev := audit.NewEvent(time.Now(), audit.CategorySystem, audit.ActionSkip).
			WithSeverity(audit.SeverityWarning).
			WithDescription("lifecycle sweep skipped: authoritative clock unavailable")
		_ = deps.Audits.Append(ctx, ev)
		return result, subscription.ErrZeroTime
	}

	subs, err := deps.Subscriptions.ListLive(ctx)
	if err != nil {
		return result, fmt.Errorf("list live subscriptions: %w", err)
	}

	for _, listed := range subs {
		result.Evaluated++
		if err := deps.sweepOne(ctx, listed.TenantID, now, &result); err != nil {
			result.Skipped++
			slog.Warn("lifecycle_sweep", "event", "tenant_skipped", "tenant_id", listed.TenantID, "error", err)
			ev := audit.NewEvent(now, audit.CategorySubscription, audit.ActionSkip).
				WithSeverity(audit.SeverityWarning).
				WithTenant(listed.TenantID).
				WithResource("subscription", listed.ID).
				WithDescription(fmt.Sprintf("sweep skipped tenant: %v", err))
			_ = deps.Audits.Append(ctx, ev)
		}
	}

	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	if deps.Collector != nil {
		deps.Collector.Record(perf.Entry{
			Kind:       perf.KindSweep,
			Path:       "lifecycle_sweep",
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
	slog.Info("lifecycle_sweep",
		"event", "pass_complete",
		"evaluated", result.Evaluated,
		"transitioned", result.Transitioned,
		"skipped", result.Skipped,
		"dunning_queued", result.DunningQueued,
		"duration_ms", durationMs,
	)
	return result, nil
}

// sweepOne evaluates one tenant's subscription under its lock. The listed
// snapshot is only an enumeration handle: the subscription is re-read once
// the lock is held, so a payment applied between the list and this
// evaluation transitions from current state, never from a stale row.
func (deps LifecycleSweepDeps) sweepOne(ctx context.Context, tenantID string, now time.Time, result *LifecycleSweepResult) error {
	deps.Locks.Lock(tenantID)
	defer deps.Locks.Unlock(tenantID)

	sub, err := deps.Subscriptions.GetByTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load subscription: %w", err)
	}

	next, err := subscription.Transition(sub, subscription.Event{Type: subscription.EventTimeAdvanced}, now)
	if err != nil {
		return fmt.Errorf("time advance: %w", err)
	}
	if next.Status == sub.Status {
		return nil
	}

	if err := deps.Subscriptions.Save(ctx, next); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	if err := deps.Tenants.SetSubscriptionStatus(ctx, next.TenantID, string(next.Status)); err != nil {
		return fmt.Errorf("update tenant status: %w", err)
	}
	result.Transitioned++

	ev := audit.NewEvent(now, audit.CategorySubscription, audit.ActionTransition).
		WithTenant(next.TenantID).
		WithResource("subscription", next.ID).
		WithDescription(fmt.Sprintf("subscription moved %s to %s", sub.Status, next.Status))
	_ = deps.Audits.Append(ctx, ev)

	slog.Info("lifecycle_event",
		"event", "status_changed",
		"tenant_id", next.TenantID,
		"from", sub.Status,
		"to", next.Status,
	)

	if next.Status == subscription.StatusOverdue || next.Status == subscription.StatusSuspended {
		if err := deps.queueDunning(ctx, next, now); err != nil {
			// The transition already committed; a failed queue is logged,
			// not rolled back.
			slog.Error("lifecycle_event", "event", "dunning_queue_failed", "tenant_id", next.TenantID, "error", err)
		} else {
			result.DunningQueued++
		}
	}
	return nil
}

// queueDunning writes an outbox entry addressed to the tenant's admins.
func (deps LifecycleSweepDeps) queueDunning(ctx context.Context, sub subscription.Subscription, now time.Time) error {
	accounts, err := deps.Accounts.ListByTenant(ctx, sub.TenantID)
	if err != nil {
		return fmt.Errorf("list tenant accounts: %w", err)
	}
	var recipients []string
	for _, a := range accounts {
		if a.Role == actor.RoleAcademyAdmin {
			recipients = append(recipients, a.Email)
		}
	}
	if len(recipients) == 0 {
		return fmt.Errorf("tenant %s has no admin accounts to notify", sub.TenantID)
	}

	payload, err := json.Marshal(DunningPayload{
		TenantID:       sub.TenantID,
		Status:         string(sub.Status),
		AmountDueCents: sub.AmountDueCents(now),
		NextDueDate:    sub.NextDueDate,
		Recipients:     recipients,
	})
	if err != nil {
		return fmt.Errorf("marshal dunning payload: %w", err)
	}

	entry := outbox.Entry{
		ID:         deps.GenerateID(),
		ActionType: outbox.ActionTypeDunningEmail,
		TenantID:   sub.TenantID,
		Payload:    string(payload),
		Status:     outbox.StatusPending,
		CreatedAt:  now,
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	return deps.Outbox.Save(ctx, entry)
}

// StartLifecycleScheduler runs the sweep on a fixed interval until stopCh
// closes. Each pass gets a fresh timeout context.
// PRE: deps are fully populated; interval > 0
// POST: Background goroutine running until stopCh is closed
func StartLifecycleScheduler(deps LifecycleSweepDeps, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if _, err := ExecuteLifecycleSweep(ctx, deps); err != nil {
					slog.Error("lifecycle_sweep", "event", "pass_failed", "error", err)
				}
				cancel()
			case <-stopCh:
				slog.Info("lifecycle_sweep", "event", "scheduler_stopped")
				return
			}
		}
	}()
}
