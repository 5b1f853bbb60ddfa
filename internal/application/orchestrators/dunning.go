package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"academyhub/internal/adapters/email"
	outboxStore "academyhub/internal/adapters/storage/outbox"
	tenantStore "academyhub/internal/adapters/storage/tenant"
	domain "academyhub/internal/domain/outbox"
)

// DunningProcessor drains the outbox: queued dunning notices are delivered
// with exponential backoff, and permanently failing entries are parked for
// an operator.
type DunningProcessor struct {
	store     outboxStore.Store
	tenants   tenantStore.Store
	sender    email.Sender
	now       func() time.Time
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
}

// NewDunningProcessor creates a processor with production retry settings.
func NewDunningProcessor(store outboxStore.Store, tenants tenantStore.Store, sender email.Sender, now func() time.Time) *DunningProcessor {
	return &DunningProcessor{
		store:     store,
		tenants:   tenants,
		sender:    sender,
		now:       now,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 10,
	}
}

// ProcessPending delivers queued entries that are due for an attempt.
// PRE: Context is valid
// POST: Each due entry is attempted once and its state saved
func (p *DunningProcessor) ProcessPending(ctx context.Context) error {
	entries, err := p.store.ListRetryable(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("list retryable outbox entries: %w", err)
	}

	for _, entry := range entries {
		if err := p.processEntry(ctx, entry); err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err.Error())
		}
	}
	return nil
}

// processEntry attempts delivery of a single entry.
func (p *DunningProcessor) processEntry(ctx context.Context, entry domain.Entry) error {
	// Respect the backoff window since the last attempt
	if !entry.LastAttemptedAt.IsZero() {
		delay := entry.NextRetryDelay(p.baseDelay, p.maxDelay)
		if p.now().Sub(entry.LastAttemptedAt) < delay {
			return nil
		}
	}

	entry.MarkAttempt(p.now())
	externalID, err := p.deliver(ctx, entry)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "error", err.Error())
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}

	return p.store.Save(ctx, entry)
}

// deliver renders and sends the notice for one entry.
func (p *DunningProcessor) deliver(ctx context.Context, entry domain.Entry) (string, error) {
	if entry.ActionType != domain.ActionTypeDunningEmail {
		return "", fmt.Errorf("no handler for action type: %s", entry.ActionType)
	}

	var payload DunningPayload
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
		return "", fmt.Errorf("unmarshal dunning payload: %w", err)
	}

	t, err := p.tenants.GetByID(ctx, payload.TenantID)
	if err != nil {
		return "", fmt.Errorf("load tenant: %w", err)
	}

	req := email.BuildDunningRequest(payload.Recipients, email.DunningNotice{
		TenantName:     t.Name,
		Status:         payload.Status,
		AmountDueCents: payload.AmountDueCents,
		NextDueDate:    payload.NextDueDate,
	})
	result, err := p.sender.Send(ctx, req)
	if err != nil {
		return "", err
	}
	return result.MessageID, nil
}

// ProcessSingle manually attempts one entry (for an operator retry).
// PRE: entryID is non-empty
// POST: Entry attempted regardless of backoff window, state saved
func (p *DunningProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.IsTerminal() {
		return fmt.Errorf("entry %s is in a terminal state and cannot be retried", entryID)
	}

	entry.MarkAttempt(p.now())
	externalID, err := p.deliver(ctx, entry)
	if err != nil {
		entry.MarkFailed(err)
	} else {
		entry.MarkSuccess(externalID)
	}
	return p.store.Save(ctx, entry)
}

// AbandonEntry parks an entry permanently.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned
func (p *DunningProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	entry.MarkAbandoned()
	return p.store.Save(ctx, entry)
}

// StartDunningWorker runs ProcessPending on a fixed interval until stopCh
// is closed.
// PRE: processor is fully wired; interval > 0
// POST: Background goroutine running until stopCh is closed
func StartDunningWorker(processor *DunningProcessor, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				if err := processor.ProcessPending(ctx); err != nil {
					slog.Error("outbox_worker_failed", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_worker_stopped")
				return
			}
		}
	}()
}
