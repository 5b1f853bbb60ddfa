package subscription

import (
	"context"
	"time"

	domain "academyhub/internal/domain/subscription"
)

// Store persists Subscription state plus the append-only period log.
type Store interface {
	GetByTenant(ctx context.Context, tenantID string) (domain.Subscription, error)
	Save(ctx context.Context, value domain.Subscription) error
	ListLive(ctx context.Context) ([]domain.Subscription, error)
	AppendPeriod(ctx context.Context, entry PeriodEntry) error
	ListPeriods(ctx context.Context, tenantID string) ([]PeriodEntry, error)
}

// PeriodEntry is one row in the billing-period history. A new entry is
// appended every time a period opens; existing entries are never updated.
type PeriodEntry struct {
	ID                  string
	TenantID            string
	Period              int
	PeriodStart         time.Time
	CarriedForwardCents int64
	OpenedBy            string // actor ID, or "system" for the initial period
	CreatedAt           time.Time
}
