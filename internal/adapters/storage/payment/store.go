package payment

import (
	"context"
	"time"

	domain "academyhub/internal/domain/payment"
)

// Store persists installment records.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Record, error)
	Save(ctx context.Context, value domain.Record) error
	EnsureInstallment(ctx context.Context, value domain.Record) (bool, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Record, error)
	ListUnpaidByTenant(ctx context.Context, tenantID string) ([]domain.Record, error)
	OldestUnpaid(ctx context.Context, accountID string) (domain.Record, bool, error)
	LastPaidDate(ctx context.Context, accountID string) (time.Time, error)
}
