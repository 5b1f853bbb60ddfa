package billing

import (
	"context"
	"time"

	"academyhub/internal/domain/delinquency"
)

// Store reads and writes billable accounts and assembles the delinquency
// snapshot the aggregator consumes.
type Store interface {
	SaveAccount(ctx context.Context, value BillableAccount) error
	GetAccount(ctx context.Context, id string) (BillableAccount, error)
	ListAccountsByTenant(ctx context.Context, tenantID string) ([]BillableAccount, error)
	Snapshot(ctx context.Context, tenantID string) ([]delinquency.Account, error)
	SnapshotAll(ctx context.Context) ([]delinquency.Account, error)
}

// BillableAccount is one student or guardian account that owes installments
// to a tenant.
type BillableAccount struct {
	ID                string
	TenantID          string
	DisplayName       string
	SubscriptionStart time.Time
	LastPaymentDate   time.Time // zero = no payment ever
}
