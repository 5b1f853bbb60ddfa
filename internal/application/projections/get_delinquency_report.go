package projections

import (
	"context"
	"fmt"
	"time"

	"academyhub/internal/domain/delinquency"
)

// DelinquencyBillingStore supplies delinquency snapshots for reporting.
type DelinquencyBillingStore interface {
	Snapshot(ctx context.Context, tenantID string) ([]delinquency.Account, error)
	SnapshotAll(ctx context.Context) ([]delinquency.Account, error)
}

// GetDelinquencyReportInput carries filters for the report projection.
type GetDelinquencyReportInput struct {
	TenantID string // empty = platform-wide
	Limit    int    // > 0 truncates the record list, totals stay complete
}

// GetDelinquencyReportDeps holds dependencies for the report projection.
type GetDelinquencyReportDeps struct {
	Billing DelinquencyBillingStore
	Now     func() time.Time
}

// QueryGetDelinquencyReport computes the delinquency report on demand from
// the stored payment history. Nothing is cached or persisted: the report is
// a pure function of the snapshot and the clock.
// PRE: deps.Now returns a non-zero instant
// POST: Returns the aggregated report for the requested scope
func QueryGetDelinquencyReport(ctx context.Context, input GetDelinquencyReportInput, deps GetDelinquencyReportDeps) (delinquency.Report, error) {
	var (
		accounts []delinquency.Account
		err      error
	)
	if input.TenantID == "" {
		accounts, err = deps.Billing.SnapshotAll(ctx)
	} else {
		accounts, err = deps.Billing.Snapshot(ctx, input.TenantID)
	}
	if err != nil {
		return delinquency.Report{}, fmt.Errorf("load delinquency snapshot: %w", err)
	}

	return delinquency.Aggregate(accounts, deps.Now(), input.Limit), nil
}
