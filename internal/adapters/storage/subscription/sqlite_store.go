package subscription

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"academyhub/internal/adapters/storage"
	domain "academyhub/internal/domain/subscription"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new subscription store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectColumns = "id, tenant_id, period, status, monthly_amount_cents, last_payment_date, next_due_date, tolerance_days, period_start, carried_forward_cents, cancelled_at"

func scanSubscription(scan func(dest ...any) error) (domain.Subscription, error) {
	var entity domain.Subscription
	var status string
	var lastPayment, nextDue, cancelledAt sql.NullString
	var periodStart string
	err := scan(
		&entity.ID,
		&entity.TenantID,
		&entity.Period,
		&status,
		&entity.MonthlyAmountCents,
		&lastPayment,
		&nextDue,
		&entity.ToleranceDays,
		&periodStart,
		&entity.CarriedForwardCents,
		&cancelledAt,
	)
	if err != nil {
		return domain.Subscription{}, err
	}
	entity.Status = domain.Status(status)
	entity.LastPaymentDate = storage.TimeFromNull(lastPayment)
	entity.NextDueDate = storage.TimeFromNull(nextDue)
	entity.PeriodStart = storage.ParseTime(periodStart)
	entity.CancelledAt = storage.TimeFromNull(cancelledAt)
	return entity, nil
}

// GetByTenant retrieves the Subscription belonging to a tenant.
// PRE: tenantID is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByTenant(ctx context.Context, tenantID string) (domain.Subscription, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM subscription WHERE tenant_id = ?", tenantID)
	entity, err := scanSubscription(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Subscription{}, fmt.Errorf("subscription not found: %w", err)
	}
	return entity, err
}

// Save persists a Subscription to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Subscription) error {
	query := `INSERT INTO subscription (id, tenant_id, period, status, monthly_amount_cents, last_payment_date, next_due_date, tolerance_days, period_start, carried_forward_cents, cancelled_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			period=excluded.period,
			status=excluded.status,
			monthly_amount_cents=excluded.monthly_amount_cents,
			last_payment_date=excluded.last_payment_date,
			next_due_date=excluded.next_due_date,
			tolerance_days=excluded.tolerance_days,
			period_start=excluded.period_start,
			carried_forward_cents=excluded.carried_forward_cents,
			cancelled_at=excluded.cancelled_at,
			updated_at=excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.TenantID,
		entity.Period,
		string(entity.Status),
		entity.MonthlyAmountCents,
		storage.NullableTime(entity.LastPaymentDate),
		storage.NullableTime(entity.NextDueDate),
		entity.ToleranceDays,
		storage.FormatTime(entity.PeriodStart),
		entity.CarriedForwardCents,
		storage.NullableTime(entity.CancelledAt),
		storage.FormatTime(time.Now()),
	)
	return err
}

// ListLive returns every subscription the lifecycle sweep must evaluate:
// all statuses except cancelled. Cancelled is terminal and never re-enters
// the sweep.
// PRE: none
// POST: Returns subscriptions ordered by tenant for deterministic sweeps
func (s *SQLiteStore) ListLive(ctx context.Context) ([]domain.Subscription, error) {
	query := "SELECT " + selectColumns + " FROM subscription WHERE status != ? ORDER BY tenant_id"
	rows, err := s.db.QueryContext(ctx, query, string(domain.StatusCancelled))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Subscription
	for rows.Next() {
		entity, err := scanSubscription(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// AppendPeriod writes one row to the period history.
// PRE: entry has fresh ID; period log is append-only
// POST: Row inserted; duplicate IDs fail
func (s *SQLiteStore) AppendPeriod(ctx context.Context, entry PeriodEntry) error {
	query := `INSERT INTO subscription_period (id, tenant_id, period, period_start, carried_forward_cents, opened_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.Period,
		storage.FormatTime(entry.PeriodStart),
		entry.CarriedForwardCents,
		entry.OpenedBy,
		storage.FormatTime(entry.CreatedAt),
	)
	return err
}

// ListPeriods returns a tenant's period history oldest first.
// PRE: tenantID is non-empty
// POST: Returns entries ordered by period ascending
func (s *SQLiteStore) ListPeriods(ctx context.Context, tenantID string) ([]PeriodEntry, error) {
	query := `SELECT id, tenant_id, period, period_start, carried_forward_cents, opened_by, created_at
		FROM subscription_period WHERE tenant_id = ? ORDER BY period ASC`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []PeriodEntry
	for rows.Next() {
		var e PeriodEntry
		var periodStart, createdAt string
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Period, &periodStart, &e.CarriedForwardCents, &e.OpenedBy, &createdAt); err != nil {
			return nil, err
		}
		e.PeriodStart = storage.ParseTime(periodStart)
		e.CreatedAt = storage.ParseTime(createdAt)
		results = append(results, e)
	}
	return results, rows.Err()
}
