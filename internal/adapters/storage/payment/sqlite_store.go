package payment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"academyhub/internal/adapters/storage"
	domain "academyhub/internal/domain/payment"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new payment store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectColumns = "id, account_id, tenant_id, due_date, amount_cents, paid_date, amount_paid_cents"

func scanRecord(scan func(dest ...any) error) (domain.Record, error) {
	var entity domain.Record
	var dueDate string
	var paidDate sql.NullString
	err := scan(
		&entity.ID,
		&entity.AccountID,
		&entity.TenantID,
		&dueDate,
		&entity.AmountCents,
		&paidDate,
		&entity.AmountPaidCents,
	)
	if err != nil {
		return domain.Record{}, err
	}
	entity.DueDate = storage.ParseTime(dueDate)
	entity.PaidDate = storage.TimeFromNull(paidDate)
	return entity, nil
}

// GetByID retrieves a Record by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM payment WHERE id = ?", id)
	entity, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Record{}, fmt.Errorf("payment not found: %w", err)
	}
	return entity, err
}

// Save persists a Record to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Record) error {
	query := `INSERT INTO payment (id, account_id, tenant_id, due_date, amount_cents, paid_date, amount_paid_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			due_date=excluded.due_date,
			amount_cents=excluded.amount_cents,
			paid_date=excluded.paid_date,
			amount_paid_cents=excluded.amount_paid_cents`

	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.AccountID,
		entity.TenantID,
		storage.FormatTime(entity.DueDate),
		entity.AmountCents,
		storage.NullableTime(entity.PaidDate),
		entity.AmountPaidCents,
	)
	return err
}

// EnsureInstallment inserts an installment only if no row exists for the
// same account and due date. The lifecycle sweep calls this every pass, so
// re-running a pass never duplicates installments.
// PRE: entity has been validated
// POST: Returns true when a row was inserted, false when it already existed
func (s *SQLiteStore) EnsureInstallment(ctx context.Context, entity domain.Record) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payment WHERE account_id = ? AND due_date = ?",
		entity.AccountID, storage.FormatTime(entity.DueDate),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, tx.Commit()
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO payment (id, account_id, tenant_id, due_date, amount_cents, paid_date, amount_paid_cents) VALUES (?, ?, ?, ?, ?, ?, ?)",
		entity.ID,
		entity.AccountID,
		entity.TenantID,
		storage.FormatTime(entity.DueDate),
		entity.AmountCents,
		storage.NullableTime(entity.PaidDate),
		entity.AmountPaidCents,
	)
	if err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// ListByAccount returns an account's full installment history, oldest first.
// PRE: accountID is non-empty
// POST: Returns records ordered by due date ascending
func (s *SQLiteStore) ListByAccount(ctx context.Context, accountID string) ([]domain.Record, error) {
	return s.list(ctx, "SELECT "+selectColumns+" FROM payment WHERE account_id = ? ORDER BY due_date ASC", accountID)
}

// ListUnpaidByTenant returns every unpaid installment for a tenant.
// PRE: tenantID is non-empty
// POST: Returns unpaid records ordered by due date ascending
func (s *SQLiteStore) ListUnpaidByTenant(ctx context.Context, tenantID string) ([]domain.Record, error) {
	return s.list(ctx, "SELECT "+selectColumns+" FROM payment WHERE tenant_id = ? AND paid_date IS NULL ORDER BY due_date ASC", tenantID)
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Record
	for rows.Next() {
		entity, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// OldestUnpaid returns the account's oldest unpaid installment.
// PRE: accountID is non-empty
// POST: Returns (record, true) when one exists, (zero, false) otherwise
func (s *SQLiteStore) OldestUnpaid(ctx context.Context, accountID string) (domain.Record, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM payment WHERE account_id = ? AND paid_date IS NULL ORDER BY due_date ASC LIMIT 1",
		accountID)
	entity, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Record{}, false, nil
	}
	if err != nil {
		return domain.Record{}, false, err
	}
	return entity, true, nil
}

// LastPaidDate returns the most recent paid date on the account, or the
// zero time when no installment has ever been paid.
// PRE: accountID is non-empty
// POST: Returns a valid time or zero
func (s *SQLiteStore) LastPaidDate(ctx context.Context, accountID string) (time.Time, error) {
	var paid sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(paid_date) FROM payment WHERE account_id = ? AND paid_date IS NOT NULL",
		accountID).Scan(&paid)
	if err != nil {
		return time.Time{}, err
	}
	return storage.TimeFromNull(paid), nil
}
