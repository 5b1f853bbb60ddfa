package billing

import (
	"context"
	"database/sql"
	"fmt"

	"academyhub/internal/adapters/storage"
	"academyhub/internal/domain/delinquency"
	paydomain "academyhub/internal/domain/payment"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new billing store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// SaveAccount persists a BillableAccount.
// PRE: value has a non-empty ID and TenantID
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) SaveAccount(ctx context.Context, value BillableAccount) error {
	query := `INSERT INTO billing_account (id, tenant_id, display_name, subscription_start, last_payment_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name=excluded.display_name,
			subscription_start=excluded.subscription_start,
			last_payment_date=excluded.last_payment_date`

	_, err := s.db.ExecContext(ctx, query,
		value.ID,
		value.TenantID,
		value.DisplayName,
		storage.FormatTime(value.SubscriptionStart),
		storage.NullableTime(value.LastPaymentDate),
	)
	return err
}

// GetAccount retrieves a BillableAccount by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (BillableAccount, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, tenant_id, display_name, subscription_start, last_payment_date FROM billing_account WHERE id = ?", id)
	entity, err := scanAccount(row.Scan)
	if err == sql.ErrNoRows {
		return BillableAccount{}, fmt.Errorf("billing account not found: %w", err)
	}
	return entity, err
}

func scanAccount(scan func(dest ...any) error) (BillableAccount, error) {
	var entity BillableAccount
	var start string
	var lastPaid sql.NullString
	err := scan(&entity.ID, &entity.TenantID, &entity.DisplayName, &start, &lastPaid)
	if err != nil {
		return BillableAccount{}, err
	}
	entity.SubscriptionStart = storage.ParseTime(start)
	entity.LastPaymentDate = storage.TimeFromNull(lastPaid)
	return entity, nil
}

// ListAccountsByTenant returns a tenant's billable accounts.
// PRE: tenantID is non-empty
// POST: Returns accounts ordered by ID
func (s *SQLiteStore) ListAccountsByTenant(ctx context.Context, tenantID string) ([]BillableAccount, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, tenant_id, display_name, subscription_start, last_payment_date FROM billing_account WHERE tenant_id = ? ORDER BY id", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []BillableAccount
	for rows.Next() {
		entity, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Snapshot assembles the delinquency input for one tenant. Accounts and
// their payment histories are read inside a single transaction so the
// aggregation sees one consistent instant of the data.
// PRE: tenantID is non-empty
// POST: Returns accounts with full payment history attached
func (s *SQLiteStore) Snapshot(ctx context.Context, tenantID string) ([]delinquency.Account, error) {
	return s.snapshot(ctx, "WHERE a.tenant_id = ?", tenantID)
}

// SnapshotAll assembles the delinquency input across every tenant, for the
// platform-wide report.
// PRE: none
// POST: Returns accounts with full payment history attached
func (s *SQLiteStore) SnapshotAll(ctx context.Context) ([]delinquency.Account, error) {
	return s.snapshot(ctx, "")
}

func (s *SQLiteStore) snapshot(ctx context.Context, where string, args ...any) ([]delinquency.Account, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	accountQuery := "SELECT a.id, a.subscription_start, a.last_payment_date FROM billing_account a " + where + " ORDER BY a.id"
	rows, err := tx.QueryContext(ctx, accountQuery, args...)
	if err != nil {
		return nil, err
	}

	var accounts []delinquency.Account
	for rows.Next() {
		var acct delinquency.Account
		var start string
		var lastPaid sql.NullString
		if err := rows.Scan(&acct.AccountID, &start, &lastPaid); err != nil {
			rows.Close()
			return nil, err
		}
		acct.SubscriptionStart = storage.ParseTime(start)
		acct.LastPaymentDate = storage.TimeFromNull(lastPaid)
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range accounts {
		payments, err := loadPayments(ctx, tx, accounts[i].AccountID)
		if err != nil {
			return nil, err
		}
		accounts[i].Payments = payments
	}

	return accounts, tx.Commit()
}

func loadPayments(ctx context.Context, tx *sql.Tx, accountID string) ([]paydomain.Record, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, account_id, tenant_id, due_date, amount_cents, paid_date, amount_paid_cents FROM payment WHERE account_id = ? ORDER BY due_date ASC",
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []paydomain.Record
	for rows.Next() {
		var p paydomain.Record
		var due string
		var paid sql.NullString
		if err := rows.Scan(&p.ID, &p.AccountID, &p.TenantID, &due, &p.AmountCents, &paid, &p.AmountPaidCents); err != nil {
			return nil, err
		}
		p.DueDate = storage.ParseTime(due)
		p.PaidDate = storage.TimeFromNull(paid)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
