package account

import (
	"context"
	"database/sql"
	"fmt"

	"academyhub/internal/adapters/storage"
	domain "academyhub/internal/domain/account"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new account store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectColumns = "id, email, password_hash, role, staff_kind, tenant_id, created_at, failed_logins, locked_until"

func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var entity domain.Account
	var tenantID, lockedUntil sql.NullString
	var createdAt string
	err := scan(
		&entity.ID,
		&entity.Email,
		&entity.PasswordHash,
		&entity.Role,
		&entity.StaffKind,
		&tenantID,
		&createdAt,
		&entity.FailedLogins,
		&lockedUntil,
	)
	if err != nil {
		return domain.Account{}, err
	}
	if tenantID.Valid {
		entity.TenantID = tenantID.String
	}
	entity.CreatedAt = storage.ParseTime(createdAt)
	entity.LockedUntil = storage.TimeFromNull(lockedUntil)
	return entity, nil
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM account WHERE id = ?", id)
	entity, err := scanAccount(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Account{}, fmt.Errorf("account not found: %w", err)
	}
	return entity, err
}

// GetByEmail retrieves an Account by email.
// PRE: email is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM account WHERE email = ?", email)
	entity, err := scanAccount(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Account{}, fmt.Errorf("account not found: %w", err)
	}
	return entity, err
}

// Save persists an Account to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	query := `INSERT INTO account (id, email, password_hash, role, staff_kind, tenant_id, created_at, failed_logins, locked_until)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email=excluded.email,
			password_hash=excluded.password_hash,
			role=excluded.role,
			staff_kind=excluded.staff_kind,
			tenant_id=excluded.tenant_id,
			failed_logins=excluded.failed_logins,
			locked_until=excluded.locked_until`

	var tenantID any
	if entity.TenantID != "" {
		tenantID = entity.TenantID
	}

	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.Email,
		entity.PasswordHash,
		entity.Role,
		entity.StaffKind,
		tenantID,
		storage.FormatTime(entity.CreatedAt),
		entity.FailedLogins,
		storage.NullableTime(entity.LockedUntil),
	)
	return err
}

// Delete removes an Account from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM account WHERE id = ?", id)
	return err
}

// ListByTenant returns a tenant's accounts ordered by email.
// PRE: tenantID is non-empty
// POST: Returns matching entities
func (s *SQLiteStore) ListByTenant(ctx context.Context, tenantID string) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+selectColumns+" FROM account WHERE tenant_id = ? ORDER BY email", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Account
	for rows.Next() {
		entity, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// CountByRole returns how many accounts hold the given role.
// PRE: role is non-empty
// POST: Returns count >= 0
func (s *SQLiteStore) CountByRole(ctx context.Context, role string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account WHERE role = ?", role).Scan(&count)
	return count, err
}
