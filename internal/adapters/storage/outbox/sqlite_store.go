package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"academyhub/internal/adapters/storage"
	domain "academyhub/internal/domain/outbox"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectColumns = "id, action_type, tenant_id, payload, status, attempts, max_attempts, last_attempted_at, created_at, external_id, error_message"

func scanEntry(scan func(dest ...any) error) (domain.Entry, error) {
	var entity domain.Entry
	var lastAttempted sql.NullString
	var createdAt string
	err := scan(
		&entity.ID,
		&entity.ActionType,
		&entity.TenantID,
		&entity.Payload,
		&entity.Status,
		&entity.Attempts,
		&entity.MaxAttempts,
		&lastAttempted,
		&createdAt,
		&entity.ExternalID,
		&entity.ErrorMessage,
	)
	if err != nil {
		return domain.Entry{}, err
	}
	entity.LastAttemptedAt = storage.TimeFromNull(lastAttempted)
	entity.CreatedAt = storage.ParseTime(createdAt)
	return entity, nil
}

// GetByID retrieves an Entry by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM outbox WHERE id = ?", id)
	entity, err := scanEntry(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Entry{}, fmt.Errorf("outbox entry not found: %w", err)
	}
	return entity, err
}

// Save persists an Entry to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Entry) error {
	query := `INSERT INTO outbox (id, action_type, tenant_id, payload, status, attempts, max_attempts, last_attempted_at, created_at, external_id, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status,
			attempts=excluded.attempts,
			max_attempts=excluded.max_attempts,
			last_attempted_at=excluded.last_attempted_at,
			external_id=excluded.external_id,
			error_message=excluded.error_message`

	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.ActionType,
		entity.TenantID,
		entity.Payload,
		entity.Status,
		entity.Attempts,
		entity.MaxAttempts,
		storage.NullableTime(entity.LastAttemptedAt),
		storage.FormatTime(entity.CreatedAt),
		entity.ExternalID,
		entity.ErrorMessage,
	)
	return err
}

// ListRetryable returns non-terminal entries with attempts remaining,
// oldest first so the queue drains in order.
// PRE: limit > 0
// POST: Returns up to limit entries
func (s *SQLiteStore) ListRetryable(ctx context.Context, limit int) ([]domain.Entry, error) {
	query := "SELECT " + selectColumns + ` FROM outbox
		WHERE status IN (?, ?, ?) AND attempts < max_attempts
		ORDER BY created_at ASC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query,
		domain.StatusPending, domain.StatusRetrying, domain.StatusFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Entry
	for rows.Next() {
		entity, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
