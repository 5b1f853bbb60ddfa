package notice

import (
	"context"
	"database/sql"
	"fmt"

	"academyhub/internal/adapters/storage"
	domain "academyhub/internal/domain/notice"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new notice store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectColumns = "id, title, body, audience, status, published_at, created_at"

func scanNotice(scan func(dest ...any) error) (domain.Notice, error) {
	var entity domain.Notice
	var publishedAt sql.NullString
	var createdAt string
	err := scan(
		&entity.ID,
		&entity.Title,
		&entity.Body,
		&entity.Audience,
		&entity.Status,
		&publishedAt,
		&createdAt,
	)
	if err != nil {
		return domain.Notice{}, err
	}
	entity.PublishedAt = storage.TimeFromNull(publishedAt)
	entity.CreatedAt = storage.ParseTime(createdAt)
	return entity, nil
}

// GetByID retrieves a Notice by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Notice, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM notice WHERE id = ?", id)
	entity, err := scanNotice(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Notice{}, fmt.Errorf("notice not found: %w", err)
	}
	return entity, err
}

// Save persists a Notice to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Notice) error {
	query := `INSERT INTO notice (id, title, body, audience, status, published_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			body=excluded.body,
			audience=excluded.audience,
			status=excluded.status,
			published_at=excluded.published_at`

	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.Title,
		entity.Body,
		entity.Audience,
		entity.Status,
		storage.NullableTime(entity.PublishedAt),
		storage.FormatTime(entity.CreatedAt),
	)
	return err
}

// Delete removes a Notice from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM notice WHERE id = ?", id)
	return err
}

// List returns notices newest first, optionally filtered by status.
// PRE: status is empty or a valid status constant
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, status string) ([]domain.Notice, error) {
	query := "SELECT " + selectColumns + " FROM notice"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Notice
	for rows.Next() {
		entity, err := scanNotice(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
