package audit

import (
	"context"

	"academyhub/internal/adapters/storage"
	domain "academyhub/internal/domain/audit"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new audit store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Append writes one event to the audit log.
// PRE: event has a fresh ID and timestamp
// POST: Row inserted; duplicate IDs fail
func (s *SQLiteStore) Append(ctx context.Context, event domain.Event) error {
	query := `INSERT INTO audit_event (id, timestamp, category, action, severity, actor_id, tenant_id, resource_type, resource_id, description, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	metadata := event.Metadata
	if metadata == "" {
		metadata = "{}"
	}

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		storage.FormatTime(event.Timestamp),
		string(event.Category),
		string(event.Action),
		string(event.Severity),
		event.ActorID,
		event.TenantID,
		event.ResourceType,
		event.ResourceID,
		event.Description,
		metadata,
	)
	return err
}

// List retrieves events newest first.
// PRE: filter has valid parameters
// POST: Returns matching events ordered by timestamp descending
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Event, error) {
	query := "SELECT id, timestamp, category, action, severity, actor_id, tenant_id, resource_type, resource_id, description, metadata FROM audit_event WHERE 1=1"
	var args []any

	if filter.TenantID != "" {
		query += " AND tenant_id = ?"
		args = append(args, filter.TenantID)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	query += " ORDER BY timestamp DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Event
	for rows.Next() {
		var e domain.Event
		var ts, category, action, severity string
		if err := rows.Scan(
			&e.ID,
			&ts,
			&category,
			&action,
			&severity,
			&e.ActorID,
			&e.TenantID,
			&e.ResourceType,
			&e.ResourceID,
			&e.Description,
			&e.Metadata,
		); err != nil {
			return nil, err
		}
		e.Timestamp = storage.ParseTime(ts)
		e.Category = domain.Category(category)
		e.Action = domain.Action(action)
		e.Severity = domain.Severity(severity)
		results = append(results, e)
	}
	return results, rows.Err()
}
