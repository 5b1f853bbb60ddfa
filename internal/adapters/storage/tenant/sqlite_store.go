package tenant

import (
	"context"
	"database/sql"
	"fmt"

	"academyhub/internal/adapters/storage"
	domain "academyhub/internal/domain/tenant"
)

// SQLiteStore implements Store using SQLite. Feature flags live in the
// tenant_feature join table and are loaded with every tenant read.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new tenant store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Tenant by its ID.
// PRE: id is non-empty
// POST: Returns the entity with feature flags loaded, or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	query := "SELECT id, name, plan, subscription_status, created_at FROM tenant WHERE id = ?"

	row := s.db.QueryRowContext(ctx, query, id)

	var entity domain.Tenant
	var createdAt string
	err := row.Scan(&entity.ID, &entity.Name, &entity.Plan, &entity.SubscriptionStatus, &createdAt)
	if err == sql.ErrNoRows {
		return domain.Tenant{}, fmt.Errorf("tenant not found: %w", err)
	}
	if err != nil {
		return domain.Tenant{}, err
	}
	entity.CreatedAt = storage.ParseTime(createdAt)

	entity.FeatureFlags, err = s.loadFlags(ctx, id)
	return entity, err
}

// loadFlags reads the feature flags for one tenant in stable order.
func (s *SQLiteStore) loadFlags(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT feature FROM tenant_feature WHERE tenant_id = ? ORDER BY feature", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flags []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

// Save persists a Tenant to the database, flags included.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Tenant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO tenant (id, name, plan, subscription_status, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, plan=excluded.plan, subscription_status=excluded.subscription_status`

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.Name,
		entity.Plan,
		entity.SubscriptionStatus,
		storage.FormatTime(entity.CreatedAt),
	)
	if err != nil {
		return err
	}

	if err := replaceFlags(ctx, tx, entity.ID, entity.FeatureFlags); err != nil {
		return err
	}

	return tx.Commit()
}

// SetFeatureFlags replaces the flag set for a tenant.
// PRE: tenantID is non-empty, flags validated against the catalog upstream
// POST: tenant_feature rows match flags exactly
func (s *SQLiteStore) SetFeatureFlags(ctx context.Context, tenantID string, flags []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := replaceFlags(ctx, tx, tenantID, flags); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceFlags(ctx context.Context, tx *sql.Tx, tenantID string, flags []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM tenant_feature WHERE tenant_id = ?", tenantID); err != nil {
		return err
	}
	for _, f := range flags {
		if _, err := tx.ExecContext(ctx, "INSERT INTO tenant_feature (tenant_id, feature) VALUES (?, ?)", tenantID, f); err != nil {
			return err
		}
	}
	return nil
}

// SetSubscriptionStatus updates the denormalized status column.
// PRE: status is a valid subscription status
// POST: tenant row carries the new status
func (s *SQLiteStore) SetSubscriptionStatus(ctx context.Context, tenantID, status string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE tenant SET subscription_status = ? WHERE id = ?", status, tenantID)
	return err
}

// listWhereClause builds the WHERE clause and args for List/Count queries.
func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	if filter.Plan != "" {
		where += " AND plan = ?"
		args = append(args, filter.Plan)
	}
	if filter.Status != "" {
		where += " AND subscription_status = ?"
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		where += " AND name LIKE ?"
		args = append(args, "%"+filter.Search+"%")
	}
	return where, args
}

// sortClause returns a safe ORDER BY clause. Only allowed columns are accepted.
func sortClause(filter ListFilter) string {
	allowed := map[string]string{
		"name": "name", "plan": "plan",
		"status": "subscription_status", "created": "created_at",
	}
	col, ok := allowed[filter.Sort]
	if !ok {
		return " ORDER BY name ASC"
	}
	dir := "ASC"
	if filter.Dir == "desc" {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir
}

// Count returns the total number of tenants matching the filter.
// PRE: filter has valid parameters
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tenant"+where, args...).Scan(&count)
	return count, err
}

// List retrieves Tenants based on the filter. Flags are loaded per row.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Tenant, error) {
	where, args := listWhereClause(filter)
	query := "SELECT id, name, plan, subscription_status, created_at FROM tenant" + where
	query += sortClause(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Tenant
	for rows.Next() {
		var entity domain.Tenant
		var createdAt string
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.Plan, &entity.SubscriptionStatus, &createdAt); err != nil {
			return nil, err
		}
		entity.CreatedAt = storage.ParseTime(createdAt)
		results = append(results, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		flags, err := s.loadFlags(ctx, results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].FeatureFlags = flags
	}
	return results, nil
}
