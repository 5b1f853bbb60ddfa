package storage

import (
	"database/sql"
	"fmt"
)

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Create tables
	schema := `
	CREATE TABLE IF NOT EXISTS tenant (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		plan TEXT NOT NULL,
		subscription_status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tenant_feature (
		tenant_id TEXT NOT NULL,
		feature TEXT NOT NULL,
		PRIMARY KEY (tenant_id, feature),
		FOREIGN KEY (tenant_id) REFERENCES tenant(id)
	);

	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		staff_kind TEXT NOT NULL DEFAULT '',
		tenant_id TEXT,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE TABLE IF NOT EXISTS subscription (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL UNIQUE,
		period INTEGER NOT NULL DEFAULT 1,
		status TEXT NOT NULL,
		monthly_amount_cents INTEGER NOT NULL,
		last_payment_date TEXT,
		next_due_date TEXT,
		tolerance_days INTEGER NOT NULL DEFAULT 14,
		period_start TEXT NOT NULL,
		carried_forward_cents INTEGER NOT NULL DEFAULT 0,
		cancelled_at TEXT,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (tenant_id) REFERENCES tenant(id)
	);

	CREATE TABLE IF NOT EXISTS subscription_period (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		period INTEGER NOT NULL,
		period_start TEXT NOT NULL,
		carried_forward_cents INTEGER NOT NULL DEFAULT 0,
		opened_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (tenant_id) REFERENCES tenant(id)
	);

	CREATE TABLE IF NOT EXISTS payment (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		due_date TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		paid_date TEXT,
		amount_paid_cents INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (tenant_id) REFERENCES tenant(id)
	);

	CREATE TABLE IF NOT EXISTS billing_account (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		subscription_start TEXT NOT NULL,
		last_payment_date TEXT,
		FOREIGN KEY (tenant_id) REFERENCES tenant(id)
	);

	CREATE TABLE IF NOT EXISTS audit_event (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		category TEXT NOT NULL,
		action TEXT NOT NULL,
		severity TEXT NOT NULL,
		actor_id TEXT NOT NULL DEFAULT '',
		tenant_id TEXT NOT NULL DEFAULT '',
		resource_type TEXT NOT NULL DEFAULT '',
		resource_id TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS notice (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		audience TEXT NOT NULL,
		status TEXT NOT NULL,
		published_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		tenant_id TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT,
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_payment_account ON payment(account_id);
	CREATE INDEX IF NOT EXISTS idx_payment_tenant ON payment(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_billing_account_tenant ON billing_account(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_audit_tenant ON audit_event(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
