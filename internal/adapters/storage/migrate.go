package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// migration is one step in the schema upgrade chain. Steps run inside a
// transaction in version order; each step must be re-runnable on a database
// that already has its tables (IF NOT EXISTS).
type migration struct {
	version int
	name    string
	apply   func(tx *sql.Tx) error
}

var migrations = []migration{
	{version: 1, name: "baseline", apply: migrateBaseline},
}

// LatestSchemaVersion returns the highest migration version known to this build.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the current schema version of db.
// Returns 0 when the schema_version table does not exist yet.
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to probe schema_version: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var version int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// MigrateDB brings db up to the latest schema version. A pre-upgrade backup
// of the database file is written next to dbPath before any step runs,
// except for in-memory databases.
// PRE: db is a valid database connection
// POST: schema at LatestSchemaVersion, WAL and foreign keys enabled
func MigrateDB(db *sql.DB, dbPath string) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}

	if err := backupFile(dbPath); err != nil {
		return fmt.Errorf("failed to back up database before migration: %w", err)
	}

	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)"); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: begin: %w", m.version, err)
		}
		if err := m.apply(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
			m.version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: record version: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", m.version, err)
		}
		slog.Info("migration_applied", "version", m.version, "name", m.name)
	}

	return nil
}

// backupFile copies the database file to <path>.bak.<timestamp>.
// In-memory and missing files are skipped.
func backupFile(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	dst := fmt.Sprintf("%s.bak.%s", path, time.Now().UTC().Format("20060102T150405"))
	return os.WriteFile(dst, src, 0o600)
}

// migrateBaseline creates the full schema. Kept in lockstep with InitDB so
// fresh installs and migrated installs converge on the same tables.
func migrateBaseline(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tenant (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			plan TEXT NOT NULL,
			subscription_status TEXT NOT NULL DEFAULT 'active',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tenant_feature (
			tenant_id TEXT NOT NULL,
			feature TEXT NOT NULL,
			PRIMARY KEY (tenant_id, feature),
			FOREIGN KEY (tenant_id) REFERENCES tenant(id)
		)`,
		`CREATE TABLE IF NOT EXISTS account (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			staff_kind TEXT NOT NULL DEFAULT '',
			tenant_id TEXT,
			created_at TEXT NOT NULL,
			failed_logins INTEGER NOT NULL DEFAULT 0,
			locked_until TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS subscription (
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
		)`,
		`CREATE TABLE IF NOT EXISTS subscription_period (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			period INTEGER NOT NULL,
			period_start TEXT NOT NULL,
			carried_forward_cents INTEGER NOT NULL DEFAULT 0,
			opened_by TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			FOREIGN KEY (tenant_id) REFERENCES tenant(id)
		)`,
		`CREATE TABLE IF NOT EXISTS payment (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			tenant_id TEXT NOT NULL,
			due_date TEXT NOT NULL,
			amount_cents INTEGER NOT NULL,
			paid_date TEXT,
			amount_paid_cents INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (tenant_id) REFERENCES tenant(id)
		)`,
		`CREATE TABLE IF NOT EXISTS billing_account (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			subscription_start TEXT NOT NULL,
			last_payment_date TEXT,
			FOREIGN KEY (tenant_id) REFERENCES tenant(id)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_event (
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
		)`,
		`CREATE TABLE IF NOT EXISTS notice (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			audience TEXT NOT NULL,
			status TEXT NOT NULL,
			published_at TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outbox (
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
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_account ON payment(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_tenant ON payment(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_billing_account_tenant ON billing_account(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_tenant ON audit_event(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
