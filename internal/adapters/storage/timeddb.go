package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"academyhub/internal/adapters/http/perf"
)

// SQLDB is what every store constructor accepts: the subset of *sql.DB
// the repositories actually call, so an instrumented wrapper can stand in
// for the raw connection.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// *sql.DB must keep satisfying SQLDB.
var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQueryMs is the warn threshold when no override is configured.
const DefaultSlowQueryMs = 50

var slowQueryMs int64
var slowQueryOnce sync.Once

// getSlowQueryThreshold resolves the slow-query threshold in
// milliseconds, honoring ACADEMYHUB_SLOW_QUERY_MS when set.
func getSlowQueryThreshold() float64 {
	slowQueryOnce.Do(func() {
		ms := DefaultSlowQueryMs
		if v := os.Getenv("ACADEMYHUB_SLOW_QUERY_MS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				ms = n
			}
		}
		atomic.StoreInt64(&slowQueryMs, int64(ms))
	})
	return float64(atomic.LoadInt64(&slowQueryMs))
}

// TimedDB times every statement against the slow-query threshold and
// feeds the perf collector. Stores take it through SQLDB and never know
// they are instrumented.
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	threshold float64
}

// *TimedDB must keep satisfying SQLDB.
var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps an open connection. A nil collector disables perf
// recording but keeps the slow-query logging.
// PRE: db is a valid database connection
// POST: Returns a TimedDB ready to hand to store constructors
func NewTimedDB(db *sql.DB, collector *perf.Collector) *TimedDB {
	return &TimedDB{
		db:        db,
		collector: collector,
		threshold: getSlowQueryThreshold(),
	}
}

// RawDB exposes the unwrapped connection for migrations and pool setup.
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

// logQuery reports one statement: WARN past the threshold, DEBUG below,
// plus a perf entry when a collector is wired.
func (t *TimedDB) logQuery(op string, start time.Time) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	if durationMs >= t.threshold {
		slog.Warn("slow_query",
			"op", op,
			"duration_ms", durationMs,
		)
	} else {
		slog.Debug("query",
			"op", op,
			"duration_ms", durationMs,
		)
	}

	if t.collector != nil {
		t.collector.Record(perf.Entry{
			Kind:       perf.KindQuery,
			Path:       op,
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
}

// ExecContext runs a write statement under timing.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, query, args...)
	t.logQuery("ExecContext", start)
	return result, err
}

// QueryContext runs a multi-row read under timing.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.logQuery("QueryContext", start)
	return rows, err
}

// QueryRowContext runs a single-row read under timing. The row is lazy,
// so the measured span covers statement dispatch, not the scan.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.logQuery("QueryRowContext", start)
	return row
}

// BeginTx opens a transaction under timing.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.logQuery("BeginTx", start)
	return tx, err
}

// Close shuts the underlying connection pool.
func (t *TimedDB) Close() error {
	return t.db.Close()
}

// Ping checks the database is reachable.
func (t *TimedDB) Ping() error {
	return t.db.Ping()
}

// SetMaxOpenConns forwards pool sizing to the wrapped connection.
func (t *TimedDB) SetMaxOpenConns(n int) {
	t.db.SetMaxOpenConns(n)
}

// SetMaxIdleConns forwards idle pool sizing to the wrapped connection.
func (t *TimedDB) SetMaxIdleConns(n int) {
	t.db.SetMaxIdleConns(n)
}
