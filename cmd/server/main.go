package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	emailPkg "academyhub/internal/adapters/email"
	web "academyhub/internal/adapters/http"
	"academyhub/internal/adapters/http/perf"
	"academyhub/internal/adapters/storage"
	accountStore "academyhub/internal/adapters/storage/account"
	auditStore "academyhub/internal/adapters/storage/audit"
	billingStore "academyhub/internal/adapters/storage/billing"
	noticeStore "academyhub/internal/adapters/storage/notice"
	outboxStore "academyhub/internal/adapters/storage/outbox"
	paymentStore "academyhub/internal/adapters/storage/payment"
	subscriptionStore "academyhub/internal/adapters/storage/subscription"
	tenantStore "academyhub/internal/adapters/storage/tenant"
	"academyhub/internal/application/orchestrators"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dbPath := envOrDefault("ACADEMYHUB_DB_PATH", "academyhub.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	if err := storage.MigrateDB(db, dbPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	acctStore := accountStore.NewSQLiteStore(timedDB)
	tenStore := tenantStore.NewSQLiteStore(timedDB)
	obxStore := outboxStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		AccountStore:      acctStore,
		TenantStore:       tenStore,
		SubscriptionStore: subscriptionStore.NewSQLiteStore(timedDB),
		PaymentStore:      paymentStore.NewSQLiteStore(timedDB),
		BillingStore:      billingStore.NewSQLiteStore(timedDB),
		AuditStore:        auditStore.NewSQLiteStore(timedDB),
		NoticeStore:       noticeStore.NewSQLiteStore(timedDB),
		OutboxStore:       obxStore,
	}

	// Bootstrap the platform admin account if it does not exist
	adminEmail := envOrDefault("ACADEMYHUB_ADMIN_EMAIL", "admin@academyhub.local")
	adminPassword := os.Getenv("ACADEMYHUB_ADMIN_PASSWORD")
	if adminPassword == "" {
		if os.Getenv("ACADEMYHUB_ENV") == "production" {
			log.Fatal("ACADEMYHUB_ADMIN_PASSWORD must be set in production")
		}
		adminPassword = "dev-password"
		log.Println("WARNING: ACADEMYHUB_ADMIN_PASSWORD not set, using dev default")
	}
	seedDeps := orchestrators.SeedPlatformAdminDeps{Accounts: acctStore, Now: time.Now, GenerateID: uuid.NewString}
	if err := orchestrators.EnsurePlatformAdmin(context.Background(), adminEmail, adminPassword, seedDeps); err != nil {
		log.Fatalf("failed to seed platform admin: %v", err)
	}

	// Configure email sender for dunning notices
	resendKey := os.Getenv("ACADEMYHUB_RESEND_KEY")
	emailFrom := envOrDefault("ACADEMYHUB_RESEND_FROM", "AcademyHub Billing <billing@academyhub.app>")
	var sender emailPkg.Sender
	if resendKey != "" {
		sender = emailPkg.NewResendSender(resendKey, emailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if os.Getenv("ACADEMYHUB_ENV") == "production" {
			log.Println("WARNING: ACADEMYHUB_RESEND_KEY is not set, dunning delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop, set ACADEMYHUB_RESEND_KEY for real delivery)")
		}
	}
	web.SetEmailSender(sender)

	// Background dunning worker drains the outbox on an interval
	dunningStopCh := make(chan struct{})
	processor := orchestrators.NewDunningProcessor(obxStore, tenStore, sender, time.Now)
	web.SetDunningProcessor(processor)
	orchestrators.StartDunningWorker(processor, 1*time.Minute, dunningStopCh)
	defer close(dunningStopCh)

	// Background lifecycle scheduler advances subscription state daily
	locks := orchestrators.NewTenantLocks()
	sweepStopCh := make(chan struct{})
	sweepDeps := orchestrators.LifecycleSweepDeps{
		Subscriptions: stores.SubscriptionStore,
		Tenants:       tenStore,
		Audits:        stores.AuditStore,
		Outbox:        obxStore,
		Accounts:      acctStore,
		Locks:         locks,
		Collector:     collector,
		Now:           time.Now,
		GenerateID:    uuid.NewString,
	}
	sweepInterval := 24 * time.Hour
	if v := os.Getenv("ACADEMYHUB_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			sweepInterval = d
		}
	}
	orchestrators.StartLifecycleScheduler(sweepDeps, sweepInterval, sweepStopCh)
	defer close(sweepStopCh)

	mux := web.NewMux(stores, locks, collector)

	addr := envOrDefault("ACADEMYHUB_ADDR", ":8080")
	log.Printf("AcademyHub %s starting on %s (env=%s, schema=%d)", version, addr, envOrDefault("ACADEMYHUB_ENV", "development"), storage.LatestSchemaVersion())

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
