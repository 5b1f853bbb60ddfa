package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"academyhub/internal/adapters/email"
	"academyhub/internal/adapters/http/middleware"
	"academyhub/internal/adapters/http/perf"
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

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore      accountStore.Store
	TenantStore       tenantStore.Store
	SubscriptionStore subscriptionStore.Store
	PaymentStore      paymentStore.Store
	BillingStore      billingStore.Store
	AuditStore        auditStore.Store
	NoticeStore       noticeStore.Store
	OutboxStore       outboxStore.Store
}

// loadCSRFKey reads the CSRF secret from ACADEMYHUB_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("ACADEMYHUB_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("ACADEMYHUB_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("ACADEMYHUB_ENV") == "production" {
		log.Fatal("ACADEMYHUB_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (sessions won't survive restart). Set ACADEMYHUB_CSRF_KEY for production.")
	return key
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global per-tenant lock table shared with the background sweep.
var tenantLocks *orchestrators.TenantLocks

// Global dunning processor for operator retries (set by SetDunningProcessor)
var dunningProcessor *orchestrators.DunningProcessor

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// SetEmailSender sets the global email sender for the application.
func SetEmailSender(sender email.Sender) {
	emailSender = sender
}

// SetDunningProcessor wires the outbox processor used by the operator
// retry and abandon endpoints.
func SetDunningProcessor(p *orchestrators.DunningProcessor) {
	dunningProcessor = p
}

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, locks *orchestrators.TenantLocks, collector *perf.Collector) http.Handler {
	stores = s
	perfCollector = collector
	tenantLocks = locks
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = os.Getenv("ACADEMYHUB_ENV") == "production"

	mux := http.NewServeMux()
	registerRoutes(mux)

	// CSRF key: 32-byte hex-encoded secret from env var
	csrfKey := loadCSRFKey()

	trustedOrigins := []string{"localhost:8080", "127.0.0.1:8080"}
	if v := os.Getenv("ACADEMYHUB_TRUSTED_ORIGINS"); v != "" {
		trustedOrigins = strings.Split(v, ",")
	}

	// Rate limiter: configurable requests per second per IP
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, trustedOrigins),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	)
}
