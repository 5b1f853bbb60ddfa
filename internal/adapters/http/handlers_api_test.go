package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"academyhub/internal/adapters/http/middleware"
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
	accountDomain "academyhub/internal/domain/account"
	"academyhub/internal/domain/actor"
	noticeDomain "academyhub/internal/domain/notice"
)

// newTestHandler boots the full stack over an in-memory database.
func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tdb := storage.NewTimedDB(db, nil)
	s := &Stores{
		AccountStore:      accountStore.NewSQLiteStore(tdb),
		TenantStore:       tenantStore.NewSQLiteStore(tdb),
		SubscriptionStore: subscriptionStore.NewSQLiteStore(tdb),
		PaymentStore:      paymentStore.NewSQLiteStore(tdb),
		BillingStore:      billingStore.NewSQLiteStore(tdb),
		AuditStore:        auditStore.NewSQLiteStore(tdb),
		NoticeStore:       noticeStore.NewSQLiteStore(tdb),
		OutboxStore:       outboxStore.NewSQLiteStore(tdb),
	}

	RateLimitPerSecond = 1000
	return NewMux(s, orchestrators.NewTenantLocks(), perf.NewCollector(64))
}

// seedOperator creates a platform admin login and returns its session cookie.
func seedOperator(t *testing.T, handler http.Handler) *http.Cookie {
	t.Helper()

	acct := accountDomain.Account{
		ID:        "op-1",
		Email:     "root@academyhub.app",
		Role:      actor.RolePlatformAdmin,
		CreatedAt: time.Now(),
	}
	if err := acct.SetPassword("operator-password-1"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := stores.AccountStore.Save(context.Background(), acct); err != nil {
		t.Fatalf("save operator: %v", err)
	}

	body, _ := json.Marshal(map[string]string{
		"email":    "root@academyhub.app",
		"password": "operator-password-1",
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == "academyhub_session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

// doJSON issues a JSON request with the session cookie attached.
func doJSON(handler http.Handler, method, path string, cookie *http.Cookie, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestLoginBadCredentials(t *testing.T) {
	handler := newTestHandler(t)
	seedOperator(t, handler)

	rec := doJSON(handler, http.MethodPost, "/api/login", nil, map[string]string{
		"email":    "root@academyhub.app",
		"password": "not-the-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	handler := newTestHandler(t)

	for _, path := range []string{"/api/navigation", "/api/dashboard", "/api/admin/tenants"} {
		rec := doJSON(handler, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s anonymous status = %d, want 401", path, rec.Code)
		}
	}
}

func TestTenantLifecycleOverHTTP(t *testing.T) {
	handler := newTestHandler(t)
	cookie := seedOperator(t, handler)

	// Onboard an academy.
	rec := doJSON(handler, http.MethodPost, "/api/admin/tenants", cookie, map[string]any{
		"name":               "Harbour City Academy",
		"plan":               "standard",
		"featureFlags":       []string{"extra_lessons"},
		"monthlyAmountCents": 15000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create tenant status = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		TenantID string `json:"tenantId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	// The new academy shows up in the operator list.
	rec = doJSON(handler, http.MethodGet, "/api/admin/tenants", cookie, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list tenants status = %d", rec.Code)
	}
	var list struct {
		Tenants  []map[string]any `json:"tenants"`
		PageInfo struct {
			Total int `json:"total"`
		} `json:"pageInfo"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if list.PageInfo.Total != 1 {
		t.Errorf("total = %d, want 1", list.PageInfo.Total)
	}

	// Cancelling twice: first succeeds, second conflicts.
	rec = doJSON(handler, http.MethodPost, "/api/admin/tenants/"+created.TenantID+"/cancel", cookie, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(handler, http.MethodPost, "/api/admin/tenants/"+created.TenantID+"/cancel", cookie, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second cancel status = %d, want 409", rec.Code)
	}

	// Reactivation opens a fresh period.
	rec = doJSON(handler, http.MethodPost, "/api/admin/tenants/"+created.TenantID+"/reactivate", cookie, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reactivate status = %d: %s", rec.Code, rec.Body.String())
	}
	var reactivated struct {
		Period int `json:"period"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &reactivated); err != nil {
		t.Fatalf("decode reactivate response: %v", err)
	}
	if reactivated.Period != 2 {
		t.Errorf("period = %d, want 2", reactivated.Period)
	}

	// The audit trail recorded the whole session.
	rec = doJSON(handler, http.MethodGet, "/api/admin/audit", cookie, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit status = %d", rec.Code)
	}
	var events []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode audit response: %v", err)
	}
	if len(events) < 3 {
		t.Errorf("audit events = %d, want at least create+cancel+reactivate", len(events))
	}
}

func TestNavigationOverHTTP(t *testing.T) {
	handler := newTestHandler(t)
	cookie := seedOperator(t, handler)

	rec := doJSON(handler, http.MethodGet, "/api/navigation", cookie, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("navigation status = %d", rec.Code)
	}
	var model struct {
		Items []struct {
			TargetPath string `json:"targetPath"`
		} `json:"items"`
		BadgeCount int `json:"badgeCount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &model); err != nil {
		t.Fatalf("decode navigation: %v", err)
	}
	if len(model.Items) == 0 {
		t.Fatal("no navigation items for platform admin")
	}
	if model.Items[0].TargetPath != "/overview" {
		t.Errorf("first item = %q, want /overview", model.Items[0].TargetPath)
	}
}

func TestNoticePublishFlow(t *testing.T) {
	handler := newTestHandler(t)
	cookie := seedOperator(t, handler)

	rec := doJSON(handler, http.MethodPost, "/api/admin/notices", cookie, map[string]string{
		"title":    "Term fees rise in October",
		"body":     "**Heads up:** fees change next term.",
		"audience": noticeDomain.AudienceEveryone,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create notice status = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}

	// Draft is invisible on the public list.
	rec = doJSON(handler, http.MethodGet, "/api/notices", cookie, nil)
	var visible []noticeView
	if err := json.Unmarshal(rec.Body.Bytes(), &visible); err != nil {
		t.Fatalf("decode notices: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("draft visible before publish: %+v", visible)
	}

	rec = doJSON(handler, http.MethodPost, "/api/admin/notices/"+created.ID+"/publish", cookie, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(handler, http.MethodGet, "/api/notices", cookie, nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &visible); err != nil {
		t.Fatalf("decode notices: %v", err)
	}
	if len(visible) != 1 {
		t.Fatalf("visible notices = %d, want 1", len(visible))
	}
	if visible[0].BodyHTML == "" || visible[0].BodyHTML == "**Heads up:** fees change next term." {
		t.Errorf("markdown not rendered: %q", visible[0].BodyHTML)
	}
}

func TestRoleGuardOnAdminRoutes(t *testing.T) {
	handler := newTestHandler(t)
	seedOperator(t, handler)

	// A student session must not reach operator endpoints.
	token, err := sessions.Create(middleware.Session{
		AccountID: "stu-1",
		Email:     "kid@harbour.test",
		Role:      actor.RoleStudent,
		TenantID:  "ten-1",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	cookie := &http.Cookie{Name: "academyhub_session", Value: token}

	rec := doJSON(handler, http.MethodGet, "/api/admin/tenants", cookie, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("admin list status = %d, want 403", rec.Code)
	}
	rec = doJSON(handler, http.MethodGet, "/api/billing/delinquency", cookie, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("delinquency status = %d, want 403", rec.Code)
	}
}
