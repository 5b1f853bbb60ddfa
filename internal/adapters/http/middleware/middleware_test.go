package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"academyhub/internal/adapters/http/perf"
	"academyhub/internal/domain/actor"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionRoundTrip(t *testing.T) {
	ss := NewSessionStore()
	token, err := ss.Create(Session{
		AccountID: "acct-1",
		Email:     "admin@harbour.test",
		Role:      actor.RoleAcademyAdmin,
		TenantID:  "ten-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	session, ok := ss.Get(token)
	if !ok {
		t.Fatal("session not found after create")
	}
	if session.AccountID != "acct-1" || session.TenantID != "ten-1" {
		t.Errorf("session = %+v", session)
	}

	ss.Delete(token)
	if _, ok := ss.Get(token); ok {
		t.Error("session still readable after delete")
	}
}

func TestSessionExpiry(t *testing.T) {
	ss := NewSessionStore()
	token, _ := ss.Create(Session{AccountID: "acct-1", Role: actor.RoleStudent})

	// Age the session past the 24 hour window.
	ss.mu.Lock()
	s := ss.sessions[token]
	s.CreatedAt = time.Now().Add(-25 * time.Hour)
	ss.sessions[token] = s
	ss.mu.Unlock()

	if _, ok := ss.Get(token); ok {
		t.Error("expired session still valid")
	}
}

func TestAuthSetsSessionFromCookie(t *testing.T) {
	ss := NewSessionStore()
	token, _ := ss.Create(Session{AccountID: "acct-1", Role: actor.RoleGuardian, TenantID: "ten-1"})

	var got Session
	var found bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = GetSessionFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "academyhub_session", Value: token})
	Auth(ss)(inner).ServeHTTP(httptest.NewRecorder(), req)

	if !found || got.AccountID != "acct-1" {
		t.Errorf("session in context = %+v found=%v", got, found)
	}
}

func TestRequireAuthBlocksAnonymous(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireAuth(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/billing", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(actor.RolePlatformAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/academies", nil)
	req = req.WithContext(ContextWithSession(req.Context(), Session{
		AccountID: "acct-1", Role: actor.RoleStudent, TenantID: "ten-1",
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("student status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/academies", nil)
	req = req.WithContext(ContextWithSession(req.Context(), Session{
		AccountID: "acct-2", Role: actor.RolePlatformAdmin,
	}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("platform admin status = %d, want 200", rec.Code)
	}
}

func TestRateLimiterExhaustion(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d denied inside limit", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("request allowed past limit")
	}
	// A different IP has its own bucket.
	if !rl.Allow("10.0.0.2") {
		t.Error("second IP denied")
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, header := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rec.Header().Get(header) == "" {
			t.Errorf("%s not set", header)
		}
	}
}

func TestTimingRecordsEntry(t *testing.T) {
	collector := perf.NewCollector(16)
	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/billing/payments", nil))

	snap := collector.Snapshot(time.Time{}, 10)
	if snap.TotalRequests != 1 {
		t.Fatalf("TotalRequests = %d, want 1", snap.TotalRequests)
	}
}

func TestTimingSkipsPerfEndpoint(t *testing.T) {
	collector := perf.NewCollector(16)
	handler := Timing(collector)(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/admin/perf", nil))

	if snap := collector.Snapshot(time.Time{}, 10); snap.TotalRequests != 0 {
		t.Errorf("TotalRequests = %d, want 0 for the perf snapshot endpoint", snap.TotalRequests)
	}
}
