package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"academyhub/internal/adapters/http/middleware"
	"academyhub/internal/application/orchestrators"
	"academyhub/internal/application/projections"
	"academyhub/internal/domain/actor"
	noticeDomain "academyhub/internal/domain/notice"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts announcement markdown to HTML, falling back to
// the raw text on renderer failure.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return md
	}
	return buf.String()
}

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON serializes v with the standard headers.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err.Error())
	}
}

// requireSession pulls the session from context, writing a 401 when absent.
func requireSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return sess, ok
}

// handleLogin authenticates credentials and issues a session cookie.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{AccountStore: stores.AccountStore})
	if err != nil {
		if errors.Is(err, orchestrators.ErrAccountLocked) {
			http.Error(w, "account locked, try again later", http.StatusForbidden)
			return
		}
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := sessions.Create(middleware.Session{
		AccountID: result.AccountID,
		Email:     result.Email,
		Role:      result.Role,
		StaffKind: result.StaffKind,
		TenantID:  result.TenantID,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)

	writeJSON(w, http.StatusOK, map[string]string{
		"accountId": result.AccountID,
		"email":     result.Email,
		"role":      result.Role,
		"tenantId":  result.TenantID,
	})
}

// handleLogout drops the server-side session and clears the cookie.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("academyhub_session"); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleNavigation returns the signed-in actor's navigation model.
func handleNavigation(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	model, err := projections.QueryGetNavigation(r.Context(), sess.AccountID, projections.GetNavigationDeps{
		Accounts: stores.AccountStore,
		Tenants:  stores.TenantStore,
		Billing:  stores.BillingStore,
		Now:      timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

// handleDashboard returns the role-appropriate dashboard: the platform
// fleet view for operators, the academy's own view for everyone else.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	deps := projections.GetDashboardDeps{
		Tenants:       stores.TenantStore,
		Subscriptions: stores.SubscriptionStore,
		Billing:       stores.BillingStore,
		Notices:       stores.NoticeStore,
		Now:           timeNow,
	}

	if sess.Role == actor.RolePlatformAdmin {
		dash, err := projections.QueryGetPlatformDashboard(r.Context(), deps)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dash)
		return
	}

	dash, err := projections.QueryGetAcademyDashboard(r.Context(), projections.GetAcademyDashboardInput{
		TenantID:  sess.TenantID,
		Role:      sess.Role,
		StaffKind: sess.StaffKind,
	}, deps)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// noticeView is an announcement with its markdown body rendered.
type noticeView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	BodyHTML    string    `json:"bodyHtml"`
	Audience    string    `json:"audience"`
	PublishedAt time.Time `json:"publishedAt"`
}

// handleNotices lists published announcements visible to the session's role.
func handleNotices(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	published, err := stores.NoticeStore.List(r.Context(), noticeDomain.StatusPublished)
	if err != nil {
		internalError(w, err)
		return
	}

	views := []noticeView{}
	for _, n := range published {
		if !n.VisibleTo(sess.Role, sess.StaffKind) {
			continue
		}
		views = append(views, noticeView{
			ID:          n.ID,
			Title:       n.Title,
			BodyHTML:    renderMarkdown(n.Body),
			Audience:    n.Audience,
			PublishedAt: n.PublishedAt,
		})
	}
	writeJSON(w, http.StatusOK, views)
}
