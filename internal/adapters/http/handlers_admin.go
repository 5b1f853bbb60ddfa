package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	auditStore "academyhub/internal/adapters/storage/audit"
	tenantStore "academyhub/internal/adapters/storage/tenant"
	"academyhub/internal/application/listutil"
	"academyhub/internal/application/orchestrators"
	noticeDomain "academyhub/internal/domain/notice"
)

// tenantSortColumns are the whitelisted sort keys for the tenant list.
var tenantSortColumns = []string{"name", "plan", "status", "created"}

// tenantFilterKeys are the recognized exact-match filters.
var tenantFilterKeys = []string{"plan", "status"}

// handleListTenants serves the paginated academy list for the operator console.
func handleListTenants(w http.ResponseWriter, r *http.Request) {
	lp := listutil.ParseListParams(r.URL.Query(), tenantSortColumns, tenantFilterKeys)

	filter := tenantStore.ListFilter{
		Limit:  lp.PerPage,
		Offset: lp.Offset(),
		Plan:   lp.Filters["plan"],
		Status: lp.Filters["status"],
		Search: lp.Search,
		Sort:   lp.Sort,
		Dir:    lp.Dir,
	}

	total, err := stores.TenantStore.Count(r.Context(), filter)
	if err != nil {
		internalError(w, err)
		return
	}
	tenants, err := stores.TenantStore.List(r.Context(), filter)
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenants":  tenants,
		"pageInfo": listutil.NewPageInfo(lp.Page, lp.PerPage, total),
	})
}

// handleCreateTenant onboards a new academy.
func handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Name               string   `json:"name"`
		Plan               string   `json:"plan"`
		FeatureFlags       []string `json:"featureFlags"`
		MonthlyAmountCents int64    `json:"monthlyAmountCents"`
		ToleranceDays      int      `json:"toleranceDays"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteCreateTenant(r.Context(), orchestrators.CreateTenantInput{
		Name:               req.Name,
		Plan:               req.Plan,
		FeatureFlags:       req.FeatureFlags,
		MonthlyAmountCents: req.MonthlyAmountCents,
		ToleranceDays:      req.ToleranceDays,
		ActorID:            sess.AccountID,
	}, orchestrators.CreateTenantDeps{
		Tenants:       stores.TenantStore,
		Subscriptions: stores.SubscriptionStore,
		Audits:        stores.AuditStore,
		Now:           timeNow,
		GenerateID:    generateID,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"tenantId":       result.TenantID,
		"subscriptionId": result.SubscriptionID,
		"nextDueDate":    result.NextDueDate,
	})
}

// handleUpdateFeatures replaces a tenant's enabled feature flags.
func handleUpdateFeatures(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req struct {
		FeatureFlags []string `json:"featureFlags"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := orchestrators.ExecuteUpdateFeatures(r.Context(), orchestrators.UpdateFeaturesInput{
		TenantID:     r.PathValue("id"),
		FeatureFlags: req.FeatureFlags,
		ActorID:      sess.AccountID,
	}, orchestrators.UpdateFeaturesDeps{
		Tenants: stores.TenantStore,
		Audits:  stores.AuditStore,
		Now:     timeNow,
	})
	if err != nil {
		if errors.Is(err, orchestrators.ErrUnknownFeature) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateAccount creates a console login.
func handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		Role      string `json:"role"`
		StaffKind string `json:"staffKind"`
		TenantID  string `json:"tenantId"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteCreateAccount(r.Context(), orchestrators.CreateAccountInput{
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		StaffKind: req.StaffKind,
		TenantID:  req.TenantID,
		ActorID:   sess.AccountID,
	}, orchestrators.CreateAccountDeps{
		Accounts:   stores.AccountStore,
		Audits:     stores.AuditStore,
		Now:        timeNow,
		GenerateID: generateID,
	})
	if err != nil {
		if errors.Is(err, orchestrators.ErrEmailTaken) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"accountId": result.AccountID})
}

// handleListAudit serves the audit trail, newest first.
func handleListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := auditStore.ListFilter{
		TenantID: q.Get("tenantId"),
		Category: q.Get("category"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	events, err := stores.AuditStore.List(r.Context(), filter)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handleAdminListNotices lists announcements in any status for management.
func handleAdminListNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := stores.NoticeStore.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notices)
}

// handleCreateNotice drafts a new announcement.
func handleCreateNotice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string `json:"title"`
		Body     string `json:"body"`
		Audience string `json:"audience"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	n := noticeDomain.Notice{
		ID:        generateID(),
		Title:     req.Title,
		Body:      req.Body,
		Audience:  req.Audience,
		Status:    noticeDomain.StatusDraft,
		CreatedAt: timeNow(),
	}
	if err := n.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := stores.NoticeStore.Save(r.Context(), n); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": n.ID})
}

// handlePublishNotice transitions a draft announcement to published.
func handlePublishNotice(w http.ResponseWriter, r *http.Request) {
	n, err := stores.NoticeStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, "announcement not found", http.StatusNotFound)
		return
	}
	if err := n.Publish(timeNow()); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err := stores.NoticeStore.Save(r.Context(), n); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": n.ID, "publishedAt": n.PublishedAt})
}

// handleDeleteNotice removes an announcement.
func handleDeleteNotice(w http.ResponseWriter, r *http.Request) {
	if err := stores.NoticeStore.Delete(r.Context(), r.PathValue("id")); err != nil {
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListOutbox lists outbox entries still eligible for delivery.
func handleListOutbox(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := stores.OutboxStore.ListRetryable(r.Context(), limit)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleRetryOutboxEntry forces an immediate delivery attempt.
func handleRetryOutboxEntry(w http.ResponseWriter, r *http.Request) {
	if dunningProcessor == nil {
		http.Error(w, "outbox processing unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := dunningProcessor.ProcessSingle(r.Context(), r.PathValue("id")); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAbandonOutboxEntry parks an entry permanently.
func handleAbandonOutboxEntry(w http.ResponseWriter, r *http.Request) {
	if dunningProcessor == nil {
		http.Error(w, "outbox processing unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := dunningProcessor.AbandonEntry(r.Context(), r.PathValue("id")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRunSweep triggers a lifecycle pass immediately instead of waiting
// for the scheduler tick.
func handleRunSweep(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	result, err := orchestrators.ExecuteLifecycleSweep(ctx, orchestrators.LifecycleSweepDeps{
		Subscriptions: stores.SubscriptionStore,
		Tenants:       stores.TenantStore,
		Audits:        stores.AuditStore,
		Outbox:        stores.OutboxStore,
		Accounts:      stores.AccountStore,
		Locks:         tenantLocks,
		Collector:     perfCollector,
		Now:           timeNow,
		GenerateID:    generateID,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"evaluated":     result.Evaluated,
		"transitioned":  result.Transitioned,
		"skipped":       result.Skipped,
		"dunningQueued": result.DunningQueued,
	})
}

// handlePerfSnapshot serves the in-process performance dashboard data.
func handlePerfSnapshot(w http.ResponseWriter, r *http.Request) {
	since := time.Time{}
	if v := r.URL.Query().Get("minutes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			since = timeNow().Add(-time.Duration(n) * time.Minute)
		}
	}
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, 10))
}
