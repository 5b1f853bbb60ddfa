package web

import (
	"net/http"

	"academyhub/internal/adapters/http/middleware"
	"academyhub/internal/domain/actor"
)

// requireBilling blocks sessions whose role has no billing surface. Staff
// access depends on staff kind, which RequireRole cannot express.
func requireBilling(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.GetSessionFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !sess.SeesBilling() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// registerRoutes binds every endpoint to its handler with its guard.
func registerRoutes(mux *http.ServeMux) {
	platformOnly := middleware.RequireRole(actor.RolePlatformAdmin)
	adminRoles := middleware.RequireRole(actor.RolePlatformAdmin, actor.RoleAcademyAdmin)

	guard := func(pattern string, mw func(http.Handler) http.Handler, h http.HandlerFunc) {
		mux.Handle(pattern, mw(h))
	}

	mux.HandleFunc("POST /api/login", handleLogin)
	mux.HandleFunc("POST /api/logout", handleLogout)

	guard("GET /api/navigation", middleware.RequireAuth, handleNavigation)
	guard("GET /api/dashboard", middleware.RequireAuth, handleDashboard)
	guard("GET /api/notices", middleware.RequireAuth, handleNotices)

	guard("GET /api/billing/delinquency", requireBilling, handleDelinquencyReport)
	guard("POST /api/billing/installments", adminRoles, handleGenerateInstallments)
	guard("POST /api/billing/payments/{id}/settle", adminRoles, handleSettleInstallment)

	guard("GET /api/admin/tenants", platformOnly, handleListTenants)
	guard("POST /api/admin/tenants", platformOnly, handleCreateTenant)
	guard("PUT /api/admin/tenants/{id}/features", platformOnly, handleUpdateFeatures)
	guard("POST /api/admin/tenants/{id}/payment", platformOnly, handleApplyPayment)
	guard("POST /api/admin/tenants/{id}/cancel", platformOnly, handleCancelSubscription)
	guard("POST /api/admin/tenants/{id}/reactivate", platformOnly, handleReactivateSubscription)

	guard("POST /api/admin/accounts", platformOnly, handleCreateAccount)
	guard("GET /api/admin/audit", platformOnly, handleListAudit)

	guard("GET /api/admin/notices", platformOnly, handleAdminListNotices)
	guard("POST /api/admin/notices", platformOnly, handleCreateNotice)
	guard("POST /api/admin/notices/{id}/publish", platformOnly, handlePublishNotice)
	guard("DELETE /api/admin/notices/{id}", platformOnly, handleDeleteNotice)

	guard("GET /api/admin/outbox", platformOnly, handleListOutbox)
	guard("POST /api/admin/outbox/{id}/retry", platformOnly, handleRetryOutboxEntry)
	guard("POST /api/admin/outbox/{id}/abandon", platformOnly, handleAbandonOutboxEntry)

	guard("POST /api/admin/sweep", platformOnly, handleRunSweep)
	guard("GET /api/admin/perf", platformOnly, handlePerfSnapshot)
}
