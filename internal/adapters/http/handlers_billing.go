package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"academyhub/internal/application/orchestrators"
	"academyhub/internal/application/projections"
	"academyhub/internal/domain/actor"
	"academyhub/internal/domain/subscription"
)

// handleDelinquencyReport serves the on-demand delinquency report.
// Platform admins may scope to any tenant via ?tenantId= or omit it for the
// platform-wide view; everyone else is pinned to their own tenant.
func handleDelinquencyReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	tenantID := sess.TenantID
	if sess.Role == actor.RolePlatformAdmin {
		tenantID = r.URL.Query().Get("tenantId")
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	report, err := projections.QueryGetDelinquencyReport(r.Context(), projections.GetDelinquencyReportInput{
		TenantID: tenantID,
		Limit:    limit,
	}, projections.GetDelinquencyReportDeps{
		Billing: stores.BillingStore,
		Now:     timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// subscriptionCommandError maps state machine rejections to HTTP statuses.
func subscriptionCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, subscription.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, subscription.ErrInsufficientAmount):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, subscription.ErrZeroTime):
		internalError(w, err)
	default:
		internalError(w, err)
	}
}

// handleApplyPayment records a subscription payment for a tenant.
func handleApplyPayment(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req struct {
		AmountCents int64 `json:"amountCents"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteApplyPayment(r.Context(), orchestrators.ApplyPaymentInput{
		TenantID:    r.PathValue("id"),
		AmountCents: req.AmountCents,
		ActorID:     sess.AccountID,
	}, orchestrators.ApplyPaymentDeps{
		Subscriptions: stores.SubscriptionStore,
		Tenants:       stores.TenantStore,
		Audits:        stores.AuditStore,
		Locks:         tenantLocks,
		Now:           timeNow,
	})
	if err != nil {
		subscriptionCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      result.Status,
		"nextDueDate": result.NextDueDate,
	})
}

// handleCancelSubscription cancels a tenant's subscription.
func handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	result, err := orchestrators.ExecuteCancelSubscription(r.Context(), orchestrators.CancelSubscriptionInput{
		TenantID: r.PathValue("id"),
		ActorID:  sess.AccountID,
	}, orchestrators.CancelSubscriptionDeps{
		Subscriptions: stores.SubscriptionStore,
		Tenants:       stores.TenantStore,
		Audits:        stores.AuditStore,
		Locks:         tenantLocks,
		Now:           timeNow,
	})
	if err != nil {
		subscriptionCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cancelledAt":      result.CancelledAt,
		"outstandingCents": result.OutstandingCents,
	})
}

// handleReactivateSubscription reopens a tenant's subscription in a new
// billing period with the outstanding balance carried forward.
func handleReactivateSubscription(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	result, err := orchestrators.ExecuteReactivateSubscription(r.Context(), orchestrators.ReactivateSubscriptionInput{
		TenantID: r.PathValue("id"),
		ActorID:  sess.AccountID,
	}, orchestrators.ReactivateSubscriptionDeps{
		Subscriptions: stores.SubscriptionStore,
		Tenants:       stores.TenantStore,
		Audits:        stores.AuditStore,
		Locks:         tenantLocks,
		Now:           timeNow,
		GenerateID:    generateID,
	})
	if err != nil {
		subscriptionCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period":              result.Period,
		"periodStart":         result.PeriodStart,
		"nextDueDate":         result.NextDueDate,
		"carriedForwardCents": result.CarriedForwardCents,
	})
}

// handleGenerateInstallments runs a billing day for one tenant's roster.
// Academy admins bill their own tenant; platform admins name any tenant.
func handleGenerateInstallments(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req struct {
		TenantID    string    `json:"tenantId"`
		DueDate     time.Time `json:"dueDate"`
		AmountCents int64     `json:"amountCents"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	tenantID := sess.TenantID
	if sess.Role == actor.RolePlatformAdmin {
		tenantID = req.TenantID
	}
	if tenantID == "" {
		http.Error(w, "tenantId is required", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteGenerateInstallments(r.Context(), orchestrators.GenerateInstallmentsInput{
		TenantID:    tenantID,
		DueDate:     req.DueDate,
		AmountCents: req.AmountCents,
		ActorID:     sess.AccountID,
	}, orchestrators.GenerateInstallmentsDeps{
		Payments:   stores.PaymentStore,
		Billing:    stores.BillingStore,
		Audits:     stores.AuditStore,
		Now:        timeNow,
		GenerateID: generateID,
	})
	if err != nil {
		if errors.Is(err, subscription.ErrZeroTime) {
			http.Error(w, "dueDate is required", http.StatusBadRequest)
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"created": result.Created,
		"existed": result.Existed,
	})
}

// handleSettleInstallment marks one installment paid.
func handleSettleInstallment(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req struct {
		AmountCents int64 `json:"amountCents"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := orchestrators.ExecuteRecordInstallmentPayment(r.Context(), orchestrators.RecordInstallmentPaymentInput{
		PaymentID:   r.PathValue("id"),
		AmountCents: req.AmountCents,
		ActorID:     sess.AccountID,
	}, orchestrators.RecordInstallmentPaymentDeps{
		Payments: stores.PaymentStore,
		Billing:  stores.BillingStore,
		Audits:   stores.AuditStore,
		Now:      timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
