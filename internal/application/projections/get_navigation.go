package projections

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"academyhub/internal/domain/account"
	"academyhub/internal/domain/delinquency"
	"academyhub/internal/domain/feature"
	"academyhub/internal/domain/navigation"
	"academyhub/internal/domain/tenant"
)

// NavigationAccountStore defines the account store interface for navigation.
type NavigationAccountStore interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}

// NavigationTenantStore defines the tenant store interface for navigation.
type NavigationTenantStore interface {
	GetByID(ctx context.Context, id string) (tenant.Tenant, error)
}

// NavigationBillingStore supplies the delinquency snapshot behind the badge.
type NavigationBillingStore interface {
	Snapshot(ctx context.Context, tenantID string) ([]delinquency.Account, error)
	SnapshotAll(ctx context.Context) ([]delinquency.Account, error)
}

// GetNavigationDeps holds dependencies for the navigation projection.
type GetNavigationDeps struct {
	Accounts NavigationAccountStore
	Tenants  NavigationTenantStore
	Billing  NavigationBillingStore
	Now      func() time.Time
}

// QueryGetNavigation assembles the navigation model for one signed-in
// account: the role's base items, the tenant's feature-flagged items
// spliced in, and the delinquency badge for billing-facing roles.
//
// Resolution fails closed: if the tenant record cannot be loaded, the
// actor sees only the base items for their role and no optional modules.
// A billing snapshot failure zeroes the badge rather than failing the
// whole model; navigation must render even when billing is degraded.
// PRE: accountID names an existing account
// POST: Returns the ordered items and badge count for the actor
func QueryGetNavigation(ctx context.Context, accountID string, deps GetNavigationDeps) (navigation.Model, error) {
	acct, err := deps.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return navigation.Model{}, fmt.Errorf("load account: %w", err)
	}
	ac := acct.Actor()

	var enabled feature.Set
	if ac.TenantID != "" {
		t, err := deps.Tenants.GetByID(ctx, ac.TenantID)
		if err != nil {
			slog.Warn("navigation_tenant_load_failed", "tenant_id", ac.TenantID, "error", err.Error())
		} else {
			enabled = feature.Resolve(&t)
		}
	}

	model := navigation.Model{
		Items: navigation.Resolve(ac.Role, ac.StaffKind, enabled),
	}

	if ac.SeesBilling() {
		model.BadgeCount = badgeCount(ctx, ac.TenantID, deps)
	}
	return model, nil
}

// badgeCount counts delinquent accounts in the actor's billing scope.
func badgeCount(ctx context.Context, tenantID string, deps GetNavigationDeps) int {
	var (
		accounts []delinquency.Account
		err      error
	)
	if tenantID == "" {
		accounts, err = deps.Billing.SnapshotAll(ctx)
	} else {
		accounts, err = deps.Billing.Snapshot(ctx, tenantID)
	}
	if err != nil {
		slog.Warn("navigation_badge_snapshot_failed", "tenant_id", tenantID, "error", err.Error())
		return 0
	}
	return delinquency.Aggregate(accounts, deps.Now(), 0).Count
}
