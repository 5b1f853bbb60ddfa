package projections

import (
	"context"
	"fmt"
	"time"

	tenantStore "academyhub/internal/adapters/storage/tenant"
	"academyhub/internal/domain/delinquency"
	"academyhub/internal/domain/notice"
	"academyhub/internal/domain/subscription"
	"academyhub/internal/domain/tenant"
)

// topDebtorLimit caps the debtor list shown on dashboards; the full report
// stays available through the delinquency projection.
const topDebtorLimit = 5

// DashboardTenantStore defines the tenant store interface for dashboards.
type DashboardTenantStore interface {
	GetByID(ctx context.Context, id string) (tenant.Tenant, error)
	List(ctx context.Context, filter tenantStore.ListFilter) ([]tenant.Tenant, error)
}

// DashboardSubscriptionStore defines the subscription store interface for dashboards.
type DashboardSubscriptionStore interface {
	GetByTenant(ctx context.Context, tenantID string) (subscription.Subscription, error)
}

// DashboardNoticeStore defines the announcement store interface for dashboards.
type DashboardNoticeStore interface {
	List(ctx context.Context, status string) ([]notice.Notice, error)
}

// GetDashboardDeps holds dependencies for both dashboard projections.
type GetDashboardDeps struct {
	Tenants       DashboardTenantStore
	Subscriptions DashboardSubscriptionStore
	Billing       DelinquencyBillingStore
	Notices       DashboardNoticeStore
	Now           func() time.Time
}

// PlatformDashboard is the operator's fleet view: every academy's
// subscription health plus platform-wide arrears.
type PlatformDashboard struct {
	TenantCount     int                  `json:"tenantCount"`
	StatusCounts    map[string]int       `json:"statusCounts"`
	TotalOwedCents  int64                `json:"totalOwedCents"`
	DelinquentCount int                  `json:"delinquentCount"`
	TopDebtors      []delinquency.Record `json:"topDebtors"`
	Notices         []notice.Notice      `json:"notices"`
}

// QueryGetPlatformDashboard assembles the operator dashboard.
// PRE: Caller is authorized as a platform admin
// POST: Returns fleet status counts and platform-wide delinquency
func QueryGetPlatformDashboard(ctx context.Context, deps GetDashboardDeps) (PlatformDashboard, error) {
	tenants, err := deps.Tenants.List(ctx, tenantStore.ListFilter{})
	if err != nil {
		return PlatformDashboard{}, fmt.Errorf("list tenants: %w", err)
	}

	dash := PlatformDashboard{
		TenantCount:  len(tenants),
		StatusCounts: make(map[string]int),
	}
	for _, t := range tenants {
		dash.StatusCounts[t.SubscriptionStatus]++
	}

	accounts, err := deps.Billing.SnapshotAll(ctx)
	if err != nil {
		return PlatformDashboard{}, fmt.Errorf("load delinquency snapshot: %w", err)
	}
	report := delinquency.Aggregate(accounts, deps.Now(), topDebtorLimit)
	dash.TotalOwedCents = report.TotalOwedCents
	dash.DelinquentCount = report.Count
	dash.TopDebtors = report.Records

	dash.Notices, err = visibleNotices(ctx, deps.Notices, "platform_admin", "")
	if err != nil {
		return PlatformDashboard{}, err
	}
	return dash, nil
}

// AcademyDashboard is one academy's own view: its subscription standing
// and the arrears inside its roster.
type AcademyDashboard struct {
	TenantName         string             `json:"tenantName"`
	Plan               string             `json:"plan"`
	SubscriptionStatus string             `json:"subscriptionStatus"`
	NextDueDate        time.Time          `json:"nextDueDate"`
	OutstandingCents   int64              `json:"outstandingCents"`
	Delinquency        delinquency.Report `json:"delinquency"`
	Notices            []notice.Notice    `json:"notices"`
}

// GetAcademyDashboardInput identifies the tenant and the viewing actor.
type GetAcademyDashboardInput struct {
	TenantID  string
	Role      string
	StaffKind string
}

// QueryGetAcademyDashboard assembles the per-academy dashboard.
// PRE: input.TenantID names an existing tenant; caller is scoped to it
// POST: Returns the tenant's standing and its roster delinquency
func QueryGetAcademyDashboard(ctx context.Context, input GetAcademyDashboardInput, deps GetDashboardDeps) (AcademyDashboard, error) {
	t, err := deps.Tenants.GetByID(ctx, input.TenantID)
	if err != nil {
		return AcademyDashboard{}, fmt.Errorf("load tenant: %w", err)
	}

	now := deps.Now()
	dash := AcademyDashboard{
		TenantName:         t.Name,
		Plan:               t.Plan,
		SubscriptionStatus: t.SubscriptionStatus,
	}

	sub, err := deps.Subscriptions.GetByTenant(ctx, input.TenantID)
	if err != nil {
		return AcademyDashboard{}, fmt.Errorf("load subscription: %w", err)
	}
	dash.NextDueDate = sub.NextDueDate
	dash.OutstandingCents = sub.OutstandingCents(now)

	accounts, err := deps.Billing.Snapshot(ctx, input.TenantID)
	if err != nil {
		return AcademyDashboard{}, fmt.Errorf("load delinquency snapshot: %w", err)
	}
	dash.Delinquency = delinquency.Aggregate(accounts, now, topDebtorLimit)

	dash.Notices, err = visibleNotices(ctx, deps.Notices, input.Role, input.StaffKind)
	if err != nil {
		return AcademyDashboard{}, err
	}
	return dash, nil
}

// visibleNotices returns published announcements the role may see.
func visibleNotices(ctx context.Context, store DashboardNoticeStore, role, staffKind string) ([]notice.Notice, error) {
	published, err := store.List(ctx, notice.StatusPublished)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	var visible []notice.Notice
	for _, n := range published {
		if n.VisibleTo(role, staffKind) {
			visible = append(visible, n)
		}
	}
	return visible, nil
}
