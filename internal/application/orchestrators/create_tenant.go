package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	subStore "academyhub/internal/adapters/storage/subscription"
	"academyhub/internal/domain/audit"
	"academyhub/internal/domain/feature"
	"academyhub/internal/domain/subscription"
	"academyhub/internal/domain/tenant"
)

// ErrUnknownFeature reports an attempt to enable a flag that is not in the catalog.
var ErrUnknownFeature = errors.New("unknown feature flag")

// TenantStoreForAdmin defines the store interface for tenant management.
type TenantStoreForAdmin interface {
	GetByID(ctx context.Context, id string) (tenant.Tenant, error)
	Save(ctx context.Context, t tenant.Tenant) error
	SetFeatureFlags(ctx context.Context, tenantID string, flags []string) error
}

// CreateTenantInput carries input for tenant onboarding.
type CreateTenantInput struct {
	Name               string
	Plan               string
	FeatureFlags       []string
	MonthlyAmountCents int64
	ToleranceDays      int
	ActorID            string
}

// CreateTenantResult carries the created tenant and subscription IDs.
type CreateTenantResult struct {
	TenantID       string
	SubscriptionID string
	NextDueDate    time.Time
}

// CreateTenantDeps holds dependencies for ExecuteCreateTenant.
type CreateTenantDeps struct {
	Tenants       TenantStoreForAdmin
	Subscriptions SubscriptionStoreForReactivate
	Audits        AuditStoreForSweep
	Now           func() time.Time
	GenerateID    func() string
}

// ExecuteCreateTenant onboards a new academy: tenant record, active
// subscription with the first due date one month out, and the opening
// entry in the period log.
// PRE: input validated by tenant.Validate; flags checked against the catalog
// POST: Tenant and subscription persisted; period 1 logged
func ExecuteCreateTenant(ctx context.Context, input CreateTenantInput, deps CreateTenantDeps) (CreateTenantResult, error) {
	now := deps.Now()
	if now.IsZero() {
		return CreateTenantResult{}, subscription.ErrZeroTime
	}

	for _, f := range input.FeatureFlags {
		if !feature.Known(feature.ID(f)) {
			return CreateTenantResult{}, fmt.Errorf("%w: %s", ErrUnknownFeature, f)
		}
	}

	t := tenant.Tenant{
		ID:                 deps.GenerateID(),
		Name:               input.Name,
		Plan:               input.Plan,
		FeatureFlags:       input.FeatureFlags,
		SubscriptionStatus: string(subscription.StatusActive),
		CreatedAt:          now,
	}
	if err := t.Validate(); err != nil {
		return CreateTenantResult{}, err
	}

	tolerance := input.ToleranceDays
	if tolerance <= 0 {
		tolerance = 14
	}
	sub := subscription.Subscription{
		ID:                 deps.GenerateID(),
		TenantID:           t.ID,
		Period:             1,
		Status:             subscription.StatusActive,
		MonthlyAmountCents: input.MonthlyAmountCents,
		NextDueDate:        now.AddDate(0, 1, 0),
		ToleranceDays:      tolerance,
		PeriodStart:        now,
	}
	if err := sub.Validate(); err != nil {
		return CreateTenantResult{}, err
	}

	if err := deps.Tenants.Save(ctx, t); err != nil {
		return CreateTenantResult{}, fmt.Errorf("save tenant: %w", err)
	}
	if err := deps.Subscriptions.Save(ctx, sub); err != nil {
		return CreateTenantResult{}, fmt.Errorf("save subscription: %w", err)
	}
	if err := deps.Subscriptions.AppendPeriod(ctx, subStore.PeriodEntry{
		ID:          deps.GenerateID(),
		TenantID:    t.ID,
		Period:      1,
		PeriodStart: now,
		OpenedBy:    "system",
		CreatedAt:   now,
	}); err != nil {
		return CreateTenantResult{}, fmt.Errorf("append period: %w", err)
	}

	ev := audit.NewEvent(now, audit.CategoryTenant, audit.ActionCreate).
		WithActor(input.ActorID).
		WithTenant(t.ID).
		WithResource("tenant", t.ID).
		WithDescription(fmt.Sprintf("tenant %q created on %s plan", t.Name, t.Plan))
	_ = deps.Audits.Append(ctx, ev)

	slog.Info("tenant_event", "event", "created", "tenant_id", t.ID, "name", t.Name, "plan", t.Plan)

	return CreateTenantResult{TenantID: t.ID, SubscriptionID: sub.ID, NextDueDate: sub.NextDueDate}, nil
}

// UpdateFeaturesInput carries input for feature-flag changes.
type UpdateFeaturesInput struct {
	TenantID     string
	FeatureFlags []string
	ActorID      string
}

// UpdateFeaturesDeps holds dependencies for ExecuteUpdateFeatures.
type UpdateFeaturesDeps struct {
	Tenants TenantStoreForAdmin
	Audits  AuditStoreForSweep
	Now     func() time.Time
}

// ExecuteUpdateFeatures replaces a tenant's enabled feature flags.
//
// Unknown flags are rejected whole rather than silently dropped: a typo in
// an admin request should fail loudly, not half-apply. Flags above the
// tenant's plan are stored but stay dormant until the plan allows them.
// PRE: input.TenantID names an existing tenant
// POST: Flag set replaced; change audited
func ExecuteUpdateFeatures(ctx context.Context, input UpdateFeaturesInput, deps UpdateFeaturesDeps) error {
	for _, f := range input.FeatureFlags {
		if !feature.Known(feature.ID(f)) {
			return fmt.Errorf("%w: %s", ErrUnknownFeature, f)
		}
	}

	t, err := deps.Tenants.GetByID(ctx, input.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	if err := deps.Tenants.SetFeatureFlags(ctx, t.ID, input.FeatureFlags); err != nil {
		return fmt.Errorf("set feature flags: %w", err)
	}

	ev := audit.NewEvent(deps.Now(), audit.CategoryTenant, audit.ActionUpdate).
		WithActor(input.ActorID).
		WithTenant(t.ID).
		WithResource("tenant", t.ID).
		WithDescription(fmt.Sprintf("feature flags set to %v", input.FeatureFlags))
	_ = deps.Audits.Append(ctx, ev)

	slog.Info("tenant_event", "event", "features_updated", "tenant_id", t.ID, "flags", input.FeatureFlags)
	return nil
}
