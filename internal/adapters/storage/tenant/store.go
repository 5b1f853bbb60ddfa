package tenant

import (
	"context"

	domain "academyhub/internal/domain/tenant"
)

// Store persists Tenant state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Tenant, error)
	Save(ctx context.Context, value domain.Tenant) error
	SetFeatureFlags(ctx context.Context, tenantID string, flags []string) error
	SetSubscriptionStatus(ctx context.Context, tenantID, status string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Tenant, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit  int
	Offset int
	Plan   string
	Status string
	Search string
	Sort   string
	Dir    string
}
