package audit

import (
	"context"

	domain "academyhub/internal/domain/audit"
)

// Store persists audit events. The log is append-only; there is no update
// or delete.
type Store interface {
	Append(ctx context.Context, event domain.Event) error
	List(ctx context.Context, filter ListFilter) ([]domain.Event, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	TenantID string
	Category string
	Limit    int
	Offset   int
}
