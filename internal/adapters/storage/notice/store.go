package notice

import (
	"context"

	domain "academyhub/internal/domain/notice"
)

// Store persists platform announcements.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Notice, error)
	Save(ctx context.Context, value domain.Notice) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, status string) ([]domain.Notice, error)
}
