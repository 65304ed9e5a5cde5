package ports

import (
	"context"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
)

// CreateResult is returned by Create. AlreadyExisted is true when an
// idempotency key matched an earlier create.
type CreateResult struct {
	Record         *domain.Record
	AlreadyExisted bool
}

// ResourceService is the lifecycle of one resource type.
type ResourceService interface {
	Create(ctx context.Context, p domain.Principal, payload domain.Payload, idempotencyKey string) (*CreateResult, error)
	// FindOne returns nil, nil when the record is absent or soft-deleted.
	FindOne(ctx context.Context, id string) (*domain.Record, error)
	FindAll(ctx context.Context, q domain.ListQuery) (*domain.Page, error)
	Update(ctx context.Context, id string, p domain.Principal, payload domain.Payload) (*domain.Record, error)
	Remove(ctx context.Context, id string, p domain.Principal) (*domain.Record, error)
	Restore(ctx context.Context, ids []string, p domain.Principal) (int64, error)
	HardRemove(ctx context.Context, ids []string, p domain.Principal) (int64, error)
}
