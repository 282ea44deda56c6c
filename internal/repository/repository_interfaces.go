// Package repository provides interfaces for repository operations.
package repository

import (
	"context"

	"github.com/guttosm/packing-service/internal/domain/model"
)

// PackagingRepositoryInterface defines the packaging catalog operations.
// FindByID returns nil, nil when the id does not exist.
type PackagingRepositoryInterface interface {
	FindAll(ctx context.Context) ([]model.Packaging, error)
	FindByID(ctx context.Context, id int64) (*model.Packaging, error)
	Create(ctx context.Context, packaging model.Packaging) (*model.Packaging, error)
}

// PackingCacheRepositoryInterface defines the decision cache operations.
// Get returns nil, nil on a miss. Put is an upsert where the last write wins.
type PackingCacheRepositoryInterface interface {
	Get(ctx context.Context, requestHash string) (*model.CachedDecision, error)
	Put(ctx context.Context, requestHash, responseBody string) error
	Delete(ctx context.Context, decision *model.CachedDecision) error
}

// DecisionLogRepositoryInterface defines the decision log operations.
type DecisionLogRepositoryInterface interface {
	CreateMany(ctx context.Context, records []*model.DecisionRecord) error
	Query(ctx context.Context, opts model.DecisionQueryOptions) ([]*model.DecisionRecord, error)
	Count(ctx context.Context, opts model.DecisionQueryOptions) (int64, error)
}

// HealthChecker is implemented by stores that can report their health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
