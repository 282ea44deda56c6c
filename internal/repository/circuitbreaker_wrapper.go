package repository

import (
	"context"
	"errors"

	"github.com/guttosm/packing-service/internal/circuitbreaker"
	"github.com/guttosm/packing-service/internal/domain/model"
)

// PackagingRepositoryWithCircuitBreaker wraps a catalog repository with circuit breaker protection.
// Catalog reads are not optional, so an open circuit is returned as an error.
type PackagingRepositoryWithCircuitBreaker struct {
	repo           PackagingRepositoryInterface
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewPackagingRepositoryWithCircuitBreaker creates a new repository wrapper with circuit breaker.
func NewPackagingRepositoryWithCircuitBreaker(repo PackagingRepositoryInterface, cb *circuitbreaker.CircuitBreaker) *PackagingRepositoryWithCircuitBreaker {
	return &PackagingRepositoryWithCircuitBreaker{
		repo:           repo,
		circuitBreaker: cb,
	}
}

// FindAll returns the catalog with circuit breaker protection.
func (r *PackagingRepositoryWithCircuitBreaker) FindAll(ctx context.Context) ([]model.Packaging, error) {
	var result []model.Packaging
	err := r.circuitBreaker.Execute(ctx, func() error {
		var cbErr error
		result, cbErr = r.repo.FindAll(ctx)
		return cbErr
	})
	return result, err
}

// FindByID returns a catalog entry with circuit breaker protection.
func (r *PackagingRepositoryWithCircuitBreaker) FindByID(ctx context.Context, id int64) (*model.Packaging, error) {
	var result *model.Packaging
	err := r.circuitBreaker.Execute(ctx, func() error {
		var cbErr error
		result, cbErr = r.repo.FindByID(ctx, id)
		return cbErr
	})
	return result, err
}

// Create inserts a catalog entry with circuit breaker protection.
func (r *PackagingRepositoryWithCircuitBreaker) Create(ctx context.Context, packaging model.Packaging) (*model.Packaging, error) {
	var result *model.Packaging
	err := r.circuitBreaker.Execute(ctx, func() error {
		var cbErr error
		result, cbErr = r.repo.Create(ctx, packaging)
		return cbErr
	})
	return result, err
}

// GetCircuitBreaker returns the underlying circuit breaker for monitoring.
func (r *PackagingRepositoryWithCircuitBreaker) GetCircuitBreaker() *circuitbreaker.CircuitBreaker {
	return r.circuitBreaker
}

// PackingCacheRepositoryWithCircuitBreaker wraps a cache repository with circuit breaker protection.
// The cache is an optimisation: an open circuit reads as a miss and drops writes.
type PackingCacheRepositoryWithCircuitBreaker struct {
	repo           PackingCacheRepositoryInterface
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewPackingCacheRepositoryWithCircuitBreaker creates a new repository wrapper with circuit breaker.
func NewPackingCacheRepositoryWithCircuitBreaker(repo PackingCacheRepositoryInterface, cb *circuitbreaker.CircuitBreaker) *PackingCacheRepositoryWithCircuitBreaker {
	return &PackingCacheRepositoryWithCircuitBreaker{
		repo:           repo,
		circuitBreaker: cb,
	}
}

// Get returns a cached decision with circuit breaker protection.
func (r *PackingCacheRepositoryWithCircuitBreaker) Get(ctx context.Context, requestHash string) (*model.CachedDecision, error) {
	var result *model.CachedDecision
	err := r.circuitBreaker.Execute(ctx, func() error {
		var cbErr error
		result, cbErr = r.repo.Get(ctx, requestHash)
		return cbErr
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return nil, nil
	}
	return result, err
}

// Put upserts a cached decision with circuit breaker protection.
func (r *PackingCacheRepositoryWithCircuitBreaker) Put(ctx context.Context, requestHash, responseBody string) error {
	err := r.circuitBreaker.Execute(ctx, func() error {
		return r.repo.Put(ctx, requestHash, responseBody)
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return nil
	}
	return err
}

// Delete removes a cached decision with circuit breaker protection.
func (r *PackingCacheRepositoryWithCircuitBreaker) Delete(ctx context.Context, decision *model.CachedDecision) error {
	err := r.circuitBreaker.Execute(ctx, func() error {
		return r.repo.Delete(ctx, decision)
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return nil
	}
	return err
}

// GetCircuitBreaker returns the underlying circuit breaker for monitoring.
func (r *PackingCacheRepositoryWithCircuitBreaker) GetCircuitBreaker() *circuitbreaker.CircuitBreaker {
	return r.circuitBreaker
}

// DecisionLogRepositoryWithCircuitBreaker wraps the decision log with circuit breaker protection.
type DecisionLogRepositoryWithCircuitBreaker struct {
	repo           DecisionLogRepositoryInterface
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewDecisionLogRepositoryWithCircuitBreaker creates a new repository wrapper with circuit breaker.
func NewDecisionLogRepositoryWithCircuitBreaker(repo DecisionLogRepositoryInterface, cb *circuitbreaker.CircuitBreaker) *DecisionLogRepositoryWithCircuitBreaker {
	return &DecisionLogRepositoryWithCircuitBreaker{
		repo:           repo,
		circuitBreaker: cb,
	}
}

// CreateMany stores decision records with circuit breaker protection.
// If circuit is open, silently fails (the decision log is non-critical).
func (r *DecisionLogRepositoryWithCircuitBreaker) CreateMany(ctx context.Context, records []*model.DecisionRecord) error {
	err := r.circuitBreaker.Execute(ctx, func() error {
		return r.repo.CreateMany(ctx, records)
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return nil
	}
	return err
}

// Query retrieves decision records with circuit breaker protection.
func (r *DecisionLogRepositoryWithCircuitBreaker) Query(ctx context.Context, opts model.DecisionQueryOptions) ([]*model.DecisionRecord, error) {
	var result []*model.DecisionRecord
	err := r.circuitBreaker.Execute(ctx, func() error {
		var cbErr error
		result, cbErr = r.repo.Query(ctx, opts)
		return cbErr
	})
	return result, err
}

// Count returns the number of decision records with circuit breaker protection.
func (r *DecisionLogRepositoryWithCircuitBreaker) Count(ctx context.Context, opts model.DecisionQueryOptions) (int64, error) {
	var result int64
	err := r.circuitBreaker.Execute(ctx, func() error {
		var cbErr error
		result, cbErr = r.repo.Count(ctx, opts)
		return cbErr
	})
	return result, err
}

// GetCircuitBreaker returns the underlying circuit breaker for monitoring.
func (r *DecisionLogRepositoryWithCircuitBreaker) GetCircuitBreaker() *circuitbreaker.CircuitBreaker {
	return r.circuitBreaker
}
