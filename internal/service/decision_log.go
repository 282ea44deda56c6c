package service

import (
	"context"

	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/guttosm/packing-service/internal/repository"
)

const (
	defaultDecisionQueryLimit = 50
	maxDecisionQueryLimit     = 500
)

// DecisionLogService reads the decision log.
type DecisionLogService interface {
	// QueryDecisions returns records matching opts, newest first.
	QueryDecisions(ctx context.Context, opts model.DecisionQueryOptions) ([]*model.DecisionRecord, error)

	// CountDecisions returns the number of records matching opts.
	CountDecisions(ctx context.Context, opts model.DecisionQueryOptions) (int64, error)
}

// DecisionLogServiceImpl implements DecisionLogService.
type DecisionLogServiceImpl struct {
	repo repository.DecisionLogRepositoryInterface
}

// NewDecisionLogService creates a decision log service.
func NewDecisionLogService(repo repository.DecisionLogRepositoryInterface) *DecisionLogServiceImpl {
	return &DecisionLogServiceImpl{repo: repo}
}

// QueryDecisions returns records matching opts. The limit is clamped to a sane range.
func (s *DecisionLogServiceImpl) QueryDecisions(ctx context.Context, opts model.DecisionQueryOptions) ([]*model.DecisionRecord, error) {
	if s.repo == nil {
		return nil, ErrRepositoryNotConfigured
	}
	return s.repo.Query(ctx, NormalizeDecisionQuery(opts))
}

// CountDecisions returns the number of records matching opts.
func (s *DecisionLogServiceImpl) CountDecisions(ctx context.Context, opts model.DecisionQueryOptions) (int64, error) {
	if s.repo == nil {
		return 0, ErrRepositoryNotConfigured
	}
	return s.repo.Count(ctx, opts)
}

// NormalizeDecisionQuery applies the default page size, caps the limit and
// clears a negative skip.
func NormalizeDecisionQuery(opts model.DecisionQueryOptions) model.DecisionQueryOptions {
	opts.Limit = clampLimit(opts.Limit)
	if opts.Skip < 0 {
		opts.Skip = 0
	}
	return opts
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultDecisionQueryLimit
	case limit > maxDecisionQueryLimit:
		return maxDecisionQueryLimit
	default:
		return limit
	}
}
