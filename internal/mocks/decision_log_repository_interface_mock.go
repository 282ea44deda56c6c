// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

type MockDecisionLogRepositoryInterface struct {
	mock.Mock
}

func (m *MockDecisionLogRepositoryInterface) CreateMany(ctx context.Context, records []*model.DecisionRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockDecisionLogRepositoryInterface) Query(ctx context.Context, opts model.DecisionQueryOptions) ([]*model.DecisionRecord, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DecisionRecord), args.Error(1)
}

func (m *MockDecisionLogRepositoryInterface) Count(ctx context.Context, opts model.DecisionQueryOptions) (int64, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(int64), args.Error(1)
}
