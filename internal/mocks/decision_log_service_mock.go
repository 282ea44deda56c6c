// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

type MockDecisionLogService struct {
	mock.Mock
}

func (m *MockDecisionLogService) QueryDecisions(ctx context.Context, opts model.DecisionQueryOptions) ([]*model.DecisionRecord, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DecisionRecord), args.Error(1)
}

func (m *MockDecisionLogService) CountDecisions(ctx context.Context, opts model.DecisionQueryOptions) (int64, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(int64), args.Error(1)
}
