// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

type MockPackagingRepositoryInterface struct {
	mock.Mock
}

func (m *MockPackagingRepositoryInterface) FindAll(ctx context.Context) ([]model.Packaging, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Packaging), args.Error(1)
}

func (m *MockPackagingRepositoryInterface) FindByID(ctx context.Context, id int64) (*model.Packaging, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Packaging), args.Error(1)
}

func (m *MockPackagingRepositoryInterface) Create(ctx context.Context, packaging model.Packaging) (*model.Packaging, error) {
	args := m.Called(ctx, packaging)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Packaging), args.Error(1)
}
