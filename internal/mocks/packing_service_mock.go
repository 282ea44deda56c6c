// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

type MockPackingService struct {
	mock.Mock
}

func (m *MockPackingService) GetOptimalBox(ctx context.Context, products []model.Product) (*model.Packaging, error) {
	args := m.Called(ctx, products)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Packaging), args.Error(1)
}

func (m *MockPackingService) ListPackaging(ctx context.Context) ([]model.Packaging, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Packaging), args.Error(1)
}
