// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

type MockPackingCacheRepositoryInterface struct {
	mock.Mock
}

func (m *MockPackingCacheRepositoryInterface) Get(ctx context.Context, requestHash string) (*model.CachedDecision, error) {
	args := m.Called(ctx, requestHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CachedDecision), args.Error(1)
}

func (m *MockPackingCacheRepositoryInterface) Put(ctx context.Context, requestHash, responseBody string) error {
	args := m.Called(ctx, requestHash, responseBody)
	return args.Error(0)
}

func (m *MockPackingCacheRepositoryInterface) Delete(ctx context.Context, decision *model.CachedDecision) error {
	args := m.Called(ctx, decision)
	return args.Error(0)
}
