// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

type MockPackerClient struct {
	mock.Mock
}

func (m *MockPackerClient) FindSingleBinData(ctx context.Context, bins []model.Bin, items []model.NormalizedItem, requestHash, cacheContext string) (model.BinData, error) {
	args := m.Called(ctx, bins, items, requestHash, cacheContext)
	return args.Get(0).(model.BinData), args.Error(1)
}
