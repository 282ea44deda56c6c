package service

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/guttosm/packing-service/internal/logger"
	"github.com/guttosm/packing-service/internal/mocks"
	"github.com/guttosm/packing-service/internal/packer"
	"github.com/guttosm/packing-service/internal/repository"
)

var (
	smallBox = model.Packaging{ID: 101, Width: 10, Height: 10, Length: 10, MaxWeight: 20}
	largeBox = model.Packaging{ID: 102, Width: 30, Height: 30, Length: 30, MaxWeight: 50}

	smallProducts = []model.Product{{Width: 5, Height: 5, Length: 5, Weight: 1}}
)

// recorderSpy collects decision records in memory.
type recorderSpy struct {
	mu      sync.Mutex
	records []*model.DecisionRecord
}

func (r *recorderSpy) Record(record *model.DecisionRecord) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return true
}

func (r *recorderSpy) last() *model.DecisionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		return nil
	}
	return r.records[len(r.records)-1]
}

type fixture struct {
	catalog  *repository.MemoryPackagingRepository
	cache    *PackingCache
	client   *mocks.MockPackerClient
	recorder *recorderSpy
	svc      *PackingServiceImpl
}

func newFixture(packagings ...model.Packaging) *fixture {
	f := &fixture{
		catalog:  repository.NewMemoryPackagingRepository(packagings...),
		cache:    NewPackingCache(repository.NewMemoryPackingCacheRepository(64, 1)),
		client:   new(mocks.MockPackerClient),
		recorder: &recorderSpy{},
	}
	f.svc = NewPackingService(f.catalog, f.cache, f.client, WithDecisionRecorder(f.recorder))
	return f
}

func (f *fixture) expectAPI(cacheContext string, binData model.BinData, err error) *mock.Call {
	return f.client.On("FindSingleBinData", mock.Anything, mock.Anything, mock.Anything, RequestHash(smallProducts), cacheContext).
		Return(binData, err)
}

func (f *fixture) cachedID(t *testing.T) string {
	t.Helper()
	decision, err := f.cache.FindByRequestHash(context.Background(), RequestHash(smallProducts))
	require.NoError(t, err)
	if decision == nil {
		return ""
	}
	return f.cache.DecodeBinData(decision).ID
}

func TestPackingService_GetOptimalBox_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		products []model.Product
	}{
		{name: "no products", products: nil},
		{name: "width beyond int range", products: []model.Product{{Width: 1e19, Height: 1, Length: 1, Weight: 1}}},
		{name: "width just over the bound", products: []model.Product{{Width: model.MaxMeasure + 0.5, Height: 1, Length: 1, Weight: 1}}},
		{name: "infinite length", products: []model.Product{{Width: 1, Height: 1, Length: math.Inf(1), Weight: 1}}},
		{name: "NaN weight", products: []model.Product{{Width: 1, Height: 1, Length: 1, Weight: math.NaN()}}},
		{name: "negative height after a valid product", products: append(smallProducts[:1:1], model.Product{Width: 1, Height: -1, Length: 1, Weight: 1})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(smallBox)

			pkg, err := f.svc.GetOptimalBox(context.Background(), tt.products)

			assert.Nil(t, pkg)
			assert.ErrorIs(t, err, ErrInvalidParameter)
			f.client.AssertNumberOfCalls(t, "FindSingleBinData", 0)
			assert.Nil(t, f.recorder.last())
		})
	}
}

func TestPackingService_GetOptimalBox_CacheHit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(smallBox, largeBox)
	require.NoError(t, f.cache.Save(ctx, RequestHash(smallProducts), model.BinData{ID: "102"}))

	pkg, err := f.svc.GetOptimalBox(ctx, smallProducts)

	require.NoError(t, err)
	assert.Equal(t, int64(102), pkg.ID)
	f.client.AssertNumberOfCalls(t, "FindSingleBinData", 0)
	assert.Equal(t, model.SourceCache, f.recorder.last().Source)
}

func TestPackingService_GetOptimalBox_StaleCacheRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(smallBox)
	require.NoError(t, f.cache.Save(ctx, RequestHash(smallProducts), model.BinData{ID: "999"}))
	f.expectAPI(CacheContextStaleRefresh, model.BinData{ID: "101"}, nil).Once()

	pkg, err := f.svc.GetOptimalBox(ctx, smallProducts)

	require.NoError(t, err)
	assert.Equal(t, int64(101), pkg.ID)
	assert.Equal(t, "101", f.cachedID(t))
	f.client.AssertNumberOfCalls(t, "FindSingleBinData", 1)

	record := f.recorder.last()
	assert.Equal(t, model.SourceAPI, record.Source)
	assert.Equal(t, CacheContextStaleRefresh, record.CacheContext)
	assert.Equal(t, int64(101), record.PackagingID)
}

func TestPackingService_GetOptimalBox_NonNumericCachedID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(smallBox)
	require.NoError(t, f.cache.Save(ctx, RequestHash(smallProducts), model.BinData{ID: "box-a"}))
	f.expectAPI(CacheContextStaleRefresh, model.BinData{ID: "101"}, nil).Once()

	pkg, err := f.svc.GetOptimalBox(ctx, smallProducts)

	require.NoError(t, err)
	assert.Equal(t, int64(101), pkg.ID)
}

func TestPackingService_GetOptimalBox_APIOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		binData     model.BinData
		apiErr      error
		wantID      int64
		wantSource  string
		wantErr     error
		wantCacheID string
	}{
		{
			name:        "api decision is used and cached",
			binData:     model.BinData{ID: "102"},
			wantID:      102,
			wantSource:  model.SourceAPI,
			wantCacheID: "102",
		},
		{
			name:       "unexpected format falls back to local",
			apiErr:     packer.ErrUnexpectedResponseFormat,
			wantID:     101,
			wantSource: model.SourceLocal,
		},
		{
			name:       "api errors fall back to local",
			apiErr:     packer.ErrAPIError,
			wantID:     101,
			wantSource: model.SourceLocal,
		},
		{
			name:       "empty answer falls back to local",
			binData:    model.BinData{},
			wantID:     101,
			wantSource: model.SourceLocal,
		},
		{
			name:        "unknown api id falls back to local without a second call",
			binData:     model.BinData{ID: "555"},
			wantID:      101,
			wantSource:  model.SourceLocal,
			wantCacheID: "555",
		},
		{
			name:       "no single bin is terminal",
			apiErr:     packer.ErrNoAppropriatePackaging,
			wantErr:    ErrNoAppropriatePackagingFound,
			wantSource: model.SourceFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(largeBox, smallBox)
			f.expectAPI(CacheContextMiss, tt.binData, tt.apiErr).Once()

			pkg, err := f.svc.GetOptimalBox(context.Background(), smallProducts)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, tt.apiErr)
				assert.Nil(t, pkg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, pkg.ID)
			}
			f.client.AssertNumberOfCalls(t, "FindSingleBinData", 1)
			assert.Equal(t, tt.wantCacheID, f.cachedID(t))
			assert.Equal(t, tt.wantSource, f.recorder.last().Source)
		})
	}
}

func TestPackingService_GetOptimalBox_EmptyCatalog(t *testing.T) {
	f := newFixture()

	pkg, err := f.svc.GetOptimalBox(context.Background(), smallProducts)

	assert.Nil(t, pkg)
	assert.ErrorIs(t, err, ErrNoPackagingInDatabase)
	f.client.AssertNumberOfCalls(t, "FindSingleBinData", 0)
	assert.Equal(t, ErrNoPackagingInDatabase.Error(), f.recorder.last().Error)
}

func TestPackingService_GetOptimalBox_Exhausted(t *testing.T) {
	f := newFixture(smallBox)
	tooBig := []model.Product{{Width: 50, Height: 50, Length: 50, Weight: 1}}
	f.client.On("FindSingleBinData", mock.Anything, mock.Anything, mock.Anything, RequestHash(tooBig), CacheContextMiss).
		Return(model.BinData{}, errors.New("connection refused")).Once()

	pkg, err := f.svc.GetOptimalBox(context.Background(), tooBig)

	assert.Nil(t, pkg)
	assert.ErrorIs(t, err, ErrNoAppropriatePackagingFound)
	f.client.AssertExpectations(t)
}

func TestPackingService_GetOptimalBox_CatalogChangesBeforeFallback(t *testing.T) {
	f := newFixture(smallBox)
	f.expectAPI(CacheContextMiss, model.BinData{}, packer.ErrAPIError).Once().Run(func(mock.Arguments) {
		f.catalog.Delete(context.Background(), smallBox.ID)
		_, _ = f.catalog.Create(context.Background(), largeBox)
	})

	pkg, err := f.svc.GetOptimalBox(context.Background(), smallProducts)

	require.NoError(t, err)
	assert.Equal(t, largeBox.ID, pkg.ID)
}

func TestPackingService_GetOptimalBox_CacheFailuresDegrade(t *testing.T) {
	ctx := context.Background()
	hash := RequestHash(smallProducts)

	cacheRepo := new(mocks.MockPackingCacheRepositoryInterface)
	cacheRepo.On("Get", mock.Anything, hash).Return(nil, errors.New("cache down"))
	cacheRepo.On("Put", mock.Anything, hash, `{"id":"101"}`).Return(errors.New("cache down"))

	client := new(mocks.MockPackerClient)
	client.On("FindSingleBinData", mock.Anything, mock.Anything, mock.Anything, hash, CacheContextMiss).
		Return(model.BinData{ID: "101"}, nil).Once()

	svc := NewPackingService(repository.NewMemoryPackagingRepository(smallBox), NewPackingCache(cacheRepo), client)
	pkg, err := svc.GetOptimalBox(ctx, smallProducts)

	require.NoError(t, err)
	assert.Equal(t, int64(101), pkg.ID)
	cacheRepo.AssertExpectations(t)
}

func TestPackingService_GetOptimalBox_UndecodableCacheEntry(t *testing.T) {
	hash := RequestHash(smallProducts)

	cacheRepo := new(mocks.MockPackingCacheRepositoryInterface)
	cacheRepo.On("Get", mock.Anything, hash).Return(&model.CachedDecision{RequestHash: hash, ResponseBody: "garbage"}, nil)
	cacheRepo.On("Put", mock.Anything, hash, `{"id":"101"}`).Return(nil)

	client := new(mocks.MockPackerClient)
	client.On("FindSingleBinData", mock.Anything, mock.Anything, mock.Anything, hash, CacheContextMiss).
		Return(model.BinData{ID: "101"}, nil).Once()

	svc := NewPackingService(repository.NewMemoryPackagingRepository(smallBox), NewPackingCache(cacheRepo), client)
	pkg, err := svc.GetOptimalBox(context.Background(), smallProducts)

	require.NoError(t, err)
	assert.Equal(t, int64(101), pkg.ID)
	cacheRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPackingService_GetOptimalBox_CatalogError(t *testing.T) {
	storeErr := errors.New("catalog unavailable")
	catalog := new(mocks.MockPackagingRepositoryInterface)
	catalog.On("FindAll", mock.Anything).Return(nil, storeErr)

	svc := NewPackingService(catalog, nil, new(mocks.MockPackerClient))
	pkg, err := svc.GetOptimalBox(context.Background(), smallProducts)

	assert.Nil(t, pkg)
	assert.ErrorIs(t, err, storeErr)
}

func TestPackingService_GetOptimalBox_RecordsRequestID(t *testing.T) {
	f := newFixture(smallBox)
	f.expectAPI(CacheContextMiss, model.BinData{ID: "101"}, nil).Once()

	ctx := logger.WithRequestID(context.Background(), "req-42")
	_, err := f.svc.GetOptimalBox(ctx, smallProducts)
	require.NoError(t, err)

	record := f.recorder.last()
	require.NotNil(t, record)
	assert.Equal(t, "req-42", record.RequestID)
	assert.Equal(t, RequestHash(smallProducts), record.RequestHash)
	assert.Equal(t, 1, record.ItemsCount)
	assert.Equal(t, CacheContextMiss, record.CacheContext)
}

func TestPackingService_GetOptimalBox_APIUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := packer.NewClient(packer.Config{
		BaseURL:        url,
		ConnectTimeout: 200 * time.Millisecond,
		Timeout:        time.Second,
		Retry: packer.RetryConfig{
			MaxAttempts:  2,
			InitialDelay: time.Millisecond,
			MaxDelay:     2 * time.Millisecond,
		},
	})
	catalog := repository.NewMemoryPackagingRepository(largeBox, smallBox)
	cache := NewPackingCache(repository.NewMemoryPackingCacheRepository(16, 1))
	svc := NewPackingService(catalog, cache, client)

	pkg, err := svc.GetOptimalBox(context.Background(), smallProducts)

	require.NoError(t, err)
	assert.Equal(t, smallBox.ID, pkg.ID)

	decision, err := cache.FindByRequestHash(context.Background(), RequestHash(smallProducts))
	require.NoError(t, err)
	assert.Nil(t, decision)
}

func TestPackingService_GetOptimalBox_StaleCacheEndToEnd(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"response":{"status":1,"errors":[],"bins_packed":[{"bin_data":{"id":"101"}}],"not_packed_items":[]}}`))
	}))
	defer server.Close()

	ctx := context.Background()
	catalog := repository.NewMemoryPackagingRepository(smallBox)
	cache := NewPackingCache(repository.NewMemoryPackingCacheRepository(16, 1))
	require.NoError(t, cache.Save(ctx, RequestHash(smallProducts), model.BinData{ID: "999"}))

	svc := NewPackingService(catalog, cache, packer.NewClient(packer.Config{BaseURL: server.URL, Timeout: time.Second}))
	pkg, err := svc.GetOptimalBox(ctx, smallProducts)

	require.NoError(t, err)
	assert.Equal(t, int64(101), pkg.ID)
	assert.Equal(t, int32(1), calls.Load())

	decision, err := cache.FindByRequestHash(ctx, RequestHash(smallProducts))
	require.NoError(t, err)
	assert.Equal(t, model.BinData{ID: "101"}, cache.DecodeBinData(decision))
}

func TestPackingService_ListPackaging(t *testing.T) {
	svc := NewPackingService(repository.NewMemoryPackagingRepository(largeBox, smallBox), nil, nil)

	packagings, err := svc.ListPackaging(context.Background())
	require.NoError(t, err)
	require.Len(t, packagings, 2)
	assert.Equal(t, smallBox.ID, packagings[0].ID)

	_, err = NewPackingService(nil, nil, nil).ListPackaging(context.Background())
	assert.ErrorIs(t, err, ErrRepositoryNotConfigured)
}
