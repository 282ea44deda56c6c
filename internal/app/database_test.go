package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/packing-service/config"
	"github.com/guttosm/packing-service/internal/repository"
)

func testStorageConfig() config.StorageConfig {
	return config.StorageConfig{
		Backend:       config.BackendMemory,
		CacheSize:     128,
		SeedPackaging: true,
		CircuitBreaker: config.CircuitBreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          time.Second,
		},
	}
}

func TestInitializeStorage_Memory(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		seed        bool
		wantCatalog int
	}{
		{name: "seeds the default catalog", seed: true, wantCatalog: len(repository.DefaultPackagings)},
		{name: "seeding disabled", seed: false, wantCatalog: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testStorageConfig()
			cfg.SeedPackaging = tt.seed

			storage := InitializeStorage(ctx, cfg)
			defer func() { _ = storage.Close(ctx) }()

			assert.Equal(t, config.BackendMemory, storage.Backend)
			assert.Nil(t, storage.DecisionLog)
			assert.Empty(t, storage.Checkers)

			all, err := storage.Catalog.FindAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, tt.wantCatalog)

			require.NoError(t, storage.Cache.Put(ctx, "hash", `{"id":"1"}`))
			cached, err := storage.Cache.Get(ctx, "hash")
			require.NoError(t, err)
			require.NotNil(t, cached)
		})
	}
}

func TestInitializeStorage_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testStorageConfig()
	cfg.Backend = config.BackendSQL
	cfg.DatabaseURL = "sqlite://" + filepath.Join(t.TempDir(), "packing.db")

	storage := InitializeStorage(ctx, cfg)
	defer func() { _ = storage.Close(ctx) }()

	require.Equal(t, config.BackendSQL, storage.Backend)
	assert.Contains(t, storage.Checkers, "sql")
	assert.Contains(t, storage.CircuitBreakers, "sql_packaging")
	assert.Contains(t, storage.CircuitBreakers, "sql_packing_cache")
	assert.NoError(t, storage.Checkers["sql"].HealthCheck(ctx))

	all, err := storage.Catalog.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(repository.DefaultPackagings))

	// A second start does not seed again.
	again := InitializeStorage(ctx, cfg)
	defer func() { _ = again.Close(ctx) }()
	all, err = again.Catalog.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(repository.DefaultPackagings))
}

func TestInitializeStorage_DefaultBackendKeepsCacheAcrossRestarts(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "packing.db"))
	ctx := context.Background()
	cfg := config.Load().Storage

	first := InitializeStorage(ctx, cfg)
	require.Equal(t, config.BackendSQL, first.Backend)
	require.NoError(t, first.Cache.Put(ctx, "abc123", `{"id":"2"}`))
	require.NoError(t, first.Close(ctx))

	second := InitializeStorage(ctx, cfg)
	defer func() { _ = second.Close(ctx) }()
	require.Equal(t, config.BackendSQL, second.Backend)

	cached, err := second.Cache.Get(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.JSONEq(t, `{"id":"2"}`, cached.ResponseBody)
}

func TestInitializeStorage_FallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	cfg := testStorageConfig()
	cfg.Backend = config.BackendSQL
	cfg.DatabaseURL = "mysql://localhost/packing"

	storage := InitializeStorage(ctx, cfg)
	defer func() { _ = storage.Close(ctx) }()

	assert.Equal(t, config.BackendMemory, storage.Backend)
	all, err := storage.Catalog.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(repository.DefaultPackagings))
}

func TestStorageComponents_Close(t *testing.T) {
	var nilStorage *StorageComponents
	assert.NoError(t, nilStorage.Close(context.Background()))

	calls := 0
	storage := &StorageComponents{closers: []func(context.Context) error{
		func(context.Context) error { calls++; return nil },
	}}
	require.NoError(t, storage.Close(context.Background()))
	require.NoError(t, storage.Close(context.Background()))
	assert.Equal(t, 1, calls)
}
