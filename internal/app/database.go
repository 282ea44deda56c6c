// Package app provides storage initialization and setup.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/guttosm/packing-service/config"
	"github.com/guttosm/packing-service/internal/circuitbreaker"
	"github.com/guttosm/packing-service/internal/repository"
)

const (
	memoryCacheShards = 16
	seedTimeout       = 5 * time.Second
)

// StorageComponents holds the repositories of the selected backend.
type StorageComponents struct {
	Backend         string
	Catalog         repository.PackagingRepositoryInterface
	Cache           repository.PackingCacheRepositoryInterface
	DecisionLog     repository.DecisionLogRepositoryInterface
	Checkers        map[string]repository.HealthChecker
	CircuitBreakers map[string]*circuitbreaker.CircuitBreaker
	closers         []func(ctx context.Context) error
}

// Close releases the backend connections.
func (s *StorageComponents) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// InitializeStorage connects the configured backend and builds its repositories.
// When MongoDB or the SQL database cannot be reached the service continues on
// the in-memory backend, as the packer API and the local fallback still work.
func InitializeStorage(ctx context.Context, cfg config.StorageConfig) *StorageComponents {
	var (
		storage *StorageComponents
		err     error
	)

	switch cfg.Backend {
	case config.BackendMongoDB:
		storage, err = initializeMongoStorage(ctx, cfg)
	case config.BackendSQL:
		storage, err = initializeSQLStorage(ctx, cfg)
	default:
		storage = initializeMemoryStorage(cfg)
	}

	if err != nil {
		log.Error().Err(err).Str("backend", cfg.Backend).Msg("Failed to initialize storage - continuing with in-memory storage")
		storage = initializeMemoryStorage(cfg)
	}

	if cfg.SeedPackaging {
		seedCatalog(ctx, storage.Catalog)
	}

	return storage
}

func initializeMemoryStorage(cfg config.StorageConfig) *StorageComponents {
	log.Info().Int("cache_size", cfg.CacheSize).Msg("Using in-memory storage")
	return &StorageComponents{
		Backend:         config.BackendMemory,
		Catalog:         repository.NewMemoryPackagingRepository(),
		Cache:           repository.NewMemoryPackingCacheRepository(cfg.CacheSize, memoryCacheShards),
		Checkers:        map[string]repository.HealthChecker{},
		CircuitBreakers: map[string]*circuitbreaker.CircuitBreaker{},
	}
}

func initializeMongoStorage(ctx context.Context, cfg config.StorageConfig) (*StorageComponents, error) {
	db, err := repository.NewMongoDB(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	log.Info().Str("database", cfg.MongoDatabase).Msg("Connected to MongoDB")

	if err := db.SetDecisionsTTL(ctx, cfg.DecisionLogTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to set decision log TTL index (may already exist)")
	}

	catalogCB := newStorageBreaker(cfg.CircuitBreaker, "mongodb-packaging")
	cacheCB := newStorageBreaker(cfg.CircuitBreaker, "mongodb-packing-cache")
	decisionsCB := newStorageBreaker(cfg.CircuitBreaker, "mongodb-decisions")

	return &StorageComponents{
		Backend:     config.BackendMongoDB,
		Catalog:     repository.NewPackagingRepositoryWithCircuitBreaker(repository.NewPackagingRepository(db), catalogCB),
		Cache:       repository.NewPackingCacheRepositoryWithCircuitBreaker(repository.NewPackingCacheRepository(db), cacheCB),
		DecisionLog: repository.NewDecisionLogRepositoryWithCircuitBreaker(repository.NewDecisionLogRepository(db), decisionsCB),
		Checkers:    map[string]repository.HealthChecker{"mongodb": db},
		CircuitBreakers: map[string]*circuitbreaker.CircuitBreaker{
			"mongodb_packaging":     catalogCB,
			"mongodb_packing_cache": cacheCB,
			"mongodb_decisions":     decisionsCB,
		},
		closers: []func(ctx context.Context) error{db.Close},
	}, nil
}

func initializeSQLStorage(ctx context.Context, cfg config.StorageConfig) (*StorageComponents, error) {
	db, err := repository.OpenSQL(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQL database: %w", err)
	}
	log.Info().Str("driver", db.DB.DriverName()).Msg("Connected to SQL database")

	catalogCB := newStorageBreaker(cfg.CircuitBreaker, "sql-packaging")
	cacheCB := newStorageBreaker(cfg.CircuitBreaker, "sql-packing-cache")

	return &StorageComponents{
		Backend:  config.BackendSQL,
		Catalog:  repository.NewPackagingRepositoryWithCircuitBreaker(repository.NewSQLPackagingRepository(db), catalogCB),
		Cache:    repository.NewPackingCacheRepositoryWithCircuitBreaker(repository.NewSQLPackingCacheRepository(db), cacheCB),
		Checkers: map[string]repository.HealthChecker{"sql": db},
		CircuitBreakers: map[string]*circuitbreaker.CircuitBreaker{
			"sql_packaging":     catalogCB,
			"sql_packing_cache": cacheCB,
		},
		closers: []func(ctx context.Context) error{
			func(context.Context) error { return db.Close() },
		},
	}, nil
}

func newStorageBreaker(cfg config.CircuitBreakerConfig, name string) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
		Timeout:          cfg.Timeout,
		Name:             name,
	})
}

// seedCatalog creates the default packaging catalog when the store is empty.
func seedCatalog(ctx context.Context, catalog repository.PackagingRepositoryInterface) {
	ctx, cancel := context.WithTimeout(ctx, seedTimeout)
	defer cancel()

	created, err := repository.SeedPackaging(ctx, catalog, repository.DefaultPackagings)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to seed default packaging")
		return
	}
	if created > 0 {
		log.Info().Int("count", created).Msg("Seeded default packaging catalog")
	}
}
