package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/guttosm/packing-service/internal/logger"
	"github.com/guttosm/packing-service/internal/metrics"
	"github.com/guttosm/packing-service/internal/packer"
	"github.com/guttosm/packing-service/internal/repository"
)

// Cache contexts sent to the packer API and recorded with each decision.
const (
	CacheContextMiss         = "miss"
	CacheContextStaleRefresh = "stale_cache_refresh"
)

var tracer = otel.Tracer("github.com/guttosm/packing-service/internal/service")

// PackerClient asks the external packing API for a single bin.
// An empty BinData with a nil error means the API gave no usable answer.
type PackerClient interface {
	FindSingleBinData(ctx context.Context, bins []model.Bin, items []model.NormalizedItem, requestHash, cacheContext string) (model.BinData, error)
}

// PackingService defines the packing decision operations.
type PackingService interface {
	// GetOptimalBox returns the smallest catalog box able to hold products.
	GetOptimalBox(ctx context.Context, products []model.Product) (*model.Packaging, error)

	// ListPackaging returns the packaging catalog.
	ListPackaging(ctx context.Context) ([]model.Packaging, error)
}

// Option configures a PackingServiceImpl.
type Option func(*PackingServiceImpl)

// WithCalculator replaces the local fallback calculator.
func WithCalculator(calculator PackagingCalculator) Option {
	return func(s *PackingServiceImpl) {
		s.calculator = calculator
	}
}

// WithDecisionRecorder records every decision to recorder.
func WithDecisionRecorder(recorder DecisionRecorder) Option {
	return func(s *PackingServiceImpl) {
		s.recorder = recorder
	}
}

// PackingServiceImpl decides packaging from the cache, the packer API and
// the local calculator, in that order.
type PackingServiceImpl struct {
	catalog    repository.PackagingRepositoryInterface
	cache      DecisionCache
	client     PackerClient
	calculator PackagingCalculator
	recorder   DecisionRecorder
}

// NewPackingService creates a packing service.
func NewPackingService(
	catalog repository.PackagingRepositoryInterface,
	cache DecisionCache,
	client PackerClient,
	opts ...Option,
) *PackingServiceImpl {
	s := &PackingServiceImpl{
		catalog:    catalog,
		cache:      cache,
		client:     client,
		calculator: NewLocalCalculator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// decision tracks one GetOptimalBox call for logging and recording.
type decision struct {
	requestID    string
	requestHash  string
	itemsCount   int
	cacheContext string
	source       string
	started      time.Time
	log          zerolog.Logger
}

// GetOptimalBox returns the smallest catalog box for products.
//
// A cached decision is used when its box still exists; a dangling one is
// removed and the API is asked again. API failures other than a definitive
// "does not fit" fall back to the local calculator.
func (s *PackingServiceImpl) GetOptimalBox(ctx context.Context, products []model.Product) (pkg *model.Packaging, err error) {
	if err := ValidateProducts(products); err != nil {
		return nil, err
	}
	if s.catalog == nil {
		return nil, ErrRepositoryNotConfigured
	}

	items := NormalizeProducts(products)
	requestHash := HashItems(items)

	d := &decision{
		requestID:    logger.RequestIDFromContext(ctx),
		requestHash:  requestHash,
		itemsCount:   len(items),
		cacheContext: CacheContextMiss,
		source:       model.SourceFailed,
		started:      time.Now(),
	}
	d.log = logger.FromContext(ctx).With().
		Str("request_hash", requestHash).
		Int("items_count", d.itemsCount).
		Logger()

	ctx, span := tracer.Start(ctx, "PackingService.GetOptimalBox",
		trace.WithAttributes(
			attribute.String("packing.request_hash", requestHash),
			attribute.Int("packing.items_count", d.itemsCount),
		))
	defer func() {
		s.finish(span, d, pkg, err)
		span.End()
	}()

	pkg, err = s.fromCache(ctx, d)
	if err != nil || pkg != nil {
		return pkg, err
	}

	pkg, fallback, err := s.fromAPI(ctx, d, items)
	if err != nil || !fallback {
		return pkg, err
	}

	return s.fromLocal(ctx, d, items)
}

// ListPackaging returns the packaging catalog.
func (s *PackingServiceImpl) ListPackaging(ctx context.Context) ([]model.Packaging, error) {
	if s.catalog == nil {
		return nil, ErrRepositoryNotConfigured
	}
	packagings, err := s.catalog.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load packaging catalog: %w", err)
	}
	return packagings, nil
}

// fromCache returns the cached box, or nil when the lookup has to go on.
func (s *PackingServiceImpl) fromCache(ctx context.Context, d *decision) (*model.Packaging, error) {
	if s.cache == nil {
		return nil, nil
	}

	cached, err := s.cache.FindByRequestHash(ctx, d.requestHash)
	if err != nil {
		d.log.Warn().Err(err).Msg("Cache lookup failed, treating as miss")
		return nil, nil
	}
	if cached == nil {
		return nil, nil
	}

	binData := s.cache.DecodeBinData(cached)
	if binData.IsEmpty() {
		d.log.Warn().Msg("Cached decision could not be decoded, treating as miss")
		return nil, nil
	}

	pkg, err := s.resolve(ctx, binData.ID)
	if err != nil {
		return nil, err
	}
	if pkg != nil {
		d.source = model.SourceCache
		return pkg, nil
	}

	d.log.Info().Str("packaging_id", binData.ID).Msg("Cached packaging no longer exists, invalidating")
	if err := s.cache.Invalidate(ctx, cached); err != nil {
		d.log.Warn().Err(err).Msg("Failed to invalidate cached decision")
	}
	d.cacheContext = CacheContextStaleRefresh
	d.log = d.log.With().Str("cache_context", d.cacheContext).Logger()
	return nil, nil
}

// fromAPI asks the packer API. The bool reports whether the local fallback
// should run.
func (s *PackingServiceImpl) fromAPI(ctx context.Context, d *decision, items []model.NormalizedItem) (*model.Packaging, bool, error) {
	catalog, err := s.loadCatalog(ctx, d)
	if err != nil {
		return nil, false, err
	}
	if s.client == nil {
		return nil, true, nil
	}

	binData, err := s.client.FindSingleBinData(ctx, model.BinsFromPackagings(catalog), items, d.requestHash, d.cacheContext)
	switch {
	case errors.Is(err, packer.ErrNoAppropriatePackaging):
		d.log.Info().Msg("Packer API found no single box for all items")
		return nil, false, fmt.Errorf("%w: %w", ErrNoAppropriatePackagingFound, err)
	case err != nil:
		d.log.Warn().Err(err).Msg("Packer API call failed, falling back to local calculation")
		return nil, true, nil
	case binData.IsEmpty():
		d.log.Warn().Msg("Packer API returned no bin, falling back to local calculation")
		return nil, true, nil
	}

	if s.cache != nil {
		if err := s.cache.Save(ctx, d.requestHash, binData); err != nil {
			d.log.Warn().Err(err).Msg("Failed to cache packer decision")
		}
	}

	pkg, err := s.resolve(ctx, binData.ID)
	if err != nil {
		return nil, false, err
	}
	if pkg == nil {
		d.log.Warn().Str("packaging_id", binData.ID).Msg("Packer API returned unknown packaging, falling back to local calculation")
		return nil, true, nil
	}

	d.source = model.SourceAPI
	return pkg, false, nil
}

func (s *PackingServiceImpl) fromLocal(ctx context.Context, d *decision, items []model.NormalizedItem) (*model.Packaging, error) {
	catalog, err := s.loadCatalog(ctx, d)
	if err != nil {
		return nil, err
	}

	binData, found, err := s.calculator.CalculateOptimalBin(model.BinsFromPackagings(catalog), items)
	if err != nil {
		return nil, err
	}
	if !found {
		d.log.Info().Msg("No packaging fits the items")
		return nil, ErrNoAppropriatePackagingFound
	}

	pkg, err := s.resolve(ctx, binData.ID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, ErrNoAppropriatePackagingFound
	}

	d.source = model.SourceLocal
	return pkg, nil
}

func (s *PackingServiceImpl) loadCatalog(ctx context.Context, d *decision) ([]model.Packaging, error) {
	catalog, err := s.catalog.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load packaging catalog: %w", err)
	}
	if len(catalog) == 0 {
		d.log.Error().Msg("Packaging catalog is empty")
		return nil, ErrNoPackagingInDatabase
	}
	return catalog, nil
}

// resolve looks up a bin id in the catalog. Ids that are not integers
// resolve to nothing.
func (s *PackingServiceImpl) resolve(ctx context.Context, binID string) (*model.Packaging, error) {
	id, err := strconv.ParseInt(binID, 10, 64)
	if err != nil {
		return nil, nil
	}
	pkg, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve packaging %d: %w", id, err)
	}
	return pkg, nil
}

func (s *PackingServiceImpl) finish(span trace.Span, d *decision, pkg *model.Packaging, err error) {
	duration := time.Since(d.started)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordPackingDecision(d.source, status, duration)

	span.SetAttributes(
		attribute.String("packing.source", d.source),
		attribute.String("packing.cache_context", d.cacheContext),
	)

	record := &model.DecisionRecord{
		Timestamp:    d.started,
		RequestID:    d.requestID,
		RequestHash:  d.requestHash,
		ItemsCount:   d.itemsCount,
		CacheContext: d.cacheContext,
		Source:       d.source,
		DurationMs:   duration.Milliseconds(),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		record.Error = err.Error()
	} else {
		span.SetAttributes(attribute.Int64("packing.packaging_id", pkg.ID))
		span.SetStatus(codes.Ok, "")
		record.PackagingID = pkg.ID
		d.log.Debug().
			Str("source", d.source).
			Int64("packaging_id", pkg.ID).
			Dur("duration", duration).
			Msg("Packing decision made")
	}

	if s.recorder != nil {
		s.recorder.Record(record)
	}
}
