package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/guttosm/packing-service/internal/metrics"
	"github.com/guttosm/packing-service/internal/repository"
)

// DecisionCache stores packer API decisions by request hash.
type DecisionCache interface {
	FindByRequestHash(ctx context.Context, requestHash string) (*model.CachedDecision, error)
	DecodeBinData(decision *model.CachedDecision) model.BinData
	Save(ctx context.Context, requestHash string, binData model.BinData) error
	Invalidate(ctx context.Context, decision *model.CachedDecision) error
}

// PackingCache implements DecisionCache over a cache repository.
// Entries never expire; a dangling entry is removed by the reader that finds it.
type PackingCache struct {
	repo repository.PackingCacheRepositoryInterface
}

// NewPackingCache creates a PackingCache backed by repo.
func NewPackingCache(repo repository.PackingCacheRepositoryInterface) *PackingCache {
	return &PackingCache{repo: repo}
}

// FindByRequestHash returns the cached decision for requestHash, or nil.
func (c *PackingCache) FindByRequestHash(ctx context.Context, requestHash string) (*model.CachedDecision, error) {
	if c.repo == nil {
		return nil, ErrRepositoryNotConfigured
	}

	decision, err := c.repo.Get(ctx, requestHash)
	if err != nil {
		metrics.RecordCacheOperation("get", "error")
		return nil, err
	}
	if decision == nil {
		metrics.RecordCacheOperation("get", "miss")
		return nil, nil
	}
	metrics.RecordCacheOperation("get", "hit")
	return decision, nil
}

// DecodeBinData extracts the bin id from a cached decision. Malformed bodies
// decode to an empty BinData.
func (c *PackingCache) DecodeBinData(decision *model.CachedDecision) model.BinData {
	if decision == nil {
		return model.BinData{}
	}
	binData, _ := model.ParseBinData([]byte(decision.ResponseBody))
	return binData
}

// Save upserts the decision for requestHash. Concurrent saves for the same
// hash leave one of them in place.
func (c *PackingCache) Save(ctx context.Context, requestHash string, binData model.BinData) error {
	if c.repo == nil {
		return ErrRepositoryNotConfigured
	}

	body, err := json.Marshal(binData)
	if err != nil {
		return fmt.Errorf("failed to encode bin data: %w", err)
	}

	if err := c.repo.Put(ctx, requestHash, string(body)); err != nil {
		metrics.RecordCacheOperation("put", "error")
		return err
	}
	metrics.RecordCacheOperation("put", "ok")
	return nil
}

// Invalidate deletes a cached decision.
func (c *PackingCache) Invalidate(ctx context.Context, decision *model.CachedDecision) error {
	if c.repo == nil {
		return ErrRepositoryNotConfigured
	}
	if decision == nil {
		return nil
	}

	if err := c.repo.Delete(ctx, decision); err != nil {
		metrics.RecordCacheOperation("delete", "error")
		return err
	}
	metrics.RecordCacheOperation("delete", "ok")
	return nil
}
