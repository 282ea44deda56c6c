package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/guttosm/packing-service/internal/domain/model"
)

// SQLPackingCacheRepository stores packer API decisions in SQLite or PostgreSQL.
type SQLPackingCacheRepository struct {
	db *SQLDB
}

// NewSQLPackingCacheRepository creates a new SQL packing cache repository.
func NewSQLPackingCacheRepository(db *SQLDB) *SQLPackingCacheRepository {
	return &SQLPackingCacheRepository{db: db}
}

// Get returns the decision cached for requestHash, or nil.
func (r *SQLPackingCacheRepository) Get(ctx context.Context, requestHash string) (*model.CachedDecision, error) {
	var decision model.CachedDecision
	err := r.db.get(ctx, "get-cached-decision", &decision, requestHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

// Put upserts the decision for requestHash.
func (r *SQLPackingCacheRepository) Put(ctx context.Context, requestHash, responseBody string) error {
	_, err := r.db.exec(ctx, "put-cached-decision", requestHash, responseBody, time.Now().UTC())
	return err
}

// Delete removes a cached decision. Deleting a missing entry is not an error.
func (r *SQLPackingCacheRepository) Delete(ctx context.Context, decision *model.CachedDecision) error {
	_, err := r.db.exec(ctx, "delete-cached-decision", decision.RequestHash)
	return err
}
