package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/guttosm/packing-service/internal/domain/model"
)

// PackingCacheRepository stores packer API decisions in MongoDB, one
// document per request hash.
type PackingCacheRepository struct {
	collection *mongo.Collection
}

// NewPackingCacheRepository creates a new packing cache repository.
func NewPackingCacheRepository(db *MongoDB) *PackingCacheRepository {
	return &PackingCacheRepository{
		collection: db.PackingCache,
	}
}

// Get returns the decision cached for requestHash, or nil.
func (r *PackingCacheRepository) Get(ctx context.Context, requestHash string) (*model.CachedDecision, error) {
	var decision model.CachedDecision
	err := r.collection.FindOne(ctx, bson.M{"_id": requestHash}).Decode(&decision)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

// Put upserts the decision for requestHash.
func (r *PackingCacheRepository) Put(ctx context.Context, requestHash, responseBody string) error {
	decision := model.CachedDecision{
		RequestHash:  requestHash,
		ResponseBody: responseBody,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"_id": requestHash},
		decision,
		options.Replace().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent upsert inserted first; retry as a plain replace.
		_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": requestHash}, decision)
	}
	return err
}

// Delete removes a cached decision. Deleting a missing entry is not an error.
func (r *PackingCacheRepository) Delete(ctx context.Context, decision *model.CachedDecision) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": decision.RequestHash})
	return err
}
