package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/guttosm/packing-service/internal/domain/model"
)

const packagingCounter = "packaging"

// PackagingRepository provides the packaging catalog stored in MongoDB.
type PackagingRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewPackagingRepository creates a new packaging repository.
func NewPackagingRepository(db *MongoDB) *PackagingRepository {
	return &PackagingRepository{
		collection: db.Packaging,
		counters:   db.Counters,
	}
}

// FindAll returns every catalog entry ordered by id.
func (r *PackagingRepository) FindAll(ctx context.Context) ([]model.Packaging, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	packagings := []model.Packaging{}
	if err := cursor.All(ctx, &packagings); err != nil {
		return nil, err
	}
	return packagings, nil
}

// FindByID returns the packaging with the given id, or nil if none exists.
func (r *PackagingRepository) FindByID(ctx context.Context, id int64) (*model.Packaging, error) {
	var packaging model.Packaging
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&packaging)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &packaging, nil
}

// Create inserts a catalog entry. A zero id is replaced by the next sequence value.
func (r *PackagingRepository) Create(ctx context.Context, packaging model.Packaging) (*model.Packaging, error) {
	if packaging.ID == 0 {
		id, err := r.nextID(ctx)
		if err != nil {
			return nil, err
		}
		packaging.ID = id
	}

	if _, err := r.collection.InsertOne(ctx, packaging); err != nil {
		return nil, err
	}
	return &packaging, nil
}

func (r *PackagingRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": packagingCounter},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}
