package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/guttosm/packing-service/internal/domain/model"
)

// DecisionLogRepository stores the decision log in MongoDB.
type DecisionLogRepository struct {
	collection *mongo.Collection
}

// NewDecisionLogRepository creates a new decision log repository.
func NewDecisionLogRepository(db *MongoDB) *DecisionLogRepository {
	return &DecisionLogRepository{
		collection: db.Decisions,
	}
}

// CreateMany inserts decision records in bulk.
func (r *DecisionLogRepository) CreateMany(ctx context.Context, records []*model.DecisionRecord) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]interface{}, len(records))
	for i, record := range records {
		if record.ID.IsZero() {
			record.ID = primitive.NewObjectID()
		}
		if record.Timestamp.IsZero() {
			record.Timestamp = time.Now()
		}
		docs[i] = record
	}

	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return err
}

// Query returns decision records matching opts, newest first.
func (r *DecisionLogRepository) Query(ctx context.Context, opts model.DecisionQueryOptions) ([]*model.DecisionRecord, error) {
	findOptions := options.Find().SetSort(bson.M{"timestamp": -1})
	if opts.Limit > 0 {
		findOptions.SetLimit(int64(opts.Limit))
	}
	if opts.Skip > 0 {
		findOptions.SetSkip(int64(opts.Skip))
	}

	cursor, err := r.collection.Find(ctx, decisionFilter(opts), findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	records := []*model.DecisionRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	return records, nil
}

// Count returns the number of decision records matching opts.
func (r *DecisionLogRepository) Count(ctx context.Context, opts model.DecisionQueryOptions) (int64, error) {
	return r.collection.CountDocuments(ctx, decisionFilter(opts))
}

func decisionFilter(opts model.DecisionQueryOptions) bson.M {
	filter := bson.M{}

	if opts.RequestHash != "" {
		filter["request_hash"] = opts.RequestHash
	}
	if opts.Source != "" {
		filter["source"] = opts.Source
	}
	if opts.StartTime != nil || opts.EndTime != nil {
		timeFilter := bson.M{}
		if opts.StartTime != nil {
			timeFilter["$gte"] = *opts.StartTime
		}
		if opts.EndTime != nil {
			timeFilter["$lte"] = *opts.EndTime
		}
		filter["timestamp"] = timeFilter
	}

	return filter
}
