package receipts

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("receipt not found")

type MongoSink struct {
	Collection *mongo.Collection
}

func NewMongoSink(db *mongo.Database) *MongoSink {
	return &MongoSink{Collection: db.Collection("receipts")}
}

func (s *MongoSink) EnsureIndexes(ctx context.Context) error {
	_, err := s.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_uuid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "store_id", Value: 1}, {Key: "ordered_at", Value: -1}}},
	})
	return err
}

// Upsert replaces the receipt for the order, so replays converge on one
// document.
func (s *MongoSink) Upsert(ctx context.Context, r Receipt) error {
	_, err := s.Collection.ReplaceOne(ctx,
		bson.M{"order_uuid": r.OrderUUID},
		r,
		options.Replace().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("upsert receipt %s: %w", r.OrderUUID, err)
	}
	return nil
}

func (s *MongoSink) Get(ctx context.Context, store, orderUUID string) (Receipt, error) {
	var r Receipt
	err := s.Collection.FindOne(ctx, bson.M{"store_id": store, "order_uuid": orderUUID}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Receipt{}, ErrNotFound
	}
	return r, err
}

// Recent lists a store's latest receipts, newest first.
func (s *MongoSink) Recent(ctx context.Context, store string, limit int64) ([]Receipt, error) {
	cur, err := s.Collection.Find(ctx, bson.M{"store_id": store},
		options.Find().SetSort(bson.D{{Key: "ordered_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	var out []Receipt
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
