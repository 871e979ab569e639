package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"village-registry-system/pkg/sentinel"
	"village-registry-system/services/registry-service/models"
)

// MongoCollection stores one record kind in a MongoDB collection. Live
// queries follow the collection's change stream and re-run the listing on
// every event.
type MongoCollection[T models.Record] struct {
	coll *mongo.Collection
	log  *zap.Logger
}

func NewMongoCollection[T models.Record](coll *mongo.Collection, log *zap.Logger) *MongoCollection[T] {
	return &MongoCollection[T]{coll: coll, log: log}
}

func (c *MongoCollection[T]) Create(ctx context.Context, key string, rec T) (string, error) {
	doc, err := toDocument(rec)
	if err != nil {
		return "", err
	}
	id := key
	if id == "" {
		id = primitive.NewObjectID().Hex()
	}
	doc["_id"] = id

	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%s: %w", id, sentinel.ErrConflict)
		}
		return "", fmt.Errorf("insert into %s: %w", c.coll.Name(), err)
	}
	return id, nil
}

func (c *MongoCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, fmt.Errorf("%s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return out, fmt.Errorf("find %s in %s: %w", id, c.coll.Name(), err)
	}
	return out, nil
}

func (c *MongoCollection[T]) List(ctx context.Context, f Filter) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := c.coll.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	return out, nil
}

func (c *MongoCollection[T]) Update(ctx context.Context, id string, expect models.Status, fields Fields) error {
	filter := bson.M{"_id": id}
	if expect != "" {
		filter["status"] = expect
	}
	set, unset := bson.M{}, bson.M{}
	for k, v := range fields {
		if v == nil {
			unset[k] = ""
			continue
		}
		set[k] = v
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := c.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update %s in %s: %w", id, c.coll.Name(), err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: either the record is gone or its status moved on.
	n, err := c.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("update %s in %s: %w", id, c.coll.Name(), err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, sentinel.ErrNotFound)
	}
	return fmt.Errorf("%s is no longer %s: %w", id, expect, sentinel.ErrPreconditionFailed)
}

func (c *MongoCollection[T]) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", c.coll.Name(), err)
	}
	return res.DeletedCount, nil
}

func (c *MongoCollection[T]) Subscribe(ctx context.Context, f Filter) (*Subscription[T], error) {
	sub, subCtx := newSubscription[T](ctx)

	// Open the stream before the first read so no change between the two is lost.
	cs, err := c.coll.Watch(subCtx, mongo.Pipeline{})
	if err != nil {
		sub.Close()
		return nil, fmt.Errorf("watch %s: %w", c.coll.Name(), err)
	}
	initial, err := c.List(subCtx, f)
	if err != nil {
		_ = cs.Close(context.Background())
		sub.Close()
		return nil, err
	}
	sub.publish(initial)

	go func() {
		defer cs.Close(context.Background())
		for cs.Next(subCtx) {
			snap, err := c.List(subCtx, f)
			if err != nil {
				if subCtx.Err() == nil {
					c.log.Warn("[WARN] snapshot refresh failed", zap.String("collection", c.coll.Name()), zap.Error(err))
					sub.fail(err)
				}
				return
			}
			if !sub.publish(snap) {
				return
			}
		}
		if err := cs.Err(); err != nil && subCtx.Err() == nil {
			c.log.Warn("[WARN] change stream ended", zap.String("collection", c.coll.Name()), zap.Error(err))
			sub.fail(fmt.Errorf("watch %s: %w: %v", c.coll.Name(), sentinel.ErrUnavailable, err))
			return
		}
		sub.Close()
	}()
	return sub, nil
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.OwnerID != "" {
		q["owner_id"] = f.OwnerID
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}
