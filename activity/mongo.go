package activity

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tastemap/models"
	"tastemap/utils"
)

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (s *MongoStore) Insert(ctx context.Context, e models.ActivityEntry) error {
	if _, err := s.coll.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert feed entry: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, user string, limit, offset int) ([]models.ActivityEntry, error) {
	filter := bson.M{}
	if user != "" {
		filter["user"] = user
	}
	opts := options.Find().SetSort(newestFirst).SetSkip(int64(offset)).SetLimit(int64(limit))
	entries, err := utils.FindAndDecode[models.ActivityEntry](ctx, s.coll, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	return entries, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete feed entry %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("clear feed: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) Prune(ctx context.Context, keep int) (int64, error) {
	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(keep)).
		SetProjection(bson.M{"_id": 1})
	stale, err := utils.FindAndDecode[struct {
		ID string `bson:"_id"`
	}](ctx, s.coll, bson.M{}, opts)
	if err != nil {
		return 0, fmt.Errorf("find stale feed entries: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(stale))
	for _, e := range stale {
		ids = append(ids, e.ID)
	}
	res, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("prune feed: %w", err)
	}
	return res.DeletedCount, nil
}
