package comments

import (
	"context"
	"errors"
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

func (s *MongoStore) Insert(ctx context.Context, c models.Comment) error {
	if _, err := s.coll.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (models.Comment, error) {
	var c models.Comment
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Comment{}, utils.ErrNotFound
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("find comment %s: %w", id, err)
	}
	return c, nil
}

func (s *MongoStore) Update(ctx context.Context, c models.Comment) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{
		"comment":   c.Comment,
		"rating":    c.Rating,
		"updatedAt": c.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update comment %s: %w", c.ID, err)
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, f Filter, limit, offset int) ([]models.Comment, int64, error) {
	filter := bson.M{}
	if f.RestaurantID != "" {
		filter["restaurantId"] = f.RestaurantID
	}
	if f.Username != "" {
		filter["username"] = f.Username
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	page, err := utils.FindAndDecode[models.Comment](ctx, s.coll, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}
	return page, total, nil
}

func (s *MongoStore) Summarize(ctx context.Context, restaurantID string) (RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"restaurantId": restaurantID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"total":   bson.M{"$sum": 1},
			"average": bson.M{"$avg": "$rating"},
			"ratingsCount": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$ne": bson.A{bson.M{"$ifNull": bson.A{"$rating", nil}}, nil}}, 1, 0},
			}},
		}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return RatingSummary{}, fmt.Errorf("comment stats: %w", err)
	}
	defer cursor.Close(ctx)

	var sum RatingSummary
	if cursor.Next(ctx) {
		if err := cursor.Decode(&sum); err != nil {
			return RatingSummary{}, fmt.Errorf("decode comment stats: %w", err)
		}
	}
	return sum, cursor.Err()
}
