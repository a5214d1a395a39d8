package restaurants

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tastemap/models"
	"tastemap/utils"
)

// maxCASAttempts bounds the compare-and-set loop of a contended upsert.
const maxCASAttempts = 5

var errUpsertContention = errors.New("restaurant upsert: too much contention")

// MongoStore persists restaurants in a collection with a unique externalId index and a
// 2dsphere index on location (see db.CreateIndexes).
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) FindByExternalID(ctx context.Context, id string) (models.Restaurant, error) {
	var r models.Restaurant
	err := s.coll.FindOne(ctx, bson.M{"externalId": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Restaurant{}, utils.ErrNotFound
	}
	if err != nil {
		return models.Restaurant{}, fmt.Errorf("find restaurant %s: %w", id, err)
	}
	return r, nil
}

func (s *MongoStore) FindNear(ctx context.Context, center models.Point, radiusMeters float64, cuisine string) ([]models.Restaurant, error) {
	filter := bson.M{
		"location": bson.M{
			"$nearSphere": bson.M{
				"$geometry":    center.GeoJSON(),
				"$maxDistance": radiusMeters,
			},
		},
	}
	if cuisineFilterActive(cuisine) {
		filter["cuisine"] = bson.M{"$regex": regexp.QuoteMeta(cuisine), "$options": "i"}
	}

	results, err := utils.FindAndDecode[models.Restaurant](ctx, s.coll, filter, options.Find().SetLimit(MaxResults))
	if err != nil {
		return nil, fmt.Errorf("find near: %w", err)
	}
	return results, nil
}

func (s *MongoStore) Upsert(ctx context.Context, obs models.ObservedRestaurant, now time.Time) (UpsertResult, error) {
	id := obs.ExternalID()
	if id == "" {
		return UpsertResult{}, utils.Validation("Restaurant data or ID is missing")
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		existing, err := s.FindByExternalID(ctx, id)
		if errors.Is(err, utils.ErrNotFound) {
			r, err := NewFromObservation(obs, now)
			if err != nil {
				return UpsertResult{}, err
			}
			_, err = s.coll.InsertOne(ctx, r)
			if mongo.IsDuplicateKeyError(err) {
				// Lost the insert race; merge into the winner's record instead.
				continue
			}
			if err != nil {
				return UpsertResult{}, fmt.Errorf("insert restaurant %s: %w", id, err)
			}
			log.Printf("Saved new restaurant: %s (ID: %s)", r.Name, id)
			return UpsertResult{Restaurant: r, Created: true, Changes: Changes{}}, nil
		}
		if err != nil {
			return UpsertResult{}, err
		}

		merged, changes := Merge(existing, obs)
		if changes.Empty() {
			return UpsertResult{Restaurant: existing, Changes: changes}, nil
		}
		merged.LastObservedAt = now
		merged.Version = existing.Version + 1

		set := bson.M{"lastUpdated": now, "version": merged.Version}
		for field, value := range changes {
			set[field] = value
		}
		res, err := s.coll.UpdateOne(ctx,
			bson.M{"externalId": id, "version": versionMatch(existing.Version)},
			bson.M{"$set": set},
		)
		if err != nil {
			return UpsertResult{}, fmt.Errorf("update restaurant %s: %w", id, err)
		}
		if res.MatchedCount == 0 {
			continue
		}
		log.Printf("Updated restaurant: %s (ID: %s) fields=%s", merged.Name, id, strings.Join(changes.Fields(), ","))
		return UpsertResult{Restaurant: merged, Changes: changes}, nil
	}
	return UpsertResult{}, errUpsertContention
}

// versionMatch matches v, treating a document written without a version counter as 0.
func versionMatch(v int64) any {
	if v == 0 {
		return bson.M{"$in": bson.A{0, nil}}
	}
	return v
}
