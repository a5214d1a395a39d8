package userdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tastemap/models"
	"tastemap/utils"
)

// MongoRepository stores one document per username. Each mutation is a single
// FindOneAndUpdate with an aggregation pipeline, so concurrent writes to one user
// serialize inside the server. The returned After state is derived from the
// pre-image with the same apply functions the pipeline mirrors.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

func (r *MongoRepository) GetOrCreate(ctx context.Context, username string, now time.Time) (models.UserProfile, error) {
	fresh := models.NewUserProfile(username, now)
	update := bson.M{"$setOnInsert": bson.M{
		"visited":        fresh.Visited,
		"interested":     fresh.Interested,
		"notInterested":  fresh.NotInterested,
		"savedLocations": fresh.SavedLocations,
		"createdAt":      now,
		"updatedAt":      now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var p models.UserProfile
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"username": username}, update, opts).Decode(&p)
	if mongo.IsDuplicateKeyError(err) {
		p = models.UserProfile{}
		err = r.coll.FindOneAndUpdate(ctx, bson.M{"username": username}, update, opts).Decode(&p)
	}
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("get or create user %s: %w", username, err)
	}
	return normalize(p), nil
}

func (r *MongoRepository) ListUsernames(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "username", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *MongoRepository) UpdateVisited(ctx context.Context, username, rid string, mode Mode, now time.Time) (Transition, error) {
	var visited bson.M
	switch mode {
	case ModeAdd:
		visited = addTo("visited", rid)
	case ModeRemove:
		visited = pullFrom("visited", rid)
	default:
		visited = bson.M{"$cond": bson.A{contains("visited", rid), pullFrom("visited", rid), addTo("visited", rid)}}
	}
	pipeline := mongo.Pipeline{
		baseStage(now),
		{{Key: "$set", Value: bson.M{"visited": visited}}},
	}
	return r.transition(ctx, username, now, pipeline, true, func(p *models.UserProfile) {
		applyVisited(p, rid, mode)
	})
}

// UpdateInterest resolves the target state inside the document, then sets both
// sets from it in the same update.
func (r *MongoRepository) UpdateInterest(ctx context.Context, username, rid string, change InterestChange, now time.Time) (Transition, error) {
	const pending = "pendingInterest"
	pipeline := mongo.Pipeline{
		baseStage(now),
		{{Key: "$set", Value: bson.M{pending: resolveExpr(rid, change)}}},
		{{Key: "$set", Value: bson.M{
			"interested":    membership("interested", rid, bson.M{"$eq": bson.A{"$" + pending, string(models.InterestInterested)}}),
			"notInterested": membership("notInterested", rid, bson.M{"$eq": bson.A{"$" + pending, string(models.InterestNotInterested)}}),
		}}},
		{{Key: "$unset", Value: pending}},
	}
	return r.transition(ctx, username, now, pipeline, true, func(p *models.UserProfile) {
		applyInterest(p, rid, change)
	})
}

func (r *MongoRepository) SaveLocation(ctx context.Context, username string, loc models.SavedLocation, now time.Time) (models.UserProfile, error) {
	others := bson.M{"$filter": bson.M{
		"input": arr("savedLocations"),
		"cond":  bson.M{"$ne": bson.A{"$$this.name", literal(loc.Name)}},
	}}
	pipeline := mongo.Pipeline{
		baseStage(now),
		{{Key: "$set", Value: bson.M{"savedLocations": bson.M{"$slice": bson.A{
			bson.M{"$concatArrays": bson.A{bson.A{literal(loc)}, others}},
			models.MaxSavedLocations,
		}}}}},
	}
	t, err := r.transition(ctx, username, now, pipeline, true, func(p *models.UserProfile) {
		applySaveLocation(p, loc)
	})
	return t.After, err
}

func (r *MongoRepository) RemoveSavedLocation(ctx context.Context, username, locationID string, now time.Time) (models.UserProfile, error) {
	pipeline := mongo.Pipeline{
		baseStage(now),
		{{Key: "$set", Value: bson.M{"savedLocations": bson.M{"$filter": bson.M{
			"input": arr("savedLocations"),
			"cond":  bson.M{"$ne": bson.A{"$$this.id", literal(locationID)}},
		}}}}},
	}
	t, err := r.transition(ctx, username, now, pipeline, false, func(p *models.UserProfile) {
		applyRemoveLocation(p, locationID)
	})
	return t.After, err
}

func (r *MongoRepository) transition(ctx context.Context, username string, now time.Time, pipeline mongo.Pipeline, upsert bool, apply func(*models.UserProfile)) (Transition, error) {
	opts := options.FindOneAndUpdate().SetUpsert(upsert).SetReturnDocument(options.Before)

	var before models.UserProfile
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"username": username}, pipeline, opts).Decode(&before)
	if mongo.IsDuplicateKeyError(err) {
		// Two upserts raced to create the user; the retry matches the winner's document.
		before = models.UserProfile{}
		err = r.coll.FindOneAndUpdate(ctx, bson.M{"username": username}, pipeline, opts).Decode(&before)
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments) && upsert:
		before = models.NewUserProfile(username, now)
	case errors.Is(err, mongo.ErrNoDocuments):
		return Transition{}, utils.ErrNotFound
	case err != nil:
		return Transition{}, fmt.Errorf("update user %s: %w", username, err)
	default:
		before = normalize(before)
	}

	after := before.Clone()
	apply(&after)
	after.UpdatedAt = now
	return Transition{Before: before, After: after}, nil
}

// baseStage fills the fields a freshly upserted document lacks and stamps updatedAt.
func baseStage(now time.Time) bson.D {
	return bson.D{{Key: "$set", Value: bson.M{
		"visited":        arr("visited"),
		"interested":     arr("interested"),
		"notInterested":  arr("notInterested"),
		"savedLocations": arr("savedLocations"),
		"createdAt":      bson.M{"$ifNull": bson.A{"$createdAt", literal(now)}},
		"updatedAt":      literal(now),
	}}}
}

func resolveExpr(rid string, change InterestChange) bson.M {
	want := string(change.Want)
	none := string(models.InterestNone)
	current := bson.M{"$cond": bson.A{
		contains("interested", rid), string(models.InterestInterested),
		bson.M{"$cond": bson.A{contains("notInterested", rid), string(models.InterestNotInterested), none}},
	}}

	var in any
	switch change.Mode {
	case ModeSet, ModeAdd:
		in = literal(want)
	case ModeRemove:
		in = bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$$current", want}}, none, "$$current"}}
	default:
		in = bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$$current", want}}, none, literal(want)}}
	}
	return bson.M{"$let": bson.M{"vars": bson.M{"current": current}, "in": in}}
}

func membership(field, rid string, member bson.M) bson.M {
	return bson.M{"$cond": bson.A{member, addTo(field, rid), pullFrom(field, rid)}}
}

func arr(field string) bson.M {
	return bson.M{"$ifNull": bson.A{"$" + field, bson.A{}}}
}

func literal(v any) bson.M {
	return bson.M{"$literal": v}
}

func contains(field, rid string) bson.M {
	return bson.M{"$in": bson.A{literal(rid), arr(field)}}
}

func addTo(field, rid string) bson.M {
	return bson.M{"$cond": bson.A{
		contains(field, rid),
		arr(field),
		bson.M{"$concatArrays": bson.A{arr(field), bson.A{literal(rid)}}},
	}}
}

func pullFrom(field, rid string) bson.M {
	return bson.M{"$filter": bson.M{
		"input": arr(field),
		"cond":  bson.M{"$ne": bson.A{"$$this", literal(rid)}},
	}}
}

func normalize(p models.UserProfile) models.UserProfile {
	if p.Visited == nil {
		p.Visited = []string{}
	}
	if p.Interested == nil {
		p.Interested = []string{}
	}
	if p.NotInterested == nil {
		p.NotInterested = []string{}
	}
	if p.SavedLocations == nil {
		p.SavedLocations = []models.SavedLocation{}
	}
	return p
}
