package restaurants

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tastemap/models"
)

func testCollection(t *testing.T) *mongo.Collection {
	t.Helper()
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	coll := client.Database("tastemap_test").Collection("restaurants_" + time.Now().Format("150405.000000"))
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "externalId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
	})
	if err != nil {
		t.Fatalf("indexes: %v", err)
	}
	t.Cleanup(func() { coll.Drop(context.Background()) })
	return coll
}

func TestMongoStoreUpsertAndFindNear(t *testing.T) {
	store := NewMongoStore(testCollection(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Upsert(ctx, observed("m1", "Cafe X", -33.8, 151.2), now); err != nil {
				t.Errorf("upsert: %v", err)
			}
		}()
	}
	wg.Wait()

	n, err := store.coll.CountDocuments(ctx, bson.M{"externalId": "m1"})
	if err != nil || n != 1 {
		t.Fatalf("expected one document, got %d (%v)", n, err)
	}

	res, err := store.Upsert(ctx, models.ObservedRestaurant{ID: "m1", Cuisine: "Thai"}, now.Add(time.Minute))
	if err != nil || res.Changes["cuisine"] != "Thai" {
		t.Fatalf("patch: %+v %v", res, err)
	}

	near, err := store.FindNear(ctx, models.Point{Lat: -33.801, Lng: 151.2}, 500, "thai")
	if err != nil || len(near) != 1 || near[0].Version != 2 {
		t.Fatalf("find near: %+v %v", near, err)
	}
	far, _ := store.FindNear(ctx, models.Point{Lat: -34.5, Lng: 151.2}, 500, "")
	if len(far) != 0 {
		t.Fatalf("expected no results, got %d", len(far))
	}
}

func TestMongoStoreMergesIntoUnversionedDocument(t *testing.T) {
	store := NewMongoStore(testCollection(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	legacy := bson.M{
		"externalId":  "legacy1",
		"name":        "Old Name",
		"type":        "restaurant",
		"cuisine":     "Not specified",
		"address":     "Address not available",
		"location":    bson.M{"type": "Point", "coordinates": bson.A{151.2, -33.8}},
		"lastUpdated": now.Add(-time.Hour),
	}
	if _, err := store.coll.InsertOne(ctx, legacy); err != nil {
		t.Fatalf("insert legacy: %v", err)
	}

	res, err := store.Upsert(ctx, models.ObservedRestaurant{ID: "legacy1", Name: "New Name"}, now)
	if err != nil || res.Changes["name"] != "New Name" {
		t.Fatalf("merge into unversioned document: %+v %v", res, err)
	}
	got, err := store.FindByExternalID(ctx, "legacy1")
	if err != nil || got.Name != "New Name" || got.Version != 1 {
		t.Fatalf("stored %+v %v", got, err)
	}
}
