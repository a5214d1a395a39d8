package userdata

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

func testRepo(t *testing.T) *MongoRepository {
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

	coll := client.Database("tastemap_test").Collection("users_" + time.Now().Format("150405.000000"))
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	t.Cleanup(func() { coll.Drop(context.Background()) })
	return NewMongoRepository(coll)
}

func TestMongoRepositoryMatchesMemorySemantics(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	tr, err := repo.UpdateVisited(ctx, "alice", "n1", ModeToggle, now)
	if err != nil || !tr.After.HasVisited("n1") || tr.Before.HasVisited("n1") {
		t.Fatalf("first toggle: %+v %v", tr, err)
	}
	tr, _ = repo.UpdateVisited(ctx, "alice", "n1", ModeToggle, now)
	if tr.After.HasVisited("n1") {
		t.Fatal("second toggle should clear")
	}

	repo.UpdateInterest(ctx, "alice", "n2", InterestChange{Want: models.InterestNotInterested, Mode: ModeToggle}, now)
	repo.UpdateInterest(ctx, "alice", "n2", InterestChange{Want: models.InterestInterested, Mode: ModeToggle}, now)
	stored, err := repo.GetOrCreate(ctx, "alice", now)
	if err != nil || stored.InterestIn("n2") != models.InterestInterested || len(stored.NotInterested) != 0 {
		t.Fatalf("interest: %+v %v", stored, err)
	}

	for i, name := range []string{"Home", "Work", "Home"} {
		loc := models.SavedLocation{ID: name + string(rune('a'+i)), Name: name, Coordinates: []float64{float64(i), 0}, SavedAt: now}
		if _, err := repo.SaveLocation(ctx, "alice", loc, now); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	stored, _ = repo.GetOrCreate(ctx, "alice", now)
	if len(stored.SavedLocations) != 2 || stored.SavedLocations[0].Name != "Home" || stored.SavedLocations[0].Coordinates[0] != 2 {
		t.Fatalf("saved locations: %+v", stored.SavedLocations)
	}

	if _, err := repo.RemoveSavedLocation(ctx, "nobody", "x", now); err == nil {
		t.Fatal("expected not found for unknown user")
	}
}

func TestMongoRepositoryConcurrentToggles(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := repo.GetOrCreate(ctx, "carol", time.Now())
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := repo.UpdateVisited(ctx, "bob", "n1", ModeToggle, time.Now())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent first write failed: %v", err)
		}
	}

	users, err := repo.ListUsernames(ctx)
	if err != nil || len(users) != 2 || users[0] != "bob" || users[1] != "carol" {
		t.Fatalf("expected one profile per user, got %v %v", users, err)
	}

	p, err := repo.GetOrCreate(ctx, "bob", time.Now())
	if err != nil || p.HasVisited("n1") {
		t.Fatalf("even toggles should leave n1 unvisited: %+v %v", p, err)
	}
}
