package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	RestaurantsCollection *mongo.Collection
	UsersCollection       *mongo.Collection
	SocialFeedCollection  *mongo.Collection
	CommentsCollection    *mongo.Collection
	Client                *mongo.Client
)

// Connect opens the MongoDB client and binds the collections of dbName.
func Connect(ctx context.Context, uri, dbName string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping MongoDB: %w", err)
	}

	Client = client
	database := client.Database(dbName)
	RestaurantsCollection = database.Collection("restaurants")
	UsersCollection = database.Collection("users")
	SocialFeedCollection = database.Collection("socialfeeds")
	CommentsCollection = database.Collection("comments")

	log.Printf("Connected to MongoDB database %q", dbName)
	return nil
}

// CreateIndexes creates the unique, geospatial and recency indexes every store relies on.
func CreateIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		RestaurantsCollection: {
			{Keys: bson.D{{Key: "externalId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "visited", Value: 1}}},
		},
		SocialFeedCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CommentsCollection: {
			{Keys: bson.D{{Key: "restaurantId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "username", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func Disconnect(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	return Client.Disconnect(ctx)
}
