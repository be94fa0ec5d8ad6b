// Package mongodb implements the document stores backing users, profiles
// and posts. Read-modify-write cycles on embedded lists are expressed as
// single conditional updates so concurrent requests cannot interleave
// between a read and a write.
package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	profilesCollection = "profiles"
	postsCollection    = "posts"
)

// Connect dials MongoDB, verifies the connection and returns the database
// handle plus a disconnect func for shutdown.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Database, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}

	return client.Database(dbName), client.Disconnect, nil
}

// EnsureIndexes creates the indexes the stores rely on. The unique indexes
// on users.email and profiles.user are load-bearing: handler-level existence
// checks alone cannot close the create/create race between two concurrent
// requests.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(profilesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(postsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}},
	})
	return err
}
