// Package mongo opens the MongoDB database that backs the document stores.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"helpinghands/internal/platform/config"
)

// Collection names shared by the stores.
const (
	DonorsCollection        = "donors"
	EmergenciesCollection   = "emergencies"
	NotificationsCollection = "notifications"
)

// DB wraps a connected database handle.
type DB struct {
	*mongo.Database
	client *mongo.Client
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, cfg config.StoreConfig) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetAppName("helpinghands"))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &DB{Database: client.Database(cfg.MongoDatabase), client: client}, nil
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
