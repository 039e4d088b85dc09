package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	donorservice "helpinghands/internal/donor/service"
	donorstore "helpinghands/internal/donor/store"
	emergencyservice "helpinghands/internal/emergency/service"
	emergencystore "helpinghands/internal/emergency/store"
	"helpinghands/internal/notification/notifier"
	notificationservice "helpinghands/internal/notification/service"
	notificationstore "helpinghands/internal/notification/store"
	"helpinghands/internal/platform/config"
	"helpinghands/internal/platform/mongo"
	"helpinghands/internal/platform/postgres"
)

type notificationStore interface {
	notifier.Store
	notificationservice.Store
}

type stores struct {
	donors        donorservice.Store
	emergencies   emergencyservice.Store
	notifications notificationStore
	close         func()
}

func openStores(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.StoreMongo:
		db, err := mongo.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		donors := donorstore.NewMongo(db.Collection(mongo.DonorsCollection))
		emergencies := emergencystore.NewMongo(db.Collection(mongo.EmergenciesCollection))
		notifications := notificationstore.NewMongo(db.Collection(mongo.NotificationsCollection))
		for name, ensure := range map[string]func(context.Context) error{
			"donors":        donors.EnsureIndexes,
			"emergencies":   emergencies.EnsureIndexes,
			"notifications": notifications.EnsureIndexes,
		} {
			if err := ensure(ctx); err != nil {
				_ = db.Close(context.Background())
				return nil, fmt.Errorf("ensure %s indexes: %w", name, err)
			}
		}
		log.Info("using mongo store", "database", cfg.MongoDatabase)
		return &stores{
			donors:        donors,
			emergencies:   emergencies,
			notifications: notifications,
			close:         func() { _ = db.Close(context.Background()) },
		}, nil

	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("using postgres store")
		return postgresStores(db), nil

	default:
		log.Info("using in-memory store")
		return &stores{
			donors:        donorstore.NewInMemory(),
			emergencies:   emergencystore.NewInMemory(),
			notifications: notificationstore.NewInMemory(),
			close:         func() {},
		}, nil
	}
}

func postgresStores(db *sql.DB) *stores {
	return &stores{
		donors:        donorstore.NewPostgres(db),
		emergencies:   emergencystore.NewPostgres(db),
		notifications: notificationstore.NewPostgres(db),
		close:         func() { _ = db.Close() },
	}
}
