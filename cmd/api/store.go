// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/ownerauth/internal/platform/config"
	"github.com/taibuivan/ownerauth/internal/platform/migration"
	mongostore "github.com/taibuivan/ownerauth/internal/platform/mongo"
	pgstore "github.com/taibuivan/ownerauth/internal/platform/postgres"
	"github.com/taibuivan/ownerauth/internal/users/auth"
	"github.com/taibuivan/ownerauth/internal/users/reset"
)

// stores bundles the repositories of the selected driver.
type stores struct {
	name     string
	users    auth.UserRepository
	requests reset.RequestRepository
	ping     func() error
	close    func()
}

// openStores connects the driver named by STORE_DRIVER and prepares its schema.
func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}

		if err := migration.RunUp(ctx, cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			pool.Close()
			return nil, err
		}

		return &stores{
			name:     config.DriverPostgres,
			users:    auth.NewUserRepository(pool),
			requests: reset.NewRequestRepository(pool),
			ping:     func() error { return pgstore.Ping(context.Background(), pool) },
			close: func() {
				log.Info("closing postgres pool")
				pool.Close()
			},
		}, nil

	case config.DriverMongo:
		db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			return nil, err
		}

		indexes := append(auth.UserIndexes(), reset.RequestIndexes()...)
		if err := mongostore.EnsureIndexes(ctx, db, indexes); err != nil {
			_ = mongostore.Disconnect(db)
			return nil, err
		}

		return &stores{
			name:     config.DriverMongo,
			users:    auth.NewMongoUserRepository(db),
			requests: reset.NewMongoRequestRepository(db),
			ping:     func() error { return mongostore.Ping(context.Background(), db.Client()) },
			close: func() {
				log.Info("closing mongo client")
				if err := mongostore.Disconnect(db); err != nil {
					log.Error("mongo_close_failed", slog.Any("error", err))
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
