// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mongo provides the document-store connection used when STORE_DRIVER=mongo.

Architecture:

  - Connect: Dials, pings and returns the configured database handle.
  - Indexes: Each store declares its own [Index] set; [EnsureIndexes] applies them at startup.
  - Helpers: Generic [FindOne] / [FindMany] plus [WrapError] mapping driver errors onto apperr.
*/
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
)

const (
	connectTimeout    = 10 * time.Second
	pingTimeout       = 2 * time.Second
	disconnectTimeout = 5 * time.Second
)

// # Connection

// Connect dials uri, verifies connectivity and returns the named database.
func Connect(ctx context.Context, uri, database string, logger *slog.Logger) (*mongo.Database, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect failed: %w", err)
	}

	if err := Ping(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("mongo_client_connected", slog.String("database", database))
	return client.Database(database), nil
}

// Ping verifies that the primary is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("mongo: ping failed: %w", err)
	}
	return nil
}

// Disconnect closes the client behind db.
func Disconnect(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return db.Client().Disconnect(ctx)
}

// # Indexes

// Index describes one index a store needs.
//
// Partial restricts a unique index to documents matching the filter, which is how
// "one OPEN request per user" is enforced.
type Index struct {
	Collection string
	Keys       bson.D
	Unique     bool
	Partial    bson.D
	Name       string
}

// EnsureIndexes creates every index; existing identical indexes are a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database, indexes []Index) error {
	for _, index := range indexes {
		opts := options.Index().SetUnique(index.Unique)
		if index.Name != "" {
			opts.SetName(index.Name)
		}
		if len(index.Partial) > 0 {
			opts.SetPartialFilterExpression(index.Partial)
		}

		model := mongo.IndexModel{Keys: index.Keys, Options: opts}
		if _, err := db.Collection(index.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("mongo_index_%s_failed: %w", index.Collection, err)
		}
	}
	return nil
}

// # Helpers

// WrapError maps driver errors onto application errors for resource.
func WrapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(resource)
	}
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict(resource + " already exists").WithCause(err)
	}
	return apperr.Internal(err)
}

// FindOne decodes the first document matching filter.
func FindOne[T any](ctx context.Context, collection *mongo.Collection, filter any, resource string, opts ...options.Lister[options.FindOneOptions]) (*T, error) {
	var result T
	if err := collection.FindOne(ctx, filter, opts...).Decode(&result); err != nil {
		return nil, WrapError(err, resource)
	}
	return &result, nil
}

// FindMany decodes every document matching filter. It never returns a nil slice.
func FindMany[T any](ctx context.Context, collection *mongo.Collection, filter any, opts ...options.Lister[options.FindOptions]) ([]T, error) {
	cursor, err := collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, apperr.Internal(err)
	}
	return results, nil
}
