// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package counter issues monotonically increasing per-entity sequence numbers.

Architecture:

  - Store: [RedisStore] keeps one INCR key per entity, so increments are atomic
    across every API replica.
  - Service: Guards increments behind the shared counter secret.
  - Transport: [Handler] exposes the service over HTTP and [Client] consumes a
    remote instance with the same contract.
*/
package counter

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	"github.com/taibuivan/ownerauth/internal/platform/constants"
)

// Store persists the per-entity counters.
type Store interface {
	// Get returns the current count, or 0 for an entity never incremented.
	Get(ctx context.Context, entity string) (int64, error)

	// Increment adds one and returns the new count. The first call returns 1.
	Increment(ctx context.Context, entity string) (int64, error)
}

// # Redis Store

// RedisStore implements [Store] with one string key per entity.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore binds the store to client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func key(entity string) string {
	return constants.RedisPrefixCounter + entity
}

// Get returns the current count of entity.
func (store *RedisStore) Get(context context.Context, entity string) (int64, error) {
	count, err := store.client.Get(context, key(entity)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("counter_store_get_failed: %w", err)
	}
	return count, nil
}

// Increment atomically bumps entity.
func (store *RedisStore) Increment(context context.Context, entity string) (int64, error) {
	count, err := store.client.Incr(context, key(entity)).Result()
	if err != nil {
		return 0, fmt.Errorf("counter_store_increment_failed: %w", err)
	}
	return count, nil
}

// # Service

// ErrInvalidToken is returned when an increment carries the wrong secret.
var ErrInvalidToken = apperr.Forbidden("Invalid counter token")

// Service exposes the counters to remote callers.
type Service struct {
	store  Store
	secret string
}

// NewService constructs a [Service] accepting increments signed with secret.
func NewService(store Store, secret string) *Service {
	return &Service{store: store, secret: secret}
}

// Get returns the current count of entity.
func (service *Service) Get(context context.Context, entity string) (int64, error) {
	count, err := service.store.Get(context, entity)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return count, nil
}

/*
Increment bumps entity when token matches the shared secret.

Returns:
  - int64: The new count
  - error: ErrInvalidToken or an internal error
*/
func (service *Service) Increment(context context.Context, entity, token string) (int64, error) {
	if service.secret == "" || subtle.ConstantTimeCompare([]byte(service.secret), []byte(token)) != 1 {
		return 0, ErrInvalidToken
	}

	count, err := service.store.Increment(context, entity)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return count, nil
}
