// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis builds the go-redis client shared by the entity counter and the
realtime pub/sub bridge.

INCR backs the per-entity sequence numbers. Pub/Sub carries realtime events
between API replicas; each PSubscribe pins one pooled connection for its
lifetime, so the pool keeps headroom above the command load.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	poolSize     = 12
	minIdleConns = 2
	dialTimeout  = 3 * time.Second
	ioTimeout    = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

// Options parses redisURL and applies the pool sizing used by this service.
func Options(redisURL string) (*redis.Options, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis_url_invalid: %w", err)
	}

	options.PoolSize = poolSize
	options.MinIdleConns = minIdleConns
	options.DialTimeout = dialTimeout
	options.ReadTimeout = ioTimeout
	options.WriteTimeout = ioTimeout
	return options, nil
}

// NewClient connects to redisURL and fails unless the server answers PING.
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := Options(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(options)
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
	)
	return client, nil
}

// Ping is the readiness probe for the cache.
func Ping(context stdctx.Context, client redis.UniversalClient) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis_ping_failed: %w", err)
	}
	return nil
}
