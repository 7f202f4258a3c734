// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres opens the pgx pool behind the relational owner and
// reset-request stores and provides the transaction helper they share.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/ownerauth/internal/platform/constants"
)

// Pool sizing for an auth workload: short transactions, bursty logins.
const (
	maxConns          = 15
	minConns          = 2
	maxConnLifetime   = 30 * time.Minute
	maxConnIdleTime   = 5 * time.Minute
	healthCheckPeriod = 1 * time.Minute
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second
)

/*
NewPool parses dsn, sizes the pool for short auth transactions and pings once.

Parameters:
  - ctx: context.Context (bounds the first connection)
  - dsn: string (postgres:// URL or libpq keyword string)
  - logger: *slog.Logger

Returns:
  - *pgxpool.Pool: Ready pool, every session capped by statement_timeout
  - error: Bad DSN or unreachable server
*/
func NewPool(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres_dsn_invalid: %w", err)
	}

	config.MaxConns, config.MinConns = maxConns, minConns
	config.MaxConnLifetime, config.MaxConnIdleTime = maxConnLifetime, maxConnIdleTime
	config.HealthCheckPeriod = healthCheckPeriod
	config.ConnConfig.ConnectTimeout = connectTimeout
	config.ConnConfig.RuntimeParams["application_name"] = constants.AppName
	config.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", constants.GlobalRequestTimeout.Milliseconds())

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres_pool_failed: %w", err)
	}
	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres_pool_connected",
		slog.String("host", config.ConnConfig.Host),
		slog.String("database", config.ConnConfig.Database),
		slog.Int("max_conns", int(config.MaxConns)),
	)
	return pool, nil
}

// Ping is the readiness probe for the relational store.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres_ping_failed: %w", err)
	}
	return nil
}

// InTx commits when fn returns nil and rolls back otherwise.
func InTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres_begin_failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres_commit_failed: %w", err)
	}
	return nil
}
