// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration applies the owner-account and reset-request schema with
// golang-migrate before the relational store starts serving.
//
// It only runs when STORE_DRIVER=postgres; the document store bootstraps its
// own indexes.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// file source reads .sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// SchemaVersion is the newest migration under data/migrations. A database
// below it after RunUp means the migration directory is stale.
const SchemaVersion uint = 2

/*
RunUp brings the schema to [SchemaVersion].

Parameters:
  - context: context.Context (cancellation stops between migration files)
  - dsn: string (postgres:// URL or pgx5:// URL)
  - migrationsPath: string (directory holding the .sql files)
  - logger: *slog.Logger

Returns:
  - error: Dirty database, stale directory or a failed statement
*/
func RunUp(context context.Context, dsn string, migrationsPath string, logger *slog.Logger) error {
	migrator, err := migrate.New("file://"+migrationsPath, DriverURL(dsn))
	if err != nil {
		return fmt.Errorf("migration_init_failed: %w", err)
	}
	defer func() {
		sourceError, dbError := migrator.Close()
		if err := errors.Join(sourceError, dbError); err != nil {
			logger.Error("migration_close_failed", slog.Any("error", err))
		}
	}()

	migrator.Log = &migrateLogger{logger: logger, verbose: logger.Enabled(context, slog.LevelDebug)}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-context.Done():
			migrator.GracefulStop <- true
		case <-done:
		}
	}()

	from, isDirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration_version_failed: %w", err)
	}
	if isDirty {
		return fmt.Errorf("migration_dirty: schema stuck at version %d, fix it by hand", from)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration_up_failed: %w", err)
	}

	to, _, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("migration_version_failed: %w", err)
	}
	if to < SchemaVersion {
		return fmt.Errorf("migration_stale: reached version %d, want %d", to, SchemaVersion)
	}

	logger.Info("migration_complete",
		slog.Int("from_version", int(from)),
		slog.Int("to_version", int(to)),
	)
	return nil
}

// DriverURL rewrites postgres:// and postgresql:// to the pgx5:// scheme the
// golang-migrate pgx/v5 driver registers. Other inputs pass through.
func DriverURL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if rest, ok := strings.CutPrefix(dsn, prefix); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

func (adapter *migrateLogger) Printf(format string, args ...any) {
	adapter.logger.Debug("migration_step", slog.String("detail", strings.TrimSpace(fmt.Sprintf(format, args...))))
}

func (adapter *migrateLogger) Verbose() bool {
	return adapter.verbose
}
