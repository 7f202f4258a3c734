// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level PostgreSQL errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
)

// SQLSTATE codes the stores care about.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
//
// # Mapping
//   - pgx.ErrNoRows        -> NotFound(resource)
//   - 23505 unique         -> Conflict naming the violated constraint
//   - anything else        -> Internal, with the action kept for server logs
func Wrap(err error, resource string, action string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	if constraint, ok := UniqueViolation(err); ok {
		return apperr.Conflict(resource + " already exists").WithCause(fmt.Errorf("%s: %s: %w", action, constraint, err))
	}

	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// UniqueViolation reports whether err is a unique-constraint violation and returns
// the constraint name.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == CodeUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
