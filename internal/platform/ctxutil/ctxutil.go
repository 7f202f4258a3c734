// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil carries per-request values through [context.Context]: the
// correlation id, the request-scoped logger and the verified owner claims.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/ownerauth/internal/platform/sec"
)

type key uint8

const (
	requestIDKey key = iota
	loggerKey
	claimsKey
)

// # Request Tracing

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the X-Request-ID value, or "" outside a request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// # Structured Logging

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// Logger returns the request logger, falling back to [slog.Default].
func Logger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// # Owner Identity

func WithClaims(ctx context.Context, claims *sec.OwnerClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Claims returns the verified token claims, or nil for anonymous calls.
func Claims(ctx context.Context) *sec.OwnerClaims {
	claims, _ := ctx.Value(claimsKey).(*sec.OwnerClaims)
	return claims
}

// ActorID returns the owner id of the caller, or "" when anonymous.
func ActorID(ctx context.Context) string {
	if claims := Claims(ctx); claims != nil {
		return claims.UserID
	}
	return ""
}
