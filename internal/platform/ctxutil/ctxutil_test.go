// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ownerauth/internal/platform/ctxutil"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
)

/*
TestRequestScope round-trips the request id and the logger.
*/
func TestRequestScope(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ctxutil.RequestID(ctx))
	assert.Equal(t, slog.Default(), ctxutil.Logger(ctx))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx = ctxutil.WithLogger(ctxutil.WithRequestID(ctx, "req-7"), logger)

	assert.Equal(t, "req-7", ctxutil.RequestID(ctx))
	assert.Same(t, logger, ctxutil.Logger(ctx))
}

/*
TestClaims exposes the verified owner and its id.
*/
func TestClaims(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ctxutil.Claims(ctx))
	assert.Empty(t, ctxutil.ActorID(ctx))

	ctx = ctxutil.WithClaims(ctx, &sec.OwnerClaims{UserID: "owner-1", Role: string(sec.RoleSuperAdmin)})

	claims := ctxutil.Claims(ctx)
	require.NotNil(t, claims)
	assert.True(t, claims.UserRole().IsSuperAdmin())
	assert.Equal(t, "owner-1", ctxutil.ActorID(ctx))
}
