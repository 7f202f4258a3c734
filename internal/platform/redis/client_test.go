// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/taibuivan/ownerauth/internal/platform/redis"
)

/*
TestNewClient connects to a live server and reports a dead one.
*/
func TestNewClient(t *testing.T) {
	server := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := redisstore.NewClient(context.Background(), "redis://"+server.Addr()+"/3", logger)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 3, client.Options().DB)
	assert.NoError(t, redisstore.Ping(context.Background(), client))

	server.Close()
	assert.Error(t, redisstore.Ping(context.Background(), client))

	_, err = redisstore.Options("not a url")
	assert.Error(t, err)
}
