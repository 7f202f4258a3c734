// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ownerauth/internal/platform/constants"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
	"github.com/taibuivan/ownerauth/internal/realtime"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeVerifier map[string]*sec.OwnerClaims

func (verifier fakeVerifier) VerifyToken(token string) (*sec.OwnerClaims, error) {
	claims, ok := verifier[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

var verifier = fakeVerifier{
	"super":   {UserID: "s-1", Role: string(sec.RoleSuperAdmin), IsValidated: true},
	"admin":   {UserID: "a-1", Role: string(sec.RoleTestAdmin), IsValidated: true},
	"creator": {UserID: "u-1", Role: string(sec.RoleContentCreator), IsValidated: true},
	"pending": {UserID: "s-2", Role: string(sec.RoleSuperAdmin), ToBeValidated: "2fa"},
}

type recordingPublisher struct {
	events []realtime.Event
	err    error
}

func (publisher *recordingPublisher) Publish(_ context.Context, event realtime.Event) error {
	publisher.events = append(publisher.events, event)
	return publisher.err
}

/*
TestFanout delivers to every publisher even when one fails.
*/
func TestFanout(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("broker down")}
	healthy := &recordingPublisher{}

	event, err := realtime.NewEvent(constants.RoomOwnerSuperAdmin, constants.EventNewRequest, map[string]int{"request_id": 7})
	require.NoError(t, err)

	err = realtime.Fanout{failing, healthy}.Publish(context.Background(), event)
	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, failing.events, 1)
	assert.Len(t, healthy.events, 1)
	assert.JSONEq(t, `{"request_id":7}`, string(healthy.events[0].Data))

	assert.NoError(t, realtime.Fanout{}.Publish(context.Background(), event))
}

/*
TestRedisPublisher publishes on the prefixed room channel.
*/
func TestRedisPublisher(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	subscription := client.Subscribe(context.Background(), "realtime:owner-super-admin")
	t.Cleanup(func() { _ = subscription.Close() })
	_, err := subscription.Receive(context.Background())
	require.NoError(t, err)

	event, err := realtime.NewEvent(constants.RoomOwnerSuperAdmin, constants.EventNewRequest, nil)
	require.NoError(t, err)
	require.NoError(t, realtime.NewRedisPublisher(client).Publish(context.Background(), event))

	select {
	case message := <-subscription.Channel():
		var got realtime.Event
		require.NoError(t, json.Unmarshal([]byte(message.Payload), &got))
		assert.Equal(t, constants.EventNewRequest, got.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

/*
TestSocketHandler_Guards admits validated super admins and admin-tier owners only.
*/
func TestSocketHandler_Guards(t *testing.T) {
	handler := realtime.NewSocketHandler(realtime.NewHub(discard), verifier, []string{"*"})

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"anonymous", "/ws/owner", http.StatusUnauthorized},
		{"bad_token", "/ws/owner?token=forged", http.StatusUnauthorized},
		{"operator", "/ws/owner?token=creator", http.StatusForbidden},
		{"pending_gate", "/ws/owner?token=pending", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.status, recorder.Code)
		})
	}
}

/*
TestBridge_DeliversToSocket relays a redis publication to a connected dashboard.
*/
func TestBridge_DeliversToSocket(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hub := realtime.NewHub(discard)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() { done <- realtime.NewBridge(client, hub, discard).Run(ctx) }()
	require.Eventually(t, func() bool { return server.PubSubNumPat() == 1 }, 2*time.Second, 10*time.Millisecond)

	httpServer := httptest.NewServer(realtime.NewSocketHandler(hub, verifier, []string{"*"}))
	t.Cleanup(httpServer.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(httpServer.URL, "http")+"?token=admin", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return hub.Size(constants.RoomOwnerSuperAdmin) == 1 }, 2*time.Second, 10*time.Millisecond)

	event, err := realtime.NewEvent(constants.RoomOwnerSuperAdmin, constants.EventNewRequest, map[string]string{"id": "r-1"})
	require.NoError(t, err)
	require.NoError(t, realtime.NewRedisPublisher(client).Publish(context.Background(), event))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got realtime.Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, constants.RoomOwnerSuperAdmin, got.Room)
	assert.JSONEq(t, `{"id":"r-1"}`, string(got.Data))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not stop")
	}
}

/*
TestHub_BroadcastScopesRooms ignores events for rooms nobody joined.
*/
func TestHub_BroadcastScopesRooms(t *testing.T) {
	hub := realtime.NewHub(discard)
	event, err := realtime.NewEvent("elsewhere", "noop", nil)
	require.NoError(t, err)
	assert.Zero(t, hub.Broadcast(event))
}
