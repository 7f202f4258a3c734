// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package provision_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ownerauth/internal/provision"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// mirror records every call and answers with the configured status per path.
type mirror struct {
	mutex    sync.Mutex
	calls    []string
	bodies   map[string]map[string]any
	statuses map[string]int
	auth     string
}

func newMirror(statuses map[string]int) (*mirror, *httptest.Server) {
	state := &mirror{bodies: map[string]map[string]any{}, statuses: statuses}
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		state.mutex.Lock()
		defer state.mutex.Unlock()

		var body map[string]any
		_ = json.NewDecoder(request.Body).Decode(&body)
		state.calls = append(state.calls, request.URL.Path)
		state.bodies[request.URL.Path] = body
		state.auth = request.Header.Get("Authorization")

		status, ok := state.statuses[request.URL.Path]
		if !ok {
			status = http.StatusCreated
		}
		writer.WriteHeader(status)
	}))
	return state, server
}

var profile = provision.Profile{
	UserID:    "u-1",
	FirstName: "asha",
	LastName:  "rao",
	Role:      "CONTENT_ADMIN",
	Email:     "asha@cms.example",
	Phone:     "9876543210",
}

/*
TestProvision_Chain checks the call order, payload shape and the service token override.
*/
func TestProvision_Chain(t *testing.T) {
	state, server := newMirror(map[string]int{"/ua/user": http.StatusForbidden})
	defer server.Close()

	client := provision.NewClient(provision.Config{
		UAMasterURL:    server.URL + "/ua/",
		ActivityURL:    server.URL + "/ua",
		MediaMasterURL: server.URL + "/media",
		ServiceToken:   "svc",
	}, server.Client(), discard)

	err := client.Provision(context.Background(), profile, provision.Location{IPAddress: "10.0.0.1", City: "Bengaluru"}, "owner-token")
	require.NoError(t, err, "403 from a mirror means the user already exists")

	assert.Equal(t, []string{"/ua/user", "/ua/activity/login", "/media/user"}, state.calls)
	assert.Equal(t, "Bearer svc", state.auth)
	assert.Equal(t, "OWNER", state.bodies["/ua/user"]["user_type"])
	assert.Equal(t, "u-1", state.bodies["/ua/activity/login"]["user"])
	assert.Equal(t, "10.0.0.1", state.bodies["/ua/activity/login"]["ip_address"])
	assert.Equal(t, "OWNER", state.bodies["/media/user"]["content_owner"])
}

/*
TestProvision_StopsOnFailure checks that a failing step aborts the rest of the chain.
*/
func TestProvision_StopsOnFailure(t *testing.T) {
	state, server := newMirror(map[string]int{"/ua/activity/login": http.StatusForbidden})
	defer server.Close()

	client := provision.NewClient(provision.Config{
		UAMasterURL:    server.URL + "/ua",
		ActivityURL:    server.URL + "/ua",
		MediaMasterURL: server.URL + "/media",
	}, server.Client(), discard)

	err := client.Provision(context.Background(), profile, provision.Location{}, "owner-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provision_activity_failed")
	assert.Equal(t, []string{"/ua/user", "/ua/activity/login"}, state.calls)
	assert.Equal(t, "Bearer owner-token", state.auth)
}

/*
TestProvision_SkipsUnconfigured checks that empty base URLs make the chain a no-op.
*/
func TestProvision_SkipsUnconfigured(t *testing.T) {
	client := provision.NewClient(provision.Config{}, nil, discard)
	assert.NoError(t, client.Provision(context.Background(), profile, provision.Location{}, ""))
}
