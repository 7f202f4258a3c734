// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ownerauth/internal/api"
)

type readyBody struct {
	Data struct {
		Status string `json:"status"`
		Checks []struct {
			Name string `json:"name"`
			OK   bool   `json:"ok"`
		} `json:"checks"`
	} `json:"data"`
}

/*
TestReadiness reports 200 when every dependency answers and 503 otherwise.
*/
func TestReadiness(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	healthy := func() error { return nil }

	liveness, ready := api.NewHealthHandlers(api.HealthDependencies{
		DatabaseName:  "mongo",
		CheckDatabase: healthy,
		CheckCache:    healthy,
	}, logger)

	recorder := httptest.NewRecorder()
	liveness(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = httptest.NewRecorder()
	ready(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var body readyBody
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, "ready", body.Data.Status)
	require.Len(t, body.Data.Checks, 2)
	assert.Equal(t, "mongo", body.Data.Checks[0].Name)

	_, degraded := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: healthy,
		CheckCache:    func() error { return errors.New("connection refused") },
	}, logger)

	recorder = httptest.NewRecorder()
	degraded(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	body = readyBody{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Data.Status)
	assert.Equal(t, "database", body.Data.Checks[0].Name)
	assert.False(t, body.Data.Checks[1].OK)
}
