// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ownerauth/internal/platform/metrics"
)

/*
TestMiddlewareUsesRoutePattern checks that requests are labelled by pattern, not raw path.
*/
func TestMiddlewareUsesRoutePattern(t *testing.T) {
	collectors := metrics.New()

	router := chi.NewRouter()
	router.Use(collectors.Middleware)
	router.Get("/reset-requests/{id}", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/reset-requests/"+id, nil))
	}

	count := testutil.ToFloat64(collectors.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/reset-requests/{id}", "404"))
	assert.Equal(t, 2.0, count)
}

/*
TestDomainHooksAndHandler checks the domain counters and the exposition endpoint.
*/
func TestDomainHooksAndHandler(t *testing.T) {
	collectors := metrics.New()

	collectors.LoginAttempt("LOGIN", "FAILURE")
	collectors.ResetActivity("APPROVED")
	collectors.Notification("sms", errors.New("gateway down"))
	collectors.Notification("email", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(collectors.LoginAttemptsTotal.WithLabelValues("LOGIN", "FAILURE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collectors.NotificationsTotal.WithLabelValues("sms", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collectors.NotificationsTotal.WithLabelValues("email", "sent")))

	recorder := httptest.NewRecorder()
	collectors.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, strings.Contains(recorder.Body.String(), "ownerauth_reset_activities_total"))
}
