// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ownerauth/internal/platform/constants"
	"github.com/taibuivan/ownerauth/internal/platform/ctxutil"
	"github.com/taibuivan/ownerauth/internal/platform/middleware"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
)

type stubVerifier struct {
	claims *sec.OwnerClaims
}

func (verifier stubVerifier) VerifyToken(tokenStr string) (*sec.OwnerClaims, error) {
	if tokenStr != "good" {
		return nil, errors.New("bad token")
	}
	return verifier.claims, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
}

func serve(handler http.Handler, header string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		request.Header.Set(constants.HeaderAuthorization, header)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

/*
TestAuthenticate checks anonymous pass-through, malformed headers and claim injection.
*/
func TestAuthenticate(t *testing.T) {
	claims := &sec.OwnerClaims{UserID: "u-1", Role: string(sec.RoleSuperAdmin), IsValidated: true}

	var seen *sec.OwnerClaims
	inner := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = ctxutil.Claims(request.Context())
		writer.WriteHeader(http.StatusOK)
	})
	handler := middleware.Authenticate(stubVerifier{claims: claims})(inner)

	assert.Equal(t, http.StatusOK, serve(handler, "").Code)
	assert.Nil(t, seen)

	assert.Equal(t, http.StatusUnauthorized, serve(handler, "Token good").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(handler, "Bearer bad").Code)

	assert.Equal(t, http.StatusOK, serve(handler, "Bearer good").Code)
	require.NotNil(t, seen)
	assert.Equal(t, "u-1", seen.UserID)
}

/*
TestGuards checks the validated-session and role guards.
*/
func TestGuards(t *testing.T) {
	cases := []struct {
		name       string
		claims     *sec.OwnerClaims
		guard      func(http.Handler) http.Handler
		wantStatus int
	}{
		{"auth anonymous", nil, middleware.RequireAuth, http.StatusUnauthorized},
		{"validated pending", &sec.OwnerClaims{ToBeValidated: "phone"}, middleware.RequireValidated, http.StatusForbidden},
		{"validated ok", &sec.OwnerClaims{IsValidated: true}, middleware.RequireValidated, http.StatusOK},
		{"role mismatch", &sec.OwnerClaims{Role: string(sec.RoleContentCreator)}, middleware.RequireRole(sec.RoleSuperAdmin), http.StatusForbidden},
		{"role match", &sec.OwnerClaims{Role: string(sec.RoleSuperAdmin)}, middleware.RequireRole(sec.RoleSuperAdmin), http.StatusOK},
		{"approver operator", &sec.OwnerClaims{Role: string(sec.RoleContentApprover)}, middleware.RequireApproverTier, http.StatusForbidden},
		{"approver admin", &sec.OwnerClaims{Role: string(sec.RoleTestAdmin)}, middleware.RequireApproverTier, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.claims != nil {
				request = request.WithContext(ctxutil.WithClaims(request.Context(), tc.claims))
			}
			recorder := httptest.NewRecorder()
			tc.guard(okHandler()).ServeHTTP(recorder, request)
			assert.Equal(t, tc.wantStatus, recorder.Code)
		})
	}
}

/*
TestRequestIDAndRealIP checks correlation id propagation and proxy header handling.
*/
func TestRequestIDAndRealIP(t *testing.T) {
	var requestID string
	handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requestID = ctxutil.RequestID(request.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRequestID, "rid-42")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, "rid-42", requestID)
	assert.Equal(t, "rid-42", recorder.Header().Get(constants.HeaderXRequestID))

	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXForwardedFor, "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", middleware.RealIP(request))
}

/*
TestRateLimit checks that the bucket rejects once the burst is spent.
*/
func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.RateLimit(ctx, 0.001, 2)(okHandler())

	assert.Equal(t, http.StatusOK, serve(handler, "").Code)
	assert.Equal(t, http.StatusOK, serve(handler, "").Code)

	limited := serve(handler, "")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "RATE_LIMITED")
}

/*
TestStructuredLogger logs the owner resolved by Authenticate.
*/
func TestStructuredLogger(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))

	claims := &sec.OwnerClaims{UserID: "owner-9", IsValidated: true}
	chain := middleware.StructuredLogger(logger)(middleware.Authenticate(stubVerifier{claims: claims})(
		http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
		})))

	serve(chain, "Bearer good")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &line))
	assert.Equal(t, "http_request_finished", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "owner-9", line["user_id"])
	assert.EqualValues(t, http.StatusNotFound, line["status"])
}

/*
TestPanicRecovery answers 500 with the internal error envelope.
*/
func TestPanicRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := middleware.PanicRecovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := serve(handler, "")
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "INTERNAL")
	assert.NotContains(t, recorder.Body.String(), "boom")
}
