// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reset_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ownerauth/internal/platform/ctxutil"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
	"github.com/taibuivan/ownerauth/internal/users/reset"
)

func serve(handler http.Handler, method, target, body string, claims *sec.OwnerClaims) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		request = request.WithContext(ctxutil.WithClaims(request.Context(), claims))
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

/*
TestHandler_Create answers 200 for a new request and 202 for the existing one.
*/
func TestHandler_Create(t *testing.T) {
	f := newFixture(t)
	handler := reset.NewHandler(f.service).Routes()

	first := serve(handler, http.MethodPost, "/", `{"email_id":"asha@cms.example"}`, nil)
	require.Equal(t, http.StatusOK, first.Code)

	var body struct {
		Data reset.Submission `json:"data"`
	}
	require.NoError(t, json.NewDecoder(first.Body).Decode(&body))
	assert.Equal(t, int64(42), body.Data.RequestID)

	second := serve(handler, http.MethodPost, "/", `{"email_id":"asha@cms.example"}`, nil)
	assert.Equal(t, http.StatusAccepted, second.Code)

	invalid := serve(handler, http.MethodPost, "/", `{"email_id":"not-an-email"}`, nil)
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
}

/*
TestHandler_ApproverRoutes guards listing and decisions behind the approver tier.
*/
func TestHandler_ApproverRoutes(t *testing.T) {
	f := newFixture(t)
	handler := reset.NewHandler(f.service).Routes()
	id := f.file(t)

	creator := &sec.OwnerClaims{UserID: requesterID, Role: string(sec.RoleContentCreator), IsValidated: true}
	admin := &sec.OwnerClaims{UserID: approverID, Role: string(sec.RoleContentAdmin), IsValidated: true}

	assert.Equal(t, http.StatusUnauthorized, serve(handler, http.MethodGet, "/", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(handler, http.MethodGet, "/", "", creator).Code)

	listed := serve(handler, http.MethodGet, "/?status=open", "", admin)
	require.Equal(t, http.StatusOK, listed.Code)

	assert.Equal(t, http.StatusBadRequest, serve(handler, http.MethodGet, "/?status=PENDING", "", admin).Code)

	decided := serve(handler, http.MethodPatch, "/"+id+"/status", `{"status":"approved","remarks":"ok"}`, admin)
	require.Equal(t, http.StatusOK, decided.Code)
	assert.Equal(t, reset.ActivityApproved, f.stored(t, id).Latest())

	again := serve(handler, http.MethodPatch, "/"+id+"/status", `{"status":"REJECTED"}`, admin)
	assert.Equal(t, http.StatusForbidden, again.Code)
}

/*
TestHandler_RequesterFlow validates the code and resets the password over HTTP.
*/
func TestHandler_RequesterFlow(t *testing.T) {
	f := newFixture(t)
	handler := reset.NewHandler(f.service).Routes()
	id, code := f.approved(t)
	target := "/" + id + "/password"

	mismatch := serve(handler, http.MethodPatch, target,
		`{"user_id":"u-1","otp":"`+code+`","new_password":"NewSecret@1","repeat_password":"NewSecret@2"}`, nil)
	assert.Equal(t, http.StatusBadRequest, mismatch.Code)

	early := serve(handler, http.MethodPatch, target,
		`{"user_id":"u-1","otp":"`+code+`","new_password":"NewSecret@1","repeat_password":"NewSecret@1"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, early.Code)

	validated := serve(handler, http.MethodPost, "/"+id+"/otp/validate", `{"user_id":"u-1","otp":"`+code+`"}`, nil)
	require.Equal(t, http.StatusOK, validated.Code)

	missingCode := serve(handler, http.MethodPatch, target,
		`{"user_id":"u-1","new_password":"NewSecret@1","repeat_password":"NewSecret@1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, missingCode.Code)

	done := serve(handler, http.MethodPatch, target,
		`{"user_id":"u-1","otp":"`+code+`","new_password":"NewSecret@1","repeat_password":"NewSecret@1"}`, nil)
	require.Equal(t, http.StatusOK, done.Code)
	assert.Equal(t, reset.StatusClosed, f.stored(t, id).Status)
}

/*
TestHandler_DirectReset keeps the SUPER_ADMIN reset behind the owner's own
validated session.
*/
func TestHandler_DirectReset(t *testing.T) {
	f := newFixture(t)
	handler := reset.NewHandler(f.service).Routes()

	filed := serve(handler, http.MethodPost, "/", `{"email_id":"meera@cms.example"}`, nil)
	require.Equal(t, http.StatusOK, filed.Code)

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(filed.Body).Decode(&body))
	assert.Equal(t, true, body.Data["direct_reset"])
	assert.NotContains(t, body.Data, "user_id")

	payload := `{"user_id":"s-1","new_password":"NewSecret@1","repeat_password":"NewSecret@1"}`
	super := &sec.OwnerClaims{UserID: superID, Role: string(sec.RoleSuperAdmin), IsValidated: true}
	pending := &sec.OwnerClaims{UserID: superID, Role: string(sec.RoleSuperAdmin), ToBeValidated: "2FA"}
	other := &sec.OwnerClaims{UserID: approverID, Role: string(sec.RoleContentAdmin), IsValidated: true}
	creator := &sec.OwnerClaims{UserID: requesterID, Role: string(sec.RoleContentCreator), IsValidated: true}

	assert.Equal(t, http.StatusUnauthorized, serve(handler, http.MethodPatch, "/password", payload, nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(handler, http.MethodPatch, "/password", payload, pending).Code)
	assert.Equal(t, http.StatusForbidden, serve(handler, http.MethodPatch, "/password", payload, other).Code)
	assert.Equal(t, http.StatusForbidden, serve(handler, http.MethodPatch, "/password",
		`{"user_id":"u-1","new_password":"NewSecret@1","repeat_password":"NewSecret@1"}`, creator).Code)

	user, _ := f.users.Get(superID)
	assert.False(t, sec.CheckPasswordHash("NewSecret@1", user.PasswordHash))

	done := serve(handler, http.MethodPatch, "/password", payload, super)
	require.Equal(t, http.StatusOK, done.Code)

	user, _ = f.users.Get(superID)
	assert.True(t, sec.CheckPasswordHash("NewSecret@1", user.PasswordHash))
}
