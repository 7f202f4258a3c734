// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	"github.com/taibuivan/ownerauth/internal/platform/ctxutil"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
	"github.com/taibuivan/ownerauth/internal/users/account"
	"github.com/taibuivan/ownerauth/internal/users/auth"
	"github.com/taibuivan/ownerauth/internal/users/auth/authtest"
)

func seedDirectory() *authtest.MemoryUserRepository {
	repository := authtest.NewMemoryUserRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	owners := []auth.User{
		{ID: "admin", Email: "admin@cms.example", Phone: "1", Role: sec.RoleSuperAdmin, Status: auth.StatusActive, CreatedAt: base},
		{ID: "creator", Email: "creator@cms.example", Phone: "2", Role: sec.RoleContentCreator, Status: auth.StatusActive, CreatedAt: base.Add(time.Hour), CreatedBy: "admin"},
		{ID: "tester", Email: "tester@cms.example", Phone: "3", Role: sec.RoleTestAdmin, Status: auth.StatusDisabled, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "gone", Email: "gone@cms.example", Phone: "4", Role: sec.RoleContentCreator, Status: auth.StatusArchived, CreatedAt: base.Add(3 * time.Hour)},
	}
	for _, owner := range owners {
		repository.Put(owner)
	}
	return repository
}

func ids(summaries []account.Summary) []string {
	result := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		result = append(result, summary.ID)
	}
	return result
}

/*
TestService_List checks role filtering, ordering and archival exclusion.
*/
func TestService_List(t *testing.T) {
	service := account.NewService(seedDirectory())
	ctx := context.Background()

	tests := []struct {
		name     string
		query    account.ListQuery
		expected []string
	}{
		{"default_recent", account.ListQuery{}, []string{"tester", "creator", "admin"}},
		{"old_first", account.ListQuery{CreatedOn: "old"}, []string{"admin", "creator", "tester"}},
		{"all_roles", account.ListQuery{Roles: []string{"ALL"}, CreatedOn: "OLD"}, []string{"admin", "creator", "tester"}},
		{"role_filter", account.ListQuery{Roles: []string{"content_creator", "TEST_ADMIN"}, CreatedOn: "OLD"}, []string{"creator", "tester"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summaries, err := service.List(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(summaries))
		})
	}

	_, err := service.List(ctx, account.ListQuery{Roles: []string{"JANITOR"}})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = service.List(ctx, account.ListQuery{CreatedOn: "SOMETIMES"})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

/*
TestService_Attempts checks ordering, clamping and archived owners.
*/
func TestService_Attempts(t *testing.T) {
	repository := seedDirectory()
	service := account.NewService(repository)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repository.AppendAttempt(ctx, "creator", auth.LoginAttempt{
			Result:  auth.ResultFailure,
			Stage:   auth.StageLogin,
			Remarks: strings.Repeat("x", i+1),
		}))
	}

	attempts, err := service.Attempts(ctx, "creator", 2)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "xxx", attempts[0].Remarks)

	attempts, err = service.Attempts(ctx, "creator", 0)
	require.NoError(t, err)
	assert.Len(t, attempts, 3)

	_, err = service.Attempts(ctx, "gone", 10)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

/*
TestService_SetStatus checks the self-guard and persistence.
*/
func TestService_SetStatus(t *testing.T) {
	repository := seedDirectory()
	service := account.NewService(repository)
	ctx := context.Background()

	_, err := service.SetStatus(ctx, "admin", "admin", auth.StatusDisabled)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	summary, err := service.SetStatus(ctx, "admin", "creator", auth.StatusDisabled)
	require.NoError(t, err)
	assert.Equal(t, auth.StatusDisabled, summary.Status)

	stored, _ := repository.Get("creator")
	assert.Equal(t, auth.StatusDisabled, stored.Status)

	_, err = service.SetStatus(ctx, "admin", "gone", auth.StatusActive)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

/*
TestHandler_Guards checks that only validated super admins reach the directory.
*/
func TestHandler_Guards(t *testing.T) {
	handler := account.NewHandler(account.NewService(seedDirectory())).Routes()

	tests := []struct {
		name   string
		claims *sec.OwnerClaims
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"pending_2fa", &sec.OwnerClaims{UserID: "admin", Role: string(sec.RoleSuperAdmin), ToBeValidated: "2fa"}, http.StatusForbidden},
		{"admin_tier", &sec.OwnerClaims{UserID: "tester", Role: string(sec.RoleTestAdmin), IsValidated: true}, http.StatusForbidden},
		{"super_admin", &sec.OwnerClaims{UserID: "admin", Role: string(sec.RoleSuperAdmin), IsValidated: true}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/?roles=ALL&created_on=OLD", nil)
			if tt.claims != nil {
				request = request.WithContext(ctxutil.WithClaims(request.Context(), tt.claims))
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.status, recorder.Code)
			if tt.status != http.StatusOK {
				return
			}

			var body struct {
				Data []account.Summary `json:"data"`
			}
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
			assert.Equal(t, []string{"admin", "creator", "tester"}, ids(body.Data))
			assert.Equal(t, "admin", body.Data[1].CreatedBy)
		})
	}
}
