// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ownerauth/internal/platform/sec"
)

/*
TestRole_CanApproveResetFor covers the approver matrix for reset requests.
*/
func TestRole_CanApproveResetFor(t *testing.T) {
	tests := []struct {
		name      string
		approver  sec.UserRole
		requester sec.UserRole
		allowed   bool
	}{
		{"super_admin_approves_admin", sec.RoleSuperAdmin, sec.RoleContentAdmin, true},
		{"admin_cannot_approve_admin", sec.RoleTestAdmin, sec.RoleContentAdmin, false},
		{"admin_approves_creator", sec.RoleContentAdmin, sec.RoleContentCreator, true},
		{"super_admin_approves_verifier", sec.RoleSuperAdmin, sec.RoleApplicantVerifier, true},
		{"operator_cannot_approve_operator", sec.RoleContentModerator, sec.RoleContentCreator, false},
		{"nobody_approves_super_admin", sec.RoleSuperAdmin, sec.RoleSuperAdmin, false},
		{"unknown_requester", sec.RoleSuperAdmin, sec.UserRole("GUEST"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.approver.CanApproveResetFor(tt.requester))
		})
	}
}

/*
TestParseRole verifies normalisation and rejection of unknown roles.
*/
func TestParseRole(t *testing.T) {
	role, ok := sec.ParseRole(" content_admin ")
	assert.True(t, ok)
	assert.Equal(t, sec.RoleContentAdmin, role)

	_, ok = sec.ParseRole("ADMIN")
	assert.False(t, ok)
}

/*
TestGenerateOTP checks the 6-digit numeric format and issuance stamp.
*/
func TestGenerateOTP(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^[1-9][0-9]{5}$`)

	for i := 0; i < 50; i++ {
		code, err := sec.GenerateOTP(now)
		require.NoError(t, err)
		assert.Regexp(t, pattern, code.Code)
		assert.Equal(t, now, code.IssuedAt)
	}
}

/*
TestOTPExpired exercises the window boundary at max-1, max and max+1 units.
*/
func TestOTPExpired(t *testing.T) {
	issued := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	const maxMinutes = 10

	tests := []struct {
		name    string
		elapsed time.Duration
		expired bool
	}{
		{"fresh", 0, false},
		{"max_minus_one", (maxMinutes - 1) * time.Minute, false},
		{"max_minus_one_plus_seconds", (maxMinutes-1)*time.Minute + 59*time.Second, false},
		{"exactly_max", maxMinutes * time.Minute, true},
		{"max_plus_one", (maxMinutes + 1) * time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, sec.OTPExpired(issued, issued.Add(tt.elapsed), time.Minute, maxMinutes))
		})
	}
}

/*
TestTOTP_RoundTrip generates a secret and validates a code computed from it.
*/
func TestTOTP_RoundTrip(t *testing.T) {
	secret, err := sec.GenerateTOTPSecret("CMS4 CEG", "owner@example.com")
	require.NoError(t, err)
	assert.Contains(t, secret.URL, "otpauth://totp/")
	assert.NotEmpty(t, secret.Base32)

	now := time.Now()
	code, err := totp.GenerateCode(secret.Base32, now)
	require.NoError(t, err)

	assert.True(t, sec.ValidateTOTP(code, secret.Base32, now))
	assert.False(t, sec.ValidateTOTP(code, secret.Base32, now.Add(10*time.Minute)))
	assert.False(t, sec.ValidateTOTP("000000x", secret.Base32, now))
}

/*
TestTokenService_IssueAndVerify checks claim round trip and token-use separation.
*/
func TestTokenService_IssueAndVerify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	service := sec.NewTokenServiceFromKeys(key, &key.PublicKey, "ownerauth", time.Minute, time.Hour)

	pair, err := service.IssuePair(sec.TokenSubject{
		UserID:        "user-1",
		Role:          sec.RoleContentAdmin,
		Is2FAEnabled:  false,
		IsValidated:   false,
		ToBeValidated: "email",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(60), pair.ExpiresIn)

	claims, err := service.VerifyToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "OWNER", claims.Type)
	assert.Equal(t, sec.RoleContentAdmin, claims.UserRole())
	assert.False(t, claims.IsValidated)
	assert.Equal(t, "email", claims.ToBeValidated)

	// Refresh tokens are not accepted as access tokens and vice versa
	_, err = service.VerifyToken(pair.RefreshToken)
	assert.ErrorIs(t, err, sec.ErrWrongTokenUse)

	refreshClaims, err := service.VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refreshClaims.UserID)

	other := sec.NewTokenServiceFromKeys(key, &key.PublicKey, "someone-else", time.Minute, time.Hour)
	_, err = other.VerifyToken(pair.AccessToken)
	assert.Error(t, err)
}

/*
TestPasswordHash verifies bcrypt round trip.
*/
func TestPasswordHash(t *testing.T) {
	hash, err := sec.HashPassword("Str0ng!Pass")
	require.NoError(t, err)
	assert.True(t, sec.CheckPasswordHash("Str0ng!Pass", hash))
	assert.False(t, sec.CheckPasswordHash("wrong", hash))
	assert.False(t, sec.CheckPasswordHash("Str0ng!Pass", "not-a-hash"))

	_, err = sec.HashPassword(strings.Repeat("é", 40))
	assert.ErrorIs(t, err, sec.ErrPasswordTooLong)
}
