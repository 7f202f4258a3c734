// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"strings"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	"github.com/taibuivan/ownerauth/internal/platform/constants"
	"github.com/taibuivan/ownerauth/internal/platform/ctxutil"
	"github.com/taibuivan/ownerauth/internal/platform/respond"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify access tokens in middleware.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.OwnerClaims, error)
}

// BearerToken extracts the token from an 'Authorization: Bearer <token>' header.
// It reports false when the header is absent or malformed.
func BearerToken(request *http.Request) (string, bool) {
	authHeader := request.Header.Get(constants.HeaderAuthorization)
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. If the header is absent, the request proceeds as anonymous.
//  2. If present, parse and verify the access token via [TokenVerifier].
//  3. Inject [*sec.OwnerClaims] into the request context for downstream use.
//
// Partially validated tokens are accepted here; [RequireValidated] narrows routes
// that need every gate passed.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.Header.Get(constants.HeaderAuthorization) == "" {
				next.ServeHTTP(writer, request)
				return
			}

			tokenStr, ok := BearerToken(request)
			if !ok {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			claims, err := verifier.VerifyToken(tokenStr)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			recordActor(request.Context(), claims.UserID)
			ctx := ctxutil.WithClaims(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.Claims(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireValidated blocks sessions that still have a verification gate outstanding.
func RequireValidated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.Claims(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		if !claims.IsValidated {
			respond.Error(writer, request, apperr.Forbidden("Verification pending: "+claims.ToBeValidated))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests unless the authenticated owner holds one of roles.
//
// It implies [RequireAuth] so you don't need to mount both.
func RequireRole(roles ...sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.Claims(request.Context())
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			for _, role := range roles {
				if claims.UserRole() == role {
					next.ServeHTTP(writer, request)
					return
				}
			}

			respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
		})
	}
}

// RequireApproverTier admits SUPER_ADMIN and admin-tier owners.
func RequireApproverTier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.Claims(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}

		role := claims.UserRole()
		if !role.IsSuperAdmin() && !role.IsAdminTier() {
			respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
			return
		}

		next.ServeHTTP(writer, request)
	})
}
