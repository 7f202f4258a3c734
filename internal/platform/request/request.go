// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	"github.com/taibuivan/ownerauth/internal/platform/ctxutil"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
	"github.com/taibuivan/ownerauth/internal/platform/validate"
	"github.com/taibuivan/ownerauth/pkg/query"
)

// maxBodyBytes caps JSON payloads; every body in this API is a small form.
const maxBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, request.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(request, name))
}

/*
QueryCSV splits a comma-separated query parameter into trimmed values.
*/
func QueryCSV(request *http.Request, name string) []string {
	return query.StringSlice(request.URL.Query().Get(name))
}

/*
Claims extracts the authenticated owner claims from the request context.

Returns nil if the request is not authenticated.
*/
func Claims(request *http.Request) *sec.OwnerClaims {
	return ctxutil.Claims(request.Context())
}

/*
RequiredClaims ensures the request is authenticated and returns the owner claims.

Returns:
  - *sec.OwnerClaims: The authenticated owner claims
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredClaims(request *http.Request) (*sec.OwnerClaims, error) {
	claims := ctxutil.Claims(request.Context())
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return claims, nil
}

/*
RequiredSelf ensures the authenticated owner is acting on their own account.

Parameters:
  - request: *http.Request
  - userID: string (the account id named in the payload)

Returns:
  - *sec.OwnerClaims: The authenticated owner claims
  - error: apperr.Unauthorized or apperr.Forbidden
*/
func RequiredSelf(request *http.Request, userID string) (*sec.OwnerClaims, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return nil, err
	}
	if userID != "" && claims.UserID != userID {
		return nil, apperr.Forbidden("You do not have required permissions to perform this action.")
	}
	return claims, nil
}
