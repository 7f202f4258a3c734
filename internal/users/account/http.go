// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/ownerauth/internal/platform/middleware"
	requestutil "github.com/taibuivan/ownerauth/internal/platform/request"
	"github.com/taibuivan/ownerauth/internal/platform/respond"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
	"github.com/taibuivan/ownerauth/internal/platform/validate"
	"github.com/taibuivan/ownerauth/internal/users/auth"
)

// Handler implements the HTTP layer of the owner directory.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the directory endpoints.
//
// # Endpoints
//   - GET   /               : Lists owners.
//   - GET   /{id}/attempts  : Recent login attempts of one owner.
//   - PATCH /{id}/status    : Enables, disables or archives an owner.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireValidated)
	router.Use(middleware.RequireRole(sec.RoleSuperAdmin))

	router.Get("/", handler.list)
	router.Get("/{id}/attempts", handler.attempts)
	router.Patch("/{id}/status", handler.setStatus)

	return router
}

/*
GET /api/v1/users.

Description: Lists non-archived owners.

Request:
  - roles: string (CSV of roles, or ALL)
  - created_on: string (RECENT | OLD, default RECENT)

Response:
  - 200: []Summary
  - 400: Validation: Unknown role or sort order
  - 403: ErrForbidden: Not a validated SUPER_ADMIN
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	users, err := handler.accountService.List(request.Context(), ListQuery{
		Roles:     requestutil.QueryCSV(request, FieldRoles),
		CreatedOn: strings.TrimSpace(request.URL.Query().Get(FieldCreatedOn)),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, users)
}

/*
GET /api/v1/users/{id}/attempts.

Response:
  - 200: []auth.LoginAttempt: Newest first
  - 404: ErrNotFound: Unknown or archived owner
*/
func (handler *Handler) attempts(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, "id")

	limit := 0
	if raw := request.URL.Query().Get(FieldLimit); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respond.Error(writer, request, validate.RequiredError(FieldLimit, "Must be a number"))
			return
		}
		limit = parsed
	}

	attempts, err := handler.accountService.Attempts(request.Context(), userID, limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, attempts)
}

type statusRequest struct {
	Status string `json:"status"`
}

/*
PATCH /api/v1/users/{id}/status.

Request:
  - body: statusRequest (ACTIVE | DISABLED | ARCHIVED)

Response:
  - 200: Summary: The updated owner
  - 403: ErrForbidden: Changing one's own status
*/
func (handler *Handler) setStatus(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input statusRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	status := strings.ToUpper(strings.TrimSpace(input.Status))
	validator := &validate.Validator{}
	validator.OneOf("status", status, string(auth.StatusActive), string(auth.StatusDisabled), string(auth.StatusArchived))
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	summary, err := handler.accountService.SetStatus(request.Context(), claims.UserID, requestutil.Param(request, "id"), auth.AccountStatus(status))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, summary)
}
