// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package counter

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/ownerauth/internal/platform/request"
	"github.com/taibuivan/ownerauth/internal/platform/respond"
	"github.com/taibuivan/ownerauth/internal/platform/validate"
)

// Request field names.
const (
	FieldEntity = "entity"
	FieldToken  = "token"
)

const maxEntityLength = 64

// Count is the body of every counter response.
type Count struct {
	Count int64 `json:"count"`
}

type incrementRequest struct {
	Entity string `json:"entity"`
	Token  string `json:"token"`
}

// Handler implements the HTTP layer of the counter service.
type Handler struct {
	counterService *Service
}

// NewHandler constructs a counter [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{counterService: service}
}

// Routes returns a [chi.Router] configured with the counter endpoints.
//
// # Endpoints
//   - GET  /?entity=E : Current count, 0 when never incremented.
//   - POST /          : Increments with the shared secret.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.get)
	router.Post("/", handler.increment)
	return router
}

func validEntity(entity string) error {
	validator := &validate.Validator{}
	validator.Required(FieldEntity, entity).MaxLen(FieldEntity, entity, maxEntityLength)
	return validator.Err()
}

// GET /api/v1/counter?entity=E
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	entity := strings.TrimSpace(request.URL.Query().Get(FieldEntity))
	if err := validEntity(entity); err != nil {
		respond.Error(writer, request, err)
		return
	}

	count, err := handler.counterService.Get(request.Context(), entity)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, Count{Count: count})
}

/*
POST /api/v1/counter.

Request:
  - Body: incrementRequest (entity, token)

Response:
  - 200: Count: The new count
  - 403: ErrForbidden: Token does not match COUNTER_SECRET
*/
func (handler *Handler) increment(writer http.ResponseWriter, request *http.Request) {
	var input incrementRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	entity := strings.TrimSpace(input.Entity)
	if err := validEntity(entity); err != nil {
		respond.Error(writer, request, err)
		return
	}

	count, err := handler.counterService.Increment(request.Context(), entity, input.Token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, Count{Count: count})
}
