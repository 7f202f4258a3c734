// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reset

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/ownerauth/internal/platform/middleware"
	requestutil "github.com/taibuivan/ownerauth/internal/platform/request"
	"github.com/taibuivan/ownerauth/internal/platform/respond"
	"github.com/taibuivan/ownerauth/internal/platform/validate"
	"github.com/taibuivan/ownerauth/internal/users/auth"
	"github.com/taibuivan/ownerauth/pkg/pagination"
)

// Request field names.
const (
	FieldStatus  = "status"
	FieldRemarks = "remarks"
)

// Handler implements the HTTP layer of the reset workflow.
type Handler struct {
	resetService *Service
}

// NewHandler constructs a new reset [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{resetService: service}
}

// Routes returns a [chi.Router] configured with the reset endpoints.
//
// # Endpoints
//   - POST  /                    : Files a request (public).
//   - PATCH /password            : SUPER_ADMIN sets their own password (validated session).
//   - PATCH /{id}/password       : Requester sets the new password with the validated OTP (public).
//   - POST  /{id}/otp/validate   : Requester validates the OTP (public).
//   - PATCH /{id}/otp/resend     : Requester asks for a new OTP (public).
//   - PATCH /{id}/withdraw       : Requester withdraws (public).
//   - GET   /                    : Lists requests (approvers).
//   - GET   /{id}                : One request with actors populated (approvers).
//   - PATCH /{id}/status         : Approves or rejects (approvers).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// The requester cannot log in, so these are public
	router.Post("/", handler.create)
	router.Patch("/{id}/password", handler.resetPassword)
	router.Post("/{id}/otp/validate", handler.validateOTP)
	router.Patch("/{id}/otp/resend", handler.resendOTP)
	router.Patch("/{id}/withdraw", handler.withdraw)

	router.With(middleware.RequireValidated).Patch("/password", handler.directReset)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireValidated)
		r.Use(middleware.RequireApproverTier)
		r.Get("/", handler.list)
		r.Get("/{id}", handler.get)
		r.Patch("/{id}/status", handler.updateStatus)
	})

	return router
}

// # Request Payloads

type createRequest struct {
	Email string `json:"email_id"`
}

type statusRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
}

type requesterRequest struct {
	UserID  string `json:"user_id"`
	OTP     string `json:"otp"`
	Remarks string `json:"remarks"`
}

type passwordRequest struct {
	UserID         string `json:"user_id"`
	OTP            string `json:"otp"`
	NewPassword    string `json:"new_password"`
	RepeatPassword string `json:"repeat_password"`
}

/*
POST /api/v1/reset-requests.

Request:
  - Body: createRequest (email_id)

Response:
  - 200: Submission: New request or direct reset
  - 202: Submission: The owner's OPEN request
  - 403: ErrForbidden: Disabled account
  - 404: ErrNotFound: Unknown email
  - 408: ErrTimeOut: Rejected recently, data.try_after in hours
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldEmail, input.Email).Email(auth.FieldEmail, input.Email)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	submission, err := handler.resetService.Request(request.Context(), input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if submission.Existing {
		respond.Accepted(writer, submission)
		return
	}
	respond.OK(writer, submission)
}

/*
GET /api/v1/reset-requests.

Request:
  - status: string (OPEN | CLOSED, optional)
  - page, limit: int

Response:
  - 200: []Request with pagination meta
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	status := strings.ToUpper(strings.TrimSpace(request.URL.Query().Get(FieldStatus)))
	if status != "" {
		if err := (&validate.Validator{}).OneOf(FieldStatus, status, string(StatusOpen), string(StatusClosed)).Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	page := pagination.FromRequest(request)
	requests, total, err := handler.resetService.List(request.Context(), ListFilter{
		Status: Status(status),
		Offset: page.Offset(),
		Limit:  page.Limit,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, requests, pagination.NewMeta(page.Page, page.Limit, total))
}

// GET /api/v1/reset-requests/{id}
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.resetService.Get(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
PATCH /api/v1/reset-requests/{id}/status.

Request:
  - Body: statusRequest (APPROVED | REJECTED, remarks)

Response:
  - 200: Request: The updated request
  - 401: ErrUnauthorized: Approver tier too low for the requester
  - 403: ErrForbidden: Closed request or invalid transition
*/
func (handler *Handler) updateStatus(writer http.ResponseWriter, request *http.Request) {
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

	decision := strings.ToUpper(strings.TrimSpace(input.Status))
	validator := &validate.Validator{}
	validator.OneOf(FieldStatus, decision, string(DecisionApproved), string(DecisionRejected)).
		MaxLen(FieldRemarks, input.Remarks, 500)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.resetService.UpdateStatus(request.Context(),
		requestutil.Param(request, "id"), claims.UserID, Decision(decision), strings.TrimSpace(input.Remarks))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

/*
POST /api/v1/reset-requests/{id}/otp/validate.

Request:
  - Body: requesterRequest (user_id, otp)

Response:
  - 200: Request: VALIDATION_SUCCESS appended
  - 401: ErrUnauthorized: Wrong code
  - 408: ErrTimeOut: Expired code
*/
func (handler *Handler) validateOTP(writer http.ResponseWriter, request *http.Request) {
	var input requesterRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldUserID, input.UserID).OTP(auth.FieldOTP, input.OTP)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.resetService.ValidateOTP(request.Context(), requestutil.Param(request, "id"), input.UserID, input.OTP)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

// PATCH /api/v1/reset-requests/{id}/otp/resend
func (handler *Handler) resendOTP(writer http.ResponseWriter, request *http.Request) {
	var input requesterRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := (&validate.Validator{}).Required(auth.FieldUserID, input.UserID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.resetService.ResendOTP(request.Context(), requestutil.Param(request, "id"), input.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

// PATCH /api/v1/reset-requests/{id}/withdraw
func (handler *Handler) withdraw(writer http.ResponseWriter, request *http.Request) {
	var input requesterRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldUserID, input.UserID).MaxLen(FieldRemarks, input.Remarks, 500)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.resetService.Withdraw(request.Context(),
		requestutil.Param(request, "id"), input.UserID, strings.TrimSpace(input.Remarks))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

/*
PATCH /api/v1/reset-requests/{id}/password.

Request:
  - Body: passwordRequest (user_id, otp, new_password, repeat_password)

Response:
  - 200: PasswordReset
  - 400: Validation: Weak or mismatched password
  - 401: ErrUnauthorized: OTP not validated yet (data.request_id) or a different code
  - 403: ErrForbidden: Not the requester or closed request
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input passwordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldUserID, input.UserID).OTP(auth.FieldOTP, input.OTP)
	checkPassword(validator, input)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.resetService.ResetPassword(request.Context(),
		requestutil.Param(request, "id"), input.UserID, input.OTP, input.NewPassword)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
PATCH /api/v1/reset-requests/password.

Request:
  - Header: Authorization (validated SUPER_ADMIN session)
  - Body: passwordRequest (user_id, new_password, repeat_password)

Response:
  - 200: PasswordReset
  - 400: Validation: Weak or mismatched password
  - 401: ErrUnauthorized: No session
  - 403: ErrForbidden: user_id is not the session owner, or not a SUPER_ADMIN
*/
func (handler *Handler) directReset(writer http.ResponseWriter, request *http.Request) {
	var input passwordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	claims, err := requestutil.RequiredSelf(request, input.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	checkPassword(validator, input)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.resetService.DirectReset(request.Context(), claims.UserID, input.NewPassword)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

func checkPassword(validator *validate.Validator, input passwordRequest) {
	validator.Required(auth.FieldPassword, input.NewPassword).
		Password(auth.FieldPassword, input.NewPassword).
		Equal(auth.FieldRepeatPassword, input.RepeatPassword, input.NewPassword, "Passwords do not match")
}
