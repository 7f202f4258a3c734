// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/ownerauth/internal/platform/middleware"
	requestutil "github.com/taibuivan/ownerauth/internal/platform/request"
	"github.com/taibuivan/ownerauth/internal/platform/respond"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
	"github.com/taibuivan/ownerauth/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// Registration, login, the three verification gates and token refresh. The
// [middleware.Authenticate] middleware must run before these routes.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register       : Creates an owner account.
//   - POST /login          : Verifies credentials and routes to the next gate.
//   - POST /refresh        : Exchanges a refresh token.
//   - POST /validate/email : Email OTP gate.
//   - POST /validate/phone : Phone OTP gate.
//   - GET  /2fa/qr         : Enrolment QR token.
//   - POST /validate/2fa   : TOTP gate.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)

	// Any authenticated session, whatever gate it is on
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/validate/email", handler.validateEmail)
		r.Post("/validate/phone", handler.validatePhone)
		r.Get("/2fa/qr", handler.qrToken)
		r.Post("/validate/2fa", handler.validate2FA)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email_id"`
	Phone     string `json:"phone_number"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email_id"`
	Password string `json:"password"`
	Geolocation
}

type otpRequest struct {
	OTP string `json:"otp"`
	Geolocation
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

/*
Register handles the creation of a new owner account.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (first_name, last_name, email_id, phone_number, password, role)

Response:
  - 201: User: Created owner profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 403: ErrForbidden: Registration closed
  - 409: ErrConflict: Email or phone already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldFirstName, input.FirstName).
		MaxLen(FieldFirstName, input.FirstName, 50).
		Required(FieldLastName, input.LastName).
		MaxLen(FieldLastName, input.LastName, 50).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPhone, input.Phone).
		Phone(FieldPhone, input.Phone).
		Password(FieldPassword, input.Password)

	var role sec.UserRole
	if input.Role != "" {
		parsed, ok := sec.ParseRole(input.Role)
		validator.Custom(FieldRole, !ok, "Must be a known role")
		role = parsed
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Password:  input.Password,
		Role:      role,
		Actor:     requestutil.Claims(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates an owner and returns a partially validated session.

POST /api/v1/auth/login

Request:
  - Body: loginRequest (email_id, password, optional geolocation)

Response:
  - 200: Session: Token pair plus the next gate in 'to_be_validated'
  - 401: ErrUnauthorized: Invalid password
  - 403: ErrForbidden: Account disabled
  - 404: ErrNotFound: Unknown or archived account
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
		Location: withClientIP(request, input.Geolocation),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
Refresh issues a new token pair from a refresh token.

POST /api/v1/auth/refresh

Response:
  - 200: Session: Rotated token pair
  - 401: ErrUnauthorized: Invalid or expired refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := (&validate.Validator{}).Required(FieldRefreshToken, input.RefreshToken).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
ValidateEmail checks the email OTP of the calling owner.

POST /api/v1/auth/validate/email

Response:
  - 200: Session: Next gate is phone or 2fa
  - 401: ErrUnauthorized: OTP mismatch
  - 408: ErrTimeOut: OTP expired
*/
func (handler *Handler) validateEmail(writer http.ResponseWriter, request *http.Request) {
	handler.validateOTP(writer, request, handler.authService.ValidateEmail)
}

/*
ValidatePhone checks the phone OTP of the calling owner.

POST /api/v1/auth/validate/phone
*/
func (handler *Handler) validatePhone(writer http.ResponseWriter, request *http.Request) {
	handler.validateOTP(writer, request, handler.authService.ValidatePhone)
}

/*
Validate2FA checks a TOTP code and completes authentication.

POST /api/v1/auth/validate/2fa

Response:
  - 200: Session: is_validated = true
  - 400: ErrBadRequest: Earlier gate outstanding or provisioning failed
  - 401: ErrUnauthorized: Invalid code
*/
func (handler *Handler) validate2FA(writer http.ResponseWriter, request *http.Request) {
	handler.validateOTP(writer, request, handler.authService.Validate2FA)
}

type otpValidation func(ctx context.Context, userID, code string, location Geolocation) (*Session, error)

func (handler *Handler) validateOTP(writer http.ResponseWriter, request *http.Request, check otpValidation) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input otpRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := (&validate.Validator{}).OTP(FieldOTP, input.OTP).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := check(request.Context(), claims.UserID, input.OTP, withClientIP(request, input.Geolocation))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
QRToken returns the otpauth URL used to enrol an authenticator app.

GET /api/v1/auth/2fa/qr

Response:
  - 200: {"qr_token": "otpauth://..."}
*/
func (handler *Handler) qrToken(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	token, err := handler.authService.QRToken(request.Context(), claims.UserID, withClientIP(request, Geolocation{}))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldQRToken: token})
}

// withClientIP fills the IP from the connection when the client did not report one.
func withClientIP(request *http.Request, location Geolocation) Geolocation {
	if location.IPAddress == "" {
		location.IPAddress = middleware.RealIP(request)
	}
	return location
}
