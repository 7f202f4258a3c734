// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/ownerauth/internal/notify"
	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	"github.com/taibuivan/ownerauth/internal/platform/ctxutil"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
	"github.com/taibuivan/ownerauth/internal/provision"
	"github.com/taibuivan/ownerauth/pkg/normalize"
	"github.com/taibuivan/ownerauth/pkg/uuid"
)

// # Contracts & Types

// TokenIssuer signs token pairs and verifies refresh tokens.
type TokenIssuer interface {
	IssuePair(subject sec.TokenSubject) (*sec.TokenPair, error)
	VerifyRefreshToken(token string) (*sec.OwnerClaims, error)
}

// Notifier delivers generated codes without blocking the caller.
type Notifier interface {
	Dispatch(ctx context.Context, message notify.Message)
}

// Provisioner mirrors an owner downstream after the first successful 2FA.
type Provisioner interface {
	Provision(ctx context.Context, profile provision.Profile, location provision.Location, token string) error
}

// AttemptObserver is told about every recorded attempt.
type AttemptObserver interface {
	LoginAttempt(stage, result string)
}

// Options carries the tunables of the authentication flow.
type Options struct {
	OTPValidityMinutes int
	TOTPIssuer         string
	RegistrationOpen   bool
	DefaultRole        sec.UserRole

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Service implements owner authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, gate order or
// OTP handling must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	tokens         TokenIssuer
	notifier       Notifier
	provisioner    Provisioner
	observer       AttemptObserver
	options        Options
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	tokens TokenIssuer,
	notifier Notifier,
	provisioner Provisioner,
	observer AttemptObserver,
	options Options,
) *Service {
	if options.Now == nil {
		options.Now = time.Now
	}
	return &Service{
		userRepository: userRepo,
		tokens:         tokens,
		notifier:       notifier,
		provisioner:    provisioner,
		observer:       observer,
		options:        options,
	}
}

// Session is the response of every step that issues a token pair.
type Session struct {
	AccessToken   string       `json:"access_token"`
	RefreshToken  string       `json:"refresh_token"`
	ExpiresIn     int64        `json:"expires_in"`
	UserID        string       `json:"user_id"`
	Name          string       `json:"name"`
	Email         string       `json:"email_id"`
	Role          sec.UserRole `json:"role"`
	IsValidated   bool         `json:"is_validated"`
	ToBeValidated Gate         `json:"to_be_validated"`
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new owner.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Role      sec.UserRole

	// Actor is the caller's claims, nil for anonymous registration.
	Actor *sec.OwnerClaims
}

/*
Register validates, hashes, and persists a brand new owner account.

Description: Anonymous callers may register only while registration is open and
always receive the default role. A fully validated SUPER_ADMIN may register any
role and is recorded as the creator.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: Forbidden, Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	role := service.options.DefaultRole
	createdBy := ""

	switch {
	case input.Actor != nil && input.Actor.IsValidated && input.Actor.UserRole().IsSuperAdmin():
		if input.Role != "" {
			role = input.Role
		}
		createdBy = input.Actor.UserID
	case service.options.RegistrationOpen:
	default:
		return nil, apperr.Forbidden("Registration is closed")
	}

	email := normalize.Email(input.Email)
	phone := normalize.Phone(input.Phone)

	if _, err := service.userRepository.FindByEmail(context, email); err == nil {
		return nil, apperr.Conflict("Email is already registered")
	} else if !apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, err
	}

	if _, err := service.userRepository.FindByPhone(context, phone); err == nil {
		return nil, apperr.Conflict("Phone number is already registered")
	} else if !apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, err
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if errors.Is(err, sec.ErrPasswordTooLong) {
		return nil, apperr.ValidationError("Password is too long")
	}
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	secret, err := sec.GenerateTOTPSecret(service.options.TOTPIssuer, email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_totp_failed: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		FirstName:    normalize.Name(input.FirstName),
		LastName:     normalize.Name(input.LastName),
		Email:        email,
		Phone:        phone,
		PasswordHash: hashedPassword,
		Role:         role,
		Status:       StatusActive,
		TwoFactor:    TwoFactor{Secret: secret.Base32, OTPAuthURL: secret.URL},
		CreatedBy:    createdBy,
		CreatedAt:    service.now(),
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	ctxutil.Logger(context).Info("owner_registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
	Location Geolocation
}

/*
Login verifies credentials and routes the owner to the first unmet gate.

Description: Login never satisfies 2FA, so the best outcome is a session whose
next gate is "2fa". When the next gate is email or phone a fresh OTP is stored
and delivered before the token pair is issued.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Session: Token pair and gate state
  - error: NotFound, Unauthorized, Forbidden or storage errors
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Session, error) {
	user, err := service.userRepository.FindByEmail(context, normalize.Email(input.Email))
	if err != nil {
		return nil, err
	}
	if user.Status == StatusArchived {
		return nil, apperr.NotFound(resourceUser)
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		if err := service.record(context, user, StageLogin, ResultFailure, RemarkInvalidPassword, input.Location); err != nil {
			return nil, err
		}
		return nil, apperr.Unauthorized("Invalid password")
	}

	if err := service.checkAccess(context, user, StageLogin, input.Location); err != nil {
		return nil, err
	}

	decision := NextGate(user.Snapshot())

	var (
		remark  string
		message *notify.Message
	)
	switch decision.Next {
	case GateEmail:
		remark = RemarkRedirectEmail
		message, err = service.issueChannelOTP(user, GateEmail)
	case GatePhone:
		remark = RemarkRedirectPhone
		message, err = service.issueChannelOTP(user, GatePhone)
	default:
		remark = RemarkRedirect2FA
		if user.TwoFactor.Validated {
			remark = RemarkRedirect2FAVerify
		}
	}
	if err != nil {
		return nil, err
	}

	if message != nil {
		if err := service.userRepository.Update(context, user); err != nil {
			return nil, err
		}
		service.notifier.Dispatch(context, *message)
	}

	if err := service.record(context, user, StageLogin, ResultSuccess, remark, input.Location); err != nil {
		return nil, err
	}

	ctxutil.Logger(context).Info("login_gate_redirected",
		slog.String("user_id", user.ID),
		slog.String("next", string(decision.Next)),
	)

	return service.session(user, decision)
}

// # Channel Validation

// ValidateEmail checks the email OTP of the session owner.
func (service *Service) ValidateEmail(context context.Context, userID, code string, location Geolocation) (*Session, error) {
	return service.validateChannel(context, userID, code, location, GateEmail)
}

// ValidatePhone checks the phone OTP of the session owner.
func (service *Service) ValidatePhone(context context.Context, userID, code string, location Geolocation) (*Session, error) {
	return service.validateChannel(context, userID, code, location, GatePhone)
}

/*
validateChannel runs the shared email/phone OTP check.

Description: Gates are validated strictly in order, so a phone code is refused
while email is outstanding. A mismatch or an expired code is logged and leaves
the stored OTP untouched. On success the next gate is computed and, when it is
phone, a phone OTP is issued in the same write.
*/
func (service *Service) validateChannel(context context.Context, userID, code string, location Geolocation, gate Gate) (*Session, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	if user.Status == StatusArchived {
		return nil, apperr.NotFound(resourceUser)
	}

	stage, check := user.channel(gate)
	if check.Validated {
		return nil, apperr.BadRequest(alreadyValidatedMessage(gate))
	}
	if pending := NextGate(user.Snapshot()); pending.Next != gate {
		return nil, apperr.BadRequest(fmt.Sprintf("Complete %s validation first", pending.Next))
	}

	if err := service.checkAccess(context, user, stage, location); err != nil {
		return nil, err
	}

	if check.OTP == "" || subtle.ConstantTimeCompare([]byte(check.OTP), []byte(code)) != 1 {
		if err := service.record(context, user, stage, ResultFailure, RemarkOTPInvalid, location); err != nil {
			return nil, err
		}
		return nil, apperr.Unauthorized("Invalid OTP")
	}

	if sec.OTPExpired(check.IssuedAt, service.now(), time.Minute, service.options.OTPValidityMinutes) {
		if err := service.record(context, user, stage, ResultFailure, RemarkOTPExpired, location); err != nil {
			return nil, err
		}
		return nil, apperr.TimeOut("OTP has expired")
	}

	check.Validated = true
	check.OTP = ""
	check.IssuedAt = time.Time{}

	decision := NextGate(user.Snapshot())

	remark := RemarkPhoneTo2FA
	var message *notify.Message
	if gate == GateEmail {
		remark = RemarkEmailTo2FA
		if decision.Next == GatePhone {
			remark = RemarkEmailToPhone
			if message, err = service.issueChannelOTP(user, GatePhone); err != nil {
				return nil, err
			}
		}
	}

	if err := service.userRepository.Update(context, user); err != nil {
		return nil, err
	}
	if message != nil {
		service.notifier.Dispatch(context, *message)
	}

	if err := service.record(context, user, stage, ResultSuccess, remark, location); err != nil {
		return nil, err
	}

	return service.session(user, decision)
}

// # Two-Factor Flow

// QRToken returns the otpauth URL the client renders as an enrolment QR code.
func (service *Service) QRToken(context context.Context, userID string, location Geolocation) (string, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return "", err
	}
	if err := service.checkAccess(context, user, StageValidate2FA, location); err != nil {
		return "", err
	}

	if err := service.record(context, user, StageValidate2FA, ResultProcessed, RemarkQRProcessed, location); err != nil {
		return "", err
	}

	return user.TwoFactor.OTPAuthURL, nil
}

/*
Validate2FA verifies a TOTP code and completes authentication.

Description: Email and phone must already be validated. The first success marks
2FA as enrolled; while the owner is not yet provisioned downstream the mirroring
chain runs and a failure there is reported as BAD_REQUEST with the 2FA flag kept.

Parameters:
  - context: context.Context
  - userID: string
  - code: string
  - location: Geolocation

Returns:
  - *Session: Fully validated token pair
  - error: NotFound, Forbidden, Unauthorized, BadRequest or storage errors
*/
func (service *Service) Validate2FA(context context.Context, userID, code string, location Geolocation) (*Session, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	if user.Status == StatusArchived {
		return nil, apperr.NotFound(resourceUser)
	}
	if pending := NextGate(user.Snapshot()); pending.Next != Gate2FA {
		return nil, apperr.BadRequest(fmt.Sprintf("Complete %s validation first", pending.Next))
	}

	if err := service.checkAccess(context, user, StageValidate2FA, location); err != nil {
		return nil, err
	}

	if !sec.ValidateTOTP(code, user.TwoFactor.Secret, service.now()) {
		if err := service.record(context, user, StageValidate2FA, ResultFailure, RemarkOTPInvalid, location); err != nil {
			return nil, err
		}
		return nil, apperr.Unauthorized("Invalid OTP")
	}

	if !user.TwoFactor.Validated {
		user.TwoFactor.Validated = true
		if err := service.userRepository.Update(context, user); err != nil {
			return nil, err
		}
	}

	snapshot := user.Snapshot()
	snapshot.TwoFactorPassed = true
	session, err := service.session(user, NextGate(snapshot))
	if err != nil {
		return nil, err
	}

	if !user.TwoFactor.Provisioned {
		if err := service.provision(context, user, location, session.AccessToken); err != nil {
			return nil, err
		}
	}

	if err := service.record(context, user, StageValidate2FA, ResultSuccess, Remark2FASuccess, location); err != nil {
		return nil, err
	}

	return session, nil
}

func (service *Service) provision(context context.Context, user *User, location Geolocation, token string) error {
	profile := provision.Profile{
		UserID:    user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
		Email:     user.Email,
		Phone:     user.Phone,
		Avatar:    user.Avatar,
	}

	if err := service.provisioner.Provision(context, profile, provision.Location(location), token); err != nil {
		ctxutil.Logger(context).Warn("owner_provision_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		if recordErr := service.record(context, user, StageValidate2FA, ResultFailure, Remark2FAProvisionFailure+err.Error(), location); recordErr != nil {
			return recordErr
		}
		return apperr.BadRequest("Unable to save user details").WithCause(err)
	}

	user.TwoFactor.Provisioned = true
	return service.userRepository.Update(context, user)
}

// # Session Management

// Refresh exchanges a refresh token for a new pair after re-checking the account.
// The gate claims are carried over from the presented token.
func (service *Service) Refresh(context context.Context, refreshToken string) (*Session, error) {
	claims, err := service.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		return nil, err
	}
	if err := user.CheckAccess(); err != nil {
		return nil, err
	}

	return service.session(user, GateDecision{
		IsValidated: claims.IsValidated,
		Next:        Gate(claims.ToBeValidated),
	})
}

// # Helpers

func (service *Service) now() time.Time {
	return service.options.Now().UTC()
}

// checkAccess applies [User.CheckAccess] and logs disabled accounts before refusing them.
func (service *Service) checkAccess(context context.Context, user *User, stage AttemptStage, location Geolocation) error {
	err := user.CheckAccess()
	if err == ErrUserDisabled {
		if recordErr := service.record(context, user, stage, ResultFailure, RemarkDisabled, location); recordErr != nil {
			return recordErr
		}
	}
	return err
}

// issueChannelOTP stores a fresh code on the gate's channel and returns the message to send.
func (service *Service) issueChannelOTP(user *User, gate Gate) (*notify.Message, error) {
	otp, err := sec.GenerateOTP(service.now())
	if err != nil {
		return nil, apperr.Internal(err)
	}

	_, check := user.channel(gate)
	check.OTP = otp.Code
	check.IssuedAt = otp.IssuedAt

	message := &notify.Message{
		Channel:   notify.ChannelEmail,
		Purpose:   notify.PurposeVerifyEmail,
		Recipient: notify.Recipient{Name: user.FirstName, Email: user.Email, Phone: user.Phone},
		OTP:       otp.Code,
	}
	if gate == GatePhone {
		message.Channel = notify.ChannelSMS
		message.Purpose = notify.PurposeVerifyPhone
	}
	return message, nil
}

func (service *Service) record(context context.Context, user *User, stage AttemptStage, result AttemptResult, remark string, location Geolocation) error {
	attempt := LoginAttempt{
		AttemptedOn: service.now(),
		Result:      result,
		Stage:       stage,
		Remarks:     remark,
		Metadata:    location,
	}

	if err := service.userRepository.AppendAttempt(context, user.ID, attempt); err != nil {
		return err
	}
	if service.observer != nil {
		service.observer.LoginAttempt(string(stage), string(result))
	}
	return nil
}

func (service *Service) session(user *User, decision GateDecision) (*Session, error) {
	pair, err := service.tokens.IssuePair(user.tokenSubject(decision))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_token_failed: %w", err))
	}

	return &Session{
		AccessToken:   pair.AccessToken,
		RefreshToken:  pair.RefreshToken,
		ExpiresIn:     pair.ExpiresIn,
		UserID:        user.ID,
		Name:          user.FullName(),
		Email:         user.Email,
		Role:          user.Role,
		IsValidated:   decision.IsValidated,
		ToBeValidated: decision.Next,
	}, nil
}

// channel returns the attempt stage and verification record of an email or phone gate.
func (user *User) channel(gate Gate) (AttemptStage, *ChannelVerification) {
	if gate == GatePhone {
		return StageValidatePhone, &user.PhoneCheck
	}
	return StageValidateEmail, &user.EmailCheck
}

func alreadyValidatedMessage(gate Gate) string {
	if gate == GatePhone {
		return "Phone number is already validated"
	}
	return "Email ID is already validated"
}
