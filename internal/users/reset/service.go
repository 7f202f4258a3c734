// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reset

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/taibuivan/ownerauth/internal/notify"
	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	"github.com/taibuivan/ownerauth/internal/platform/constants"
	"github.com/taibuivan/ownerauth/internal/platform/ctxutil"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
	"github.com/taibuivan/ownerauth/internal/realtime"
	"github.com/taibuivan/ownerauth/internal/users/auth"
	"github.com/taibuivan/ownerauth/pkg/normalize"
	"github.com/taibuivan/ownerauth/pkg/uuid"
)

// # Contracts & Types

// Counter hands out human-readable request numbers.
type Counter interface {
	Increment(ctx context.Context, entity string) (int64, error)
}

// Notifier delivers reset codes without blocking the caller.
type Notifier interface {
	Dispatch(ctx context.Context, message notify.Message)
}

// ActivityObserver is told about every appended activity.
type ActivityObserver interface {
	ResetActivity(activityType string)
}

// Options carries the tunables of the reset workflow.
type Options struct {
	OTPValidityHours  int
	RejectionCooldown time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

var (
	// ErrRequestClosed is returned for any mutation of a CLOSED request.
	ErrRequestClosed = apperr.Forbidden("Request has been already closed.")

	// ErrInvalidTransition is returned when the latest activity does not allow the action.
	ErrInvalidTransition = apperr.Forbidden("Unable to process to the request at this moment.")

	// ErrNotRequester is returned when the caller does not own the request.
	ErrNotRequester = apperr.Forbidden("You do not have required permissions to perform this action.")

	// ErrDirectResetDenied is returned when a non SUPER_ADMIN asks for a direct reset.
	ErrDirectResetDenied = apperr.Forbidden("Password reset requires an approved request.")
)

const resourceRequest = "Request"

// Service implements the reset request lifecycle.
//
// # Review Process
//
// Approvals hand out credentials. Changes to the transition table or to the
// approval rule must be reviewed by the security team.
type Service struct {
	requestRepository RequestRepository
	userRepository    auth.UserRepository
	counter           Counter
	notifier          Notifier
	publisher         realtime.Publisher
	observer          ActivityObserver
	options           Options
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	requestRepo RequestRepository,
	userRepo auth.UserRepository,
	counter Counter,
	notifier Notifier,
	publisher realtime.Publisher,
	observer ActivityObserver,
	options Options,
) *Service {
	if options.Now == nil {
		options.Now = time.Now
	}
	return &Service{
		requestRepository: requestRepo,
		userRepository:    userRepo,
		counter:           counter,
		notifier:          notifier,
		publisher:         publisher,
		observer:          observer,
		options:           options,
	}
}

// # Filing

// Submission is the outcome of filing a request.
type Submission struct {
	UserID      string       `json:"user_id,omitempty"`
	UserName    string       `json:"user_name"`
	Role        sec.UserRole `json:"role"`
	ID          string       `json:"reset_password_request_id,omitempty"`
	RequestID   int64        `json:"reset_password_request_readable_id,omitempty"`
	RequestedOn *time.Time   `json:"requested_on,omitempty"`

	// Direct is set for SUPER_ADMIN owners, who reset without approval.
	Direct bool `json:"direct_reset"`
	// Existing is set when an OPEN request was returned instead of a new one.
	Existing bool `json:"-"`
}

/*
Request files a reset request for the owner of email.

Description: SUPER_ADMIN owners get a direct-reset answer and no request. An
owner with an OPEN request gets that request back. An owner rejected within the
cooldown window is refused with a try_after hint in hours. Otherwise a request
numbered by the entity counter is created and announced to the super-admin room.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *Submission: Direct, existing or new request
  - error: NotFound, Forbidden, TimeOut or storage errors
*/
func (service *Service) Request(context context.Context, email string) (*Submission, error) {
	user, err := service.userRepository.FindByEmail(context, normalize.Email(email))
	if err != nil {
		return nil, err
	}
	if err := user.CheckAccess(); err != nil {
		return nil, err
	}

	submission := &Submission{UserName: user.FirstName, Role: user.Role}
	if user.Role.IsSuperAdmin() {
		// The owner id is withheld; the direct reset runs on the owner's own session.
		submission.Direct = true
		return submission, nil
	}
	submission.UserID = user.ID

	open, err := service.requestRepository.FindOpenByUser(context, user.ID)
	switch {
	case err == nil:
		return existing(submission, open), nil
	case !apperr.HasCode(err, apperr.CodeNotFound):
		return nil, err
	}

	if err := service.checkCooldown(context, user); err != nil {
		return nil, err
	}

	number, err := service.counter.Increment(context, constants.EntityResetPasswordRequest)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("reset_service_counter_failed: %w", err))
	}

	now := service.now()
	request := &Request{
		ID:        uuid.New(),
		RequestID: number,
		UserID:    user.ID,
		Role:      user.Role,
		Status:    StatusOpen,
		Version:   1,
		CreatedAt: now,
	}
	request.appendActivity(Activity{
		ID:        uuid.New(),
		Type:      ActivityRequested,
		By:        ActorRequester,
		UserID:    user.ID,
		CreatedAt: now,
	})

	if err := service.requestRepository.Create(context, request); err != nil {
		if !apperr.HasCode(err, apperr.CodeConflict) {
			return nil, err
		}
		// A concurrent filing won the OPEN slot.
		open, findErr := service.requestRepository.FindOpenByUser(context, user.ID)
		if findErr != nil {
			return nil, err
		}
		return existing(submission, open), nil
	}

	service.observe(ActivityRequested)
	service.announce(context, request)

	ctxutil.Logger(context).Info("reset_request_created",
		slog.String("id", request.ID),
		slog.Int64("request_id", request.RequestID),
		slog.String("user_id", user.ID),
	)

	submission.ID = request.ID
	submission.RequestID = request.RequestID
	submission.RequestedOn = &request.CreatedAt
	return submission, nil
}

func existing(submission *Submission, open *Request) *Submission {
	submission.ID = open.ID
	submission.RequestID = open.RequestID
	submission.RequestedOn = &open.CreatedAt
	submission.Existing = true
	return submission
}

// checkCooldown refuses owners whose latest closed request was rejected recently.
func (service *Service) checkCooldown(context context.Context, user *auth.User) error {
	closed, err := service.requestRepository.FindLatestClosedByUser(context, user.ID)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	rejectedAt, ok := closed.LatestRejection()
	if !ok {
		return nil
	}

	elapsed := service.now().Sub(rejectedAt)
	if elapsed > service.options.RejectionCooldown {
		return nil
	}

	remaining := service.options.RejectionCooldown - elapsed
	return apperr.TimeOut("Reset request was rejected recently").WithData(map[string]any{
		"user_id":   user.ID,
		"user_name": user.FirstName,
		"role":      user.Role,
		"try_after": int(math.Ceil(remaining.Hours())),
	})
}

// announce publishes the new-request event; a transport failure is only logged.
func (service *Service) announce(context context.Context, request *Request) {
	if service.publisher == nil {
		return
	}

	event, err := realtime.NewEvent(constants.RoomOwnerSuperAdmin, constants.EventNewRequest, map[string]any{
		"id":         request.ID,
		"request_id": request.RequestID,
		"role":       request.Role,
	})
	if err == nil {
		err = service.publisher.Publish(context, event)
	}
	if err != nil {
		ctxutil.Logger(context).Warn("reset_request_announce_failed",
			slog.String("id", request.ID),
			slog.Any("error", err),
		)
	}
}

// # Approval

// Decision is the approver's verdict.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

/*
UpdateStatus approves or rejects an OPEN request.

Description: Admin-tier requesters need a SUPER_ADMIN approver and every other
requester needs an admin-tier or SUPER_ADMIN approver. Approval issues a reset
OTP delivered by email and SMS; rejection closes the request.

Parameters:
  - context: context.Context
  - id: string (request id)
  - approverID: string
  - decision: Decision
  - remarks: string

Returns:
  - *Request: The updated request
  - error: NotFound, Forbidden, Unauthorized, Conflict or storage errors
*/
func (service *Service) UpdateStatus(context context.Context, id, approverID string, decision Decision, remarks string) (*Request, error) {
	request, err := service.openRequest(context, id)
	if err != nil {
		return nil, err
	}

	requester, err := service.activeUser(context, request.UserID)
	if err != nil {
		return nil, err
	}

	approver, err := service.userRepository.FindByID(context, approverID)
	if err != nil && !apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, err
	}
	if err != nil || approver.Status == auth.StatusArchived {
		return nil, apperr.NotFound("Approver")
	}
	if approver.Status != auth.StatusActive {
		return nil, apperr.Forbidden("Approver doesn't have required permissions to perform this action.")
	}

	if !approver.Role.CanApproveResetFor(requester.Role) {
		return nil, apperr.Unauthorized("You are not authorised to perform this action.")
	}

	activityType := ActivityType(decision)
	if !CanTransition(request.Latest(), activityType) {
		return nil, ErrInvalidTransition
	}

	activity := Activity{
		ID:        uuid.New(),
		Type:      activityType,
		By:        ActorApprover,
		UserID:    approver.ID,
		Remarks:   remarks,
		CreatedAt: service.now(),
	}

	var code string
	if decision == DecisionApproved {
		otp, err := sec.GenerateOTP(activity.CreatedAt)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		code = otp.Code
		activity.Validation = &ValidationData{OTP: otp.Code, IssuedAt: otp.IssuedAt}
	}

	if err := service.append(context, request, activity); err != nil {
		return nil, err
	}

	if code != "" {
		service.sendOTP(context, requester, code)
	}

	ctxutil.Logger(context).Info("reset_request_decided",
		slog.String("id", request.ID),
		slog.String("decision", string(decision)),
		slog.String("approver_id", approver.ID),
	)

	return request, nil
}

// # Requester Actions

/*
ValidateOTP checks the code of the current OTP activity.

Description: A mismatch or an expired code appends VALIDATION_FAILED and leaves
the code in place, so the requester may retry or ask for a new one.

Parameters:
  - context: context.Context
  - id: string (request id)
  - userID: string (the requester)
  - code: string

Returns:
  - *Request: The request after VALIDATION_SUCCESS
  - error: Unauthorized (mismatch), TimeOut (expired), Forbidden or storage errors
*/
func (service *Service) ValidateOTP(context context.Context, id, userID, code string) (*Request, error) {
	request, _, err := service.requesterAction(context, id, userID)
	if err != nil {
		return nil, err
	}

	current := request.CurrentOTP
	if current == nil || current.Validated || !CanTransition(request.Latest(), ActivityValidationSuccess) {
		return nil, ErrInvalidTransition
	}

	failure := func(remark string, cause *apperr.AppError) (*Request, error) {
		if err := service.append(context, request, Activity{
			ID:        uuid.New(),
			Type:      ActivityValidationFailed,
			By:        ActorRequester,
			UserID:    userID,
			Remarks:   remark,
			CreatedAt: service.now(),
		}); err != nil {
			return nil, err
		}
		return nil, cause
	}

	if subtle.ConstantTimeCompare([]byte(current.Code), []byte(code)) != 1 {
		return failure(RemarkOTPInvalid, apperr.Unauthorized("Invalid OTP"))
	}

	if sec.OTPExpired(current.IssuedAt, service.now(), time.Hour, service.options.OTPValidityHours) {
		return failure(RemarkOTPExpired, apperr.TimeOut("OTP has expired"))
	}

	request.markValidated()
	if err := service.append(context, request, Activity{
		ID:        uuid.New(),
		Type:      ActivityValidationSuccess,
		By:        ActorRequester,
		UserID:    userID,
		CreatedAt: service.now(),
	}); err != nil {
		return nil, err
	}

	return request, nil
}

// ResendOTP issues a fresh code while a previous one is pending.
func (service *Service) ResendOTP(context context.Context, id, userID string) (*Request, error) {
	request, requester, err := service.requesterAction(context, id, userID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(request.Latest(), ActivityRequestedNewOTP) {
		return nil, ErrInvalidTransition
	}

	otp, err := sec.GenerateOTP(service.now())
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if err := service.append(context, request, Activity{
		ID:         uuid.New(),
		Type:       ActivityRequestedNewOTP,
		By:         ActorRequester,
		UserID:     userID,
		Validation: &ValidationData{OTP: otp.Code, IssuedAt: otp.IssuedAt},
		CreatedAt:  otp.IssuedAt,
	}); err != nil {
		return nil, err
	}

	service.sendOTP(context, requester, otp.Code)
	return request, nil
}

// Withdraw closes an OPEN request on behalf of its requester.
func (service *Service) Withdraw(context context.Context, id, userID, remarks string) (*Request, error) {
	request, _, err := service.requesterAction(context, id, userID)
	if err != nil {
		return nil, err
	}

	if err := service.append(context, request, Activity{
		ID:        uuid.New(),
		Type:      ActivityWithdrawn,
		By:        ActorRequester,
		UserID:    userID,
		Remarks:   remarks,
		CreatedAt: service.now(),
	}); err != nil {
		return nil, err
	}

	return request, nil
}

// PasswordReset is the outcome of a completed password change.
type PasswordReset struct {
	UserID string `json:"user_id"`
	ID     string `json:"request_id,omitempty"`
}

/*
ResetPassword applies a new password through a validated request.

Description: The request must be OPEN, belong to userID and have
VALIDATION_SUCCESS as its latest activity. code must repeat the OTP that was
validated, so knowing an owner id alone is not enough to set the password. The
request is then closed with SUCCESSFULLY_UPDATED. The caller has already checked
that the password is strong and was repeated correctly.

Parameters:
  - context: context.Context
  - id: string (request id)
  - userID: string (the requester)
  - code: string (the validated OTP)
  - password: string

Returns:
  - *PasswordReset: Owner and closed request
  - error: NotFound, Forbidden, Unauthorized (with the request id) or storage errors
*/
func (service *Service) ResetPassword(context context.Context, id, userID, code, password string) (*PasswordReset, error) {
	request, requester, err := service.requesterAction(context, id, userID)
	if err != nil {
		return nil, err
	}

	current := request.CurrentOTP
	if current == nil || !current.Validated || !CanTransition(request.Latest(), ActivitySuccessfullyUpdated) {
		return nil, apperr.Unauthorized("Request Not Yet Validated By Requester.").
			WithData(map[string]string{"request_id": request.ID})
	}
	if subtle.ConstantTimeCompare([]byte(current.Code), []byte(code)) != 1 {
		return nil, apperr.Unauthorized("Invalid OTP")
	}

	if err := service.applyPassword(context, requester, password); err != nil {
		return nil, err
	}
	if err := service.append(context, request, Activity{
		ID:        uuid.New(),
		Type:      ActivitySuccessfullyUpdated,
		By:        ActorRequester,
		UserID:    requester.ID,
		CreatedAt: service.now(),
	}); err != nil {
		return nil, err
	}

	ctxutil.Logger(context).Info("owner_password_reset",
		slog.String("user_id", requester.ID),
		slog.String("request_id", request.ID),
		slog.Bool("direct", false),
	)

	return &PasswordReset{UserID: requester.ID, ID: request.ID}, nil
}

/*
DirectReset applies a new password for a SUPER_ADMIN without any request.

The caller must already have bound userID to the owner's validated session.
Any other role is refused and has to go through the approval workflow.
*/
func (service *Service) DirectReset(context context.Context, userID, password string) (*PasswordReset, error) {
	user, err := service.activeUser(context, userID)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsSuperAdmin() {
		return nil, ErrDirectResetDenied
	}

	if err := service.applyPassword(context, user, password); err != nil {
		return nil, err
	}

	ctxutil.Logger(context).Info("owner_password_reset",
		slog.String("user_id", user.ID),
		slog.Bool("direct", true),
	)

	return &PasswordReset{UserID: user.ID}, nil
}

func (service *Service) applyPassword(context context.Context, user *auth.User, password string) error {
	hashedPassword, err := sec.HashPassword(password)
	if errors.Is(err, sec.ErrPasswordTooLong) {
		return apperr.ValidationError("Password is too long")
	}
	if err != nil {
		return fmt.Errorf("reset_service_hash_failed: %w", err)
	}
	return service.userRepository.UpdatePassword(context, user.ID, hashedPassword)
}

// # Queries

// Get returns one request with its requester and activity actors populated.
func (service *Service) Get(context context.Context, id string) (*View, error) {
	request, err := service.requestRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	actors := map[string]ActorSummary{}
	lookup := func(userID string) ActorSummary {
		if actor, ok := actors[userID]; ok {
			return actor
		}
		actor := ActorSummary{ID: userID}
		if user, err := service.userRepository.FindByID(context, userID); err == nil {
			actor = ActorSummary{ID: user.ID, FirstName: user.FirstName, LastName: user.LastName, Role: user.Role}
		}
		actors[userID] = actor
		return actor
	}

	view := &View{
		ID:         request.ID,
		RequestID:  request.RequestID,
		User:       lookup(request.UserID),
		Role:       request.Role,
		Status:     request.Status,
		Activities: make([]ActivityView, 0, len(request.Activities)),
		CreatedAt:  request.CreatedAt,
		UpdatedAt:  request.UpdatedAt,
	}
	for _, activity := range request.Activities {
		view.Activities = append(view.Activities, ActivityView{Activity: activity, User: lookup(activity.UserID)})
	}

	return view, nil
}

// List returns a page of requests, newest first.
func (service *Service) List(context context.Context, filter ListFilter) ([]*Request, int, error) {
	requests, total, err := service.requestRepository.List(context, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("reset_service_list_failed: %w", err)
	}
	return requests, total, nil
}

// # Helpers

func (service *Service) now() time.Time {
	return service.options.Now().UTC()
}

// openRequest loads id and refuses closed requests.
func (service *Service) openRequest(context context.Context, id string) (*Request, error) {
	request, err := service.requestRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if request.Closed() {
		return nil, ErrRequestClosed
	}
	return request, nil
}

// activeUser loads userID and applies the account status check.
func (service *Service) activeUser(context context.Context, userID string) (*auth.User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	if err := user.CheckAccess(); err != nil {
		return nil, err
	}
	return user, nil
}

// requesterAction loads an OPEN request and verifies userID is its active requester.
func (service *Service) requesterAction(context context.Context, id, userID string) (*Request, *auth.User, error) {
	request, err := service.openRequest(context, id)
	if err != nil {
		return nil, nil, err
	}
	if request.UserID != userID {
		return nil, nil, ErrNotRequester
	}

	requester, err := service.activeUser(context, userID)
	if err != nil {
		return nil, nil, err
	}
	if requester.Role.IsSuperAdmin() {
		return nil, nil, ErrNotRequester
	}
	return request, requester, nil
}

// append adds activity and saves the request with a version check.
func (service *Service) append(context context.Context, request *Request, activity Activity) error {
	request.appendActivity(activity)
	if err := service.requestRepository.Save(context, request); err != nil {
		return err
	}
	service.observe(activity.Type)
	return nil
}

func (service *Service) observe(activityType ActivityType) {
	if service.observer != nil {
		service.observer.ResetActivity(string(activityType))
	}
}

// sendOTP delivers a reset code by email and SMS.
func (service *Service) sendOTP(context context.Context, requester *auth.User, code string) {
	recipient := notify.Recipient{Name: requester.FirstName, Email: requester.Email, Phone: requester.Phone}
	for _, channel := range []notify.Channel{notify.ChannelEmail, notify.ChannelSMS} {
		service.notifier.Dispatch(context, notify.Message{
			Channel:   channel,
			Purpose:   notify.PurposeResetPassword,
			Recipient: recipient,
			OTP:       code,
		})
	}
}
