// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package reset implements the multi-party password-reset approval workflow.

A requester files a request, an approver of a sufficient tier approves or rejects
it, the requester proves possession of the emailed OTP and finally sets a new
password. Every transition is appended to the request's activity log.

# Architecture

  - Entities: Request, Activity and the explicit CurrentOTP reference.
  - Transitions: [CanTransition] is the single table of legal moves.
  - Concurrency: Stores apply every mutation as a compare-and-swap on Version and
    allow at most one OPEN request per owner.
*/
package reset

import (
	"slices"
	"time"

	"github.com/taibuivan/ownerauth/internal/platform/sec"
)

// # Enumerations

// Status is the coarse lifecycle state of a request. CLOSED is terminal.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// ActivityType names one lifecycle transition.
type ActivityType string

const (
	ActivityRequested           ActivityType = "REQUESTED"
	ActivityApproved            ActivityType = "APPROVED"
	ActivityRejected            ActivityType = "REJECTED"
	ActivityValidationSuccess   ActivityType = "VALIDATION_SUCCESS"
	ActivityValidationFailed    ActivityType = "VALIDATION_FAILED"
	ActivityRequestedNewOTP     ActivityType = "REQUESTED_NEW_OTP"
	ActivityWithdrawn           ActivityType = "WITHDRAWN"
	ActivitySuccessfullyUpdated ActivityType = "SUCCESSFULLY_UPDATED"
)

// ActorRole tells which side of the workflow appended an activity.
type ActorRole string

const (
	ActorRequester ActorRole = "REQUESTER"
	ActorApprover  ActorRole = "APPROVER"
)

// Remarks attached to failed validations.
const (
	RemarkOTPInvalid = "Entered OTP is invalid."
	RemarkOTPExpired = "Entered OTP has been expired."
)

// # Domain Entities

// ValidationData is the OTP embedded in APPROVED and REQUESTED_NEW_OTP activities.
type ValidationData struct {
	OTP       string    `json:"-" bson:"otp"`
	IssuedAt  time.Time `json:"timestamp" bson:"timestamp"`
	Validated bool      `json:"is_validated" bson:"is_validated"`
}

// Activity is one immutable entry of the request log. Only Validation.Validated
// of the current OTP activity is ever updated after append.
type Activity struct {
	ID         string          `json:"id" bson:"id"`
	Type       ActivityType    `json:"activity_type" bson:"activity_type"`
	By         ActorRole       `json:"activity_by" bson:"activity_by"`
	UserID     string          `json:"user" bson:"user"`
	Validation *ValidationData `json:"validation_data,omitempty" bson:"validation_data,omitempty"`
	Remarks    string          `json:"remarks,omitempty" bson:"remarks,omitempty"`
	CreatedAt  time.Time       `json:"created_at" bson:"created_at"`
}

// CurrentOTP points at the activity whose code is pending validation.
type CurrentOTP struct {
	ActivityID string    `bson:"activity_id"`
	Code       string    `bson:"code"`
	IssuedAt   time.Time `bson:"issued_at"`
	Validated  bool      `bson:"validated"`
}

// Request is one owner's attempt to recover account access.
type Request struct {
	ID         string       `json:"id" bson:"_id"`
	RequestID  int64        `json:"request_id" bson:"request_id"`
	UserID     string       `json:"user" bson:"user"`
	Role       sec.UserRole `json:"role" bson:"role"`
	Status     Status       `json:"status" bson:"status"`
	Activities []Activity   `json:"activities" bson:"activities"`
	CurrentOTP *CurrentOTP  `json:"-" bson:"current_otp,omitempty"`
	Version    int          `json:"-" bson:"version"`
	CreatedAt  time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" bson:"updated_at"`
}

// # State Machine

// Latest returns the type of the most recent activity, or "" for an empty log.
func (request *Request) Latest() ActivityType {
	if len(request.Activities) == 0 {
		return ""
	}
	return request.Activities[len(request.Activities)-1].Type
}

// Closed reports whether the request reached its terminal state.
func (request *Request) Closed() bool {
	return request.Status == StatusClosed
}

// LatestRejection returns when the request was rejected, or false when its final
// activity is anything else.
func (request *Request) LatestRejection() (time.Time, bool) {
	if request.Latest() != ActivityRejected {
		return time.Time{}, false
	}
	return request.Activities[len(request.Activities)-1].CreatedAt, true
}

var (
	awaitingDecision = []ActivityType{ActivityRequested, ActivityRequestedNewOTP, ActivityValidationFailed}
	otpPending       = []ActivityType{ActivityApproved, ActivityRequestedNewOTP, ActivityValidationFailed}
)

/*
CanTransition reports whether next may be appended after latest on an OPEN request.

  - APPROVED, REJECTED: the request awaits a decision.
  - REQUESTED_NEW_OTP, VALIDATION_*: an OTP has been issued and not yet validated.
  - SUCCESSFULLY_UPDATED: the OTP was validated by the most recent activity.
  - WITHDRAWN: always, while open.
*/
func CanTransition(latest, next ActivityType) bool {
	switch next {
	case ActivityApproved, ActivityRejected:
		return slices.Contains(awaitingDecision, latest)
	case ActivityRequestedNewOTP, ActivityValidationSuccess, ActivityValidationFailed:
		return slices.Contains(otpPending, latest)
	case ActivitySuccessfullyUpdated:
		return latest == ActivityValidationSuccess
	case ActivityWithdrawn:
		return latest != ""
	default:
		return false
	}
}

// terminal reports whether appending t closes the request.
func terminal(t ActivityType) bool {
	return t == ActivityRejected || t == ActivityWithdrawn || t == ActivitySuccessfullyUpdated
}

// appendActivity adds activity to the log, maintaining CurrentOTP and Status.
func (request *Request) appendActivity(activity Activity) {
	request.Activities = append(request.Activities, activity)
	request.UpdatedAt = activity.CreatedAt

	if activity.Validation != nil && (activity.Type == ActivityApproved || activity.Type == ActivityRequestedNewOTP) {
		request.CurrentOTP = &CurrentOTP{
			ActivityID: activity.ID,
			Code:       activity.Validation.OTP,
			IssuedAt:   activity.Validation.IssuedAt,
		}
	}

	if terminal(activity.Type) {
		request.Status = StatusClosed
	}
}

// markValidated flags the current OTP and the activity that issued it.
func (request *Request) markValidated() {
	if request.CurrentOTP == nil {
		return
	}
	request.CurrentOTP.Validated = true

	for index := range request.Activities {
		activity := &request.Activities[index]
		if activity.ID == request.CurrentOTP.ActivityID && activity.Validation != nil {
			activity.Validation.Validated = true
		}
	}
}

// # Read Models

// ActorSummary is the populated view of a user referenced by a request.
type ActorSummary struct {
	ID        string       `json:"id"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Role      sec.UserRole `json:"role"`
}

// ActivityView is an activity with its acting user populated.
type ActivityView struct {
	Activity
	User ActorSummary `json:"user"`
}

// View is a request with the requester and every activity actor populated.
type View struct {
	ID         string         `json:"id"`
	RequestID  int64          `json:"request_id"`
	User       ActorSummary   `json:"user"`
	Role       sec.UserRole   `json:"role"`
	Status     Status         `json:"status"`
	Activities []ActivityView `json:"activities"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
