// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements owner identity, the progressive verification gates and
the login-attempt log.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no storage
dependencies and encapsulate the rules for account access and gate order.
*/
package auth

import (
	"strings"
	"time"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
)

// # Account Status

// AccountStatus is the single switch consulted before any authentication action.
type AccountStatus string

const (
	StatusActive   AccountStatus = "ACTIVE"
	StatusDisabled AccountStatus = "DISABLED"
	StatusArchived AccountStatus = "ARCHIVED"
)

// # Domain Entities

// ChannelVerification tracks one contact channel (email or phone) and its pending OTP.
type ChannelVerification struct {
	Validated bool      `json:"is_validated" bson:"is_validated"`
	OTP       string    `json:"-" bson:"otp,omitempty"`
	IssuedAt  time.Time `json:"-" bson:"issued_at,omitempty"`
}

// TwoFactor holds the TOTP enrolment of an owner.
//
// Provisioned records whether the downstream mirroring chain completed after the
// first successful 2FA; it is retried while false.
type TwoFactor struct {
	Secret      string `json:"-" bson:"secret"`
	OTPAuthURL  string `json:"-" bson:"otpauth_url"`
	Validated   bool   `json:"is_validated" bson:"is_validated"`
	Provisioned bool   `json:"is_provisioned" bson:"provisioned"`
}

// User represents an owner account of the content-management platform.
type User struct {
	ID           string              `json:"id" bson:"_id"`
	FirstName    string              `json:"first_name" bson:"first_name"`
	LastName     string              `json:"last_name" bson:"last_name"`
	Email        string              `json:"email_id" bson:"email"`
	Phone        string              `json:"phone_number" bson:"phone"`
	PasswordHash string              `json:"-" bson:"password_hash"`
	Role         sec.UserRole        `json:"role" bson:"role"`
	Avatar       string              `json:"avatar,omitempty" bson:"avatar"`
	Status       AccountStatus       `json:"status" bson:"status"`
	EmailCheck   ChannelVerification `json:"email_data" bson:"email_data"`
	PhoneCheck   ChannelVerification `json:"phone_data" bson:"phone_data"`
	TwoFactor    TwoFactor           `json:"two_factor_auth_data" bson:"two_factor"`
	CreatedBy    string              `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt    time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" bson:"updated_at"`
}

// FullName joins first and last name the way responses present it.
func (user *User) FullName() string {
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}

/*
CheckAccess is the only place account status is interpreted.

Returns:
  - nil for ACTIVE accounts
  - apperr.NotFound for ARCHIVED accounts (they are invisible)
  - apperr.Forbidden for DISABLED accounts
*/
func (user *User) CheckAccess() error {
	switch user.Status {
	case StatusActive:
		return nil
	case StatusArchived:
		return apperr.NotFound("User")
	default:
		return ErrUserDisabled
	}
}

// ErrUserDisabled is returned for any action by a soft-disabled account.
var ErrUserDisabled = apperr.Forbidden("User has been temporarily disabled")

// # Login Attempts

// AttemptResult classifies a recorded authentication event.
type AttemptResult string

const (
	ResultSuccess   AttemptResult = "SUCCESS"
	ResultFailure   AttemptResult = "FAILURE"
	ResultProcessed AttemptResult = "PROCESSED"
)

// AttemptStage names the step of the flow the event belongs to.
type AttemptStage string

const (
	StageLogin         AttemptStage = "LOGIN"
	StageValidateEmail AttemptStage = "VALIDATE_EMAIL"
	StageValidatePhone AttemptStage = "VALIDATE_PHONE_NO"
	StageValidate2FA   AttemptStage = "VALIDATE_2FA"
)

// Geolocation is the client-reported location attached to attempts.
type Geolocation struct {
	IPAddress   string `json:"ip_address,omitempty" bson:"ip_address,omitempty"`
	CountryCode string `json:"country_code,omitempty" bson:"country_code,omitempty"`
	CountryName string `json:"country_name,omitempty" bson:"country_name,omitempty"`
	State       string `json:"state,omitempty" bson:"state,omitempty"`
	City        string `json:"city,omitempty" bson:"city,omitempty"`
	Pincode     string `json:"pincode,omitempty" bson:"pincode,omitempty"`
	Latitude    string `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude   string `json:"longitude,omitempty" bson:"longitude,omitempty"`
}

// LoginAttempt is one immutable entry of an owner's attempt log.
type LoginAttempt struct {
	AttemptedOn time.Time     `json:"attempted_on" bson:"attempted_on"`
	Result      AttemptResult `json:"attempt_result" bson:"attempt_result"`
	Stage       AttemptStage  `json:"attempt_stage" bson:"attempt_stage"`
	Remarks     string        `json:"remarks" bson:"remarks"`
	Metadata    Geolocation   `json:"metadata" bson:"metadata"`
}

// # Attempt Remarks

const (
	RemarkInvalidPassword     = "Entered Invalid Password"
	RemarkDisabled            = "User tried logging in was temporarily disabled."
	RemarkRedirectEmail       = "Redirected to Email ID Validation"
	RemarkRedirectPhone       = "Redirected to Phone Number Validation"
	RemarkRedirect2FA         = "Redirected to 2FA Validation"
	RemarkRedirect2FAVerify   = "Redirected to 2FA Verification"
	RemarkOTPInvalid          = "Entered OTP is invalid."
	RemarkOTPExpired          = "Entered OTP has been expired."
	RemarkEmailToPhone        = "Email validation successfull. Redirected to phone validation."
	RemarkEmailTo2FA          = "Email validation successfull. Redirected to 2fa validation."
	RemarkPhoneTo2FA          = "Phone No. validation successfull. Redirected to 2fa validation."
	RemarkQRProcessed         = "User 2fa QR Code request successfully processed."
	Remark2FASuccess          = "User successfully logged in by validating 2fa."
	Remark2FAProvisionFailure = "2fa validation successfull. Failed to provision user: "
)

// # Field Identifiers

const (
	FieldFirstName      = "first_name"
	FieldLastName       = "last_name"
	FieldEmail          = "email_id"
	FieldPhone          = "phone_number"
	FieldPassword       = "password"
	FieldRole           = "role"
	FieldOTP            = "otp"
	FieldRefreshToken   = "refresh_token"
	FieldAccessToken    = "access_token"
	FieldUserID         = "user_id"
	FieldName           = "name"
	FieldQRToken        = "qr_token"
	FieldMessage        = "message"
	FieldRepeatPassword = "repeat_password"
)
