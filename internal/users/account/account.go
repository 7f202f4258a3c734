// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account provides the super-admin directory of owner accounts.

It lists owners with role and creation-order filters and exposes the recent
login-attempt log of a single owner.

# Architecture

  - Entities: Summary (DTO), ListQuery.
  - Domain: This package depends on the auth package for the User entity and its
    repository; it owns no storage of its own.
  - Security: Every endpoint requires a fully validated SUPER_ADMIN session.
*/
package account

import (
	"strings"
	"time"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
	"github.com/taibuivan/ownerauth/internal/users/auth"
)

// # Domain Entities

// Summary is the directory view of one owner. Secrets and pending OTPs are never part of it.
type Summary struct {
	ID             string             `json:"id"`
	FirstName      string             `json:"first_name"`
	LastName       string             `json:"last_name"`
	Email          string             `json:"email_id"`
	Phone          string             `json:"phone_number"`
	Role           sec.UserRole       `json:"role"`
	Avatar         string             `json:"avatar,omitempty"`
	Status         auth.AccountStatus `json:"status"`
	EmailValidated bool               `json:"is_email_validated"`
	PhoneValidated bool               `json:"is_phone_validated"`
	TwoFAEnabled   bool               `json:"is_2fa_enabled"`
	CreatedBy      string             `json:"created_by,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// NewSummary projects user onto its directory view.
func NewSummary(user *auth.User) Summary {
	return Summary{
		ID:             user.ID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		Phone:          user.Phone,
		Role:           user.Role,
		Avatar:         user.Avatar,
		Status:         user.Status,
		EmailValidated: user.EmailCheck.Validated,
		PhoneValidated: user.PhoneCheck.Validated,
		TwoFAEnabled:   user.TwoFactor.Validated,
		CreatedBy:      user.CreatedBy,
		CreatedAt:      user.CreatedAt,
	}
}

// # Query Parsing

// Sort orders accepted by the created_on parameter.
const (
	CreatedRecent = "RECENT"
	CreatedOld    = "OLD"

	// RolesAll disables the role filter.
	RolesAll = "ALL"
)

// ListQuery is the parsed form of the directory query string.
type ListQuery struct {
	Roles     []string
	CreatedOn string
}

/*
Filter converts the query into a repository filter.

Returns:
  - auth.ListFilter: Roles nil means every role
  - error: apperr.ValidationError naming the first bad value
*/
func (query ListQuery) Filter() (auth.ListFilter, error) {
	filter := auth.ListFilter{}

	switch strings.ToUpper(query.CreatedOn) {
	case "", CreatedRecent:
		filter.NewestFirst = true
	case CreatedOld:
	default:
		return filter, apperr.ValidationError("Invalid query", apperr.FieldError{
			Field:   FieldCreatedOn,
			Message: "Must be RECENT or OLD",
		})
	}

	for _, raw := range query.Roles {
		if strings.EqualFold(raw, RolesAll) {
			return auth.ListFilter{NewestFirst: filter.NewestFirst}, nil
		}
		role, ok := sec.ParseRole(raw)
		if !ok {
			return filter, apperr.ValidationError("Invalid query", apperr.FieldError{
				Field:   FieldRoles,
				Message: "Unknown role " + raw,
			})
		}
		filter.Roles = append(filter.Roles, role)
	}

	return filter, nil
}

// # Field Names

const (
	FieldRoles     = "roles"
	FieldCreatedOn = "created_on"
	FieldLimit     = "limit"
)
