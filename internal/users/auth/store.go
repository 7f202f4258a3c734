// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"

	"github.com/taibuivan/ownerauth/internal/platform/sec"
)

// # Listing

// ListFilter narrows the owner directory.
type ListFilter struct {
	// Roles restricts the result to the given roles; empty means every role.
	Roles []sec.UserRole

	// NewestFirst orders by creation time descending.
	NewestFirst bool
}

// # User Data Access

// UserRepository defines the data access contract for owner accounts and their
// attempt log.
//
// Lookups return archived accounts too; [User.CheckAccess] decides visibility.
type UserRepository interface {

	/*
		Create persists a brand-new owner account.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on duplicate email or phone, persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given normalised email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByPhone returns the account with the given phone number.

		Parameters:
		  - context: context.Context
		  - phone: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByPhone(context context.Context, phone string) (*User, error)

	/*
		Update persists status, verification and 2FA state.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	Update(context context.Context, user *User) error

	/*
		UpdatePassword replaces only the owner's password hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - passwordHash: string

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	UpdatePassword(context context.Context, userID, passwordHash string) error

	/*
		AppendAttempt adds one entry to the owner's attempt log.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - attempt: LoginAttempt

		Returns:
		  - error: Persistence failures
	*/
	AppendAttempt(context context.Context, userID string, attempt LoginAttempt) error

	/*
		ListAttempts returns the most recent attempts, newest first.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - limit: int

		Returns:
		  - []LoginAttempt: Attempt log slice
		  - error: Retrieval failures
	*/
	ListAttempts(context context.Context, userID string, limit int) ([]LoginAttempt, error)

	/*
		List returns every non-archived owner matching filter.

		Parameters:
		  - context: context.Context
		  - filter: ListFilter

		Returns:
		  - []*User: Owner accounts
		  - error: Retrieval failures
	*/
	List(context context.Context, filter ListFilter) ([]*User, error)
}
