// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	"github.com/taibuivan/ownerauth/internal/platform/ctxutil"
	"github.com/taibuivan/ownerauth/internal/users/auth"
)

// # Service Layer

const (
	// DefaultAttemptLimit is the number of attempts returned when the caller gives none.
	DefaultAttemptLimit = 20
	// MaxAttemptLimit caps a single attempt-log page.
	MaxAttemptLimit = 100
)

// Service orchestrates the owner directory on top of the auth user repository.
type Service struct {
	userRepository auth.UserRepository
	now            func() time.Time
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(userRepo auth.UserRepository) *Service {
	return &Service{userRepository: userRepo, now: time.Now}
}

/*
List returns every non-archived owner matching query.

Parameters:
  - context: context.Context
  - query: ListQuery

Returns:
  - []Summary: Never nil
  - error: Validation or storage failures
*/
func (service *Service) List(context context.Context, query ListQuery) ([]Summary, error) {
	filter, err := query.Filter()
	if err != nil {
		return nil, err
	}

	users, err := service.userRepository.List(context, filter)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_failed: %w", err)
	}

	summaries := make([]Summary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, NewSummary(user))
	}
	return summaries, nil
}

/*
Attempts returns the most recent login attempts of userID, newest first.

Parameters:
  - context: context.Context
  - userID: string
  - limit: int (clamped to [1, MaxAttemptLimit])

Returns:
  - []auth.LoginAttempt: Attempt log page
  - error: NotFound for unknown or archived owners
*/
func (service *Service) Attempts(context context.Context, userID string, limit int) ([]auth.LoginAttempt, error) {
	if _, err := service.find(context, userID); err != nil {
		return nil, err
	}

	if limit < 1 {
		limit = DefaultAttemptLimit
	}
	limit = min(limit, MaxAttemptLimit)

	attempts, err := service.userRepository.ListAttempts(context, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("account_service_attempts_failed: %w", err)
	}
	return attempts, nil
}

/*
SetStatus switches an owner between ACTIVE, DISABLED and ARCHIVED.

Description: An owner cannot change their own status, so the last super admin
cannot lock themselves out. Archived owners are invisible and cannot be restored
through this call.

Parameters:
  - context: context.Context
  - actorID: string (the calling super admin)
  - userID: string
  - status: auth.AccountStatus

Returns:
  - *Summary: The updated owner
  - error: Forbidden, NotFound or storage failures
*/
func (service *Service) SetStatus(context context.Context, actorID, userID string, status auth.AccountStatus) (*Summary, error) {
	if actorID == userID {
		return nil, apperr.Forbidden("You cannot change the status of your own account")
	}

	user, err := service.find(context, userID)
	if err != nil {
		return nil, err
	}

	if user.Status != status {
		user.Status = status
		user.UpdatedAt = service.now().UTC()
		if err := service.userRepository.Update(context, user); err != nil {
			return nil, fmt.Errorf("account_service_set_status_failed: %w", err)
		}

		ctxutil.Logger(context).Info("owner_status_changed",
			slog.String("user_id", user.ID),
			slog.String("status", string(status)),
			slog.String("actor_id", actorID),
		)
	}

	summary := NewSummary(user)
	return &summary, nil
}

func (service *Service) find(context context.Context, userID string) (*auth.User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	if user.Status == auth.StatusArchived {
		return nil, apperr.NotFound("User")
	}
	return user, nil
}
