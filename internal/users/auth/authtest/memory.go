// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package authtest provides an in-memory [auth.UserRepository] for tests of the
// packages built on top of owner accounts.
package authtest

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	"github.com/taibuivan/ownerauth/internal/users/auth"
)

// MemoryUserRepository keeps owners and their attempt logs in maps.
// Entities are copied on the way in and out so callers cannot mutate stored state.
type MemoryUserRepository struct {
	mutex    sync.Mutex
	users    map[string]auth.User
	attempts map[string][]auth.LoginAttempt

	// FailAppend makes AppendAttempt return this error when set.
	FailAppend error
}

// NewMemoryUserRepository returns an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:    map[string]auth.User{},
		attempts: map[string][]auth.LoginAttempt{},
	}
}

// Put stores user as-is, replacing any previous version.
func (repository *MemoryUserRepository) Put(user auth.User) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.users[user.ID] = user
}

// Get returns a copy of the stored user.
func (repository *MemoryUserRepository) Get(id string) (auth.User, bool) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	user, ok := repository.users[id]
	return user, ok
}

// Attempts returns the attempt log of id in insertion order.
func (repository *MemoryUserRepository) Attempts(id string) []auth.LoginAttempt {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	return slices.Clone(repository.attempts[id])
}

func (repository *MemoryUserRepository) Create(_ context.Context, user *auth.User) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	for _, existing := range repository.users {
		if existing.Email == user.Email || existing.Phone == user.Phone {
			return apperr.Conflict("User already exists")
		}
	}
	repository.users[user.ID] = *user
	return nil
}

func (repository *MemoryUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	return repository.find(func(user auth.User) bool { return user.ID == id })
}

func (repository *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	return repository.find(func(user auth.User) bool { return user.Email == email })
}

func (repository *MemoryUserRepository) FindByPhone(_ context.Context, phone string) (*auth.User, error) {
	return repository.find(func(user auth.User) bool { return user.Phone == phone })
}

func (repository *MemoryUserRepository) find(match func(auth.User) bool) (*auth.User, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	for _, user := range repository.users {
		if match(user) {
			found := user
			return &found, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repository *MemoryUserRepository) Update(_ context.Context, user *auth.User) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	if _, ok := repository.users[user.ID]; !ok {
		return apperr.NotFound("User")
	}
	repository.users[user.ID] = *user
	return nil
}

func (repository *MemoryUserRepository) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	user, ok := repository.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PasswordHash = passwordHash
	repository.users[userID] = user
	return nil
}

func (repository *MemoryUserRepository) AppendAttempt(_ context.Context, userID string, attempt auth.LoginAttempt) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	if repository.FailAppend != nil {
		return repository.FailAppend
	}
	repository.attempts[userID] = append(repository.attempts[userID], attempt)
	return nil
}

func (repository *MemoryUserRepository) ListAttempts(_ context.Context, userID string, limit int) ([]auth.LoginAttempt, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	attempts := slices.Clone(repository.attempts[userID])
	slices.Reverse(attempts)
	if len(attempts) > limit {
		attempts = attempts[:limit]
	}
	return attempts, nil
}

func (repository *MemoryUserRepository) List(_ context.Context, filter auth.ListFilter) ([]*auth.User, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	var users []*auth.User
	for _, user := range repository.users {
		if user.Status == auth.StatusArchived {
			continue
		}
		if len(filter.Roles) > 0 && !slices.Contains(filter.Roles, user.Role) {
			continue
		}
		found := user
		users = append(users, &found)
	}

	sort.Slice(users, func(i, j int) bool {
		if filter.NewestFirst {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}
