// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package resettest provides an in-memory [reset.RequestRepository] that honours
// the same open-request uniqueness and version checks as the real stores.
package resettest

import (
	"context"
	"sort"
	"sync"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	"github.com/taibuivan/ownerauth/internal/users/reset"
)

// MemoryRequestRepository keeps requests in a map keyed by id.
type MemoryRequestRepository struct {
	mutex    sync.Mutex
	requests map[string]*reset.Request

	// FailSave makes Save return this error when set.
	FailSave error
}

// NewMemoryRequestRepository returns an empty repository.
func NewMemoryRequestRepository() *MemoryRequestRepository {
	return &MemoryRequestRepository{requests: map[string]*reset.Request{}}
}

// Put stores request as-is, bypassing every check.
func (repository *MemoryRequestRepository) Put(request *reset.Request) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.requests[request.ID] = clone(request)
}

// Get returns a copy of the stored request.
func (repository *MemoryRequestRepository) Get(id string) (*reset.Request, bool) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	request, ok := repository.requests[id]
	if !ok {
		return nil, false
	}
	return clone(request), true
}

// Len returns the number of stored requests.
func (repository *MemoryRequestRepository) Len() int {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	return len(repository.requests)
}

func (repository *MemoryRequestRepository) Create(_ context.Context, request *reset.Request) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	for _, existing := range repository.requests {
		if existing.UserID == request.UserID && existing.Status == reset.StatusOpen {
			return apperr.Conflict("Request already exists")
		}
	}
	if request.UpdatedAt.IsZero() {
		request.UpdatedAt = request.CreatedAt
	}
	repository.requests[request.ID] = clone(request)
	return nil
}

func (repository *MemoryRequestRepository) FindByID(_ context.Context, id string) (*reset.Request, error) {
	return repository.find(func(request *reset.Request) bool { return request.ID == id })
}

func (repository *MemoryRequestRepository) FindOpenByUser(_ context.Context, userID string) (*reset.Request, error) {
	return repository.find(func(request *reset.Request) bool {
		return request.UserID == userID && request.Status == reset.StatusOpen
	})
}

func (repository *MemoryRequestRepository) FindLatestClosedByUser(_ context.Context, userID string) (*reset.Request, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	var latest *reset.Request
	for _, request := range repository.requests {
		if request.UserID != userID || request.Status != reset.StatusClosed {
			continue
		}
		if latest == nil || request.UpdatedAt.After(latest.UpdatedAt) {
			latest = request
		}
	}
	if latest == nil {
		return nil, apperr.NotFound("Request")
	}
	return clone(latest), nil
}

func (repository *MemoryRequestRepository) List(_ context.Context, filter reset.ListFilter) ([]*reset.Request, int, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	matched := []*reset.Request{}
	for _, request := range repository.requests {
		if filter.Status == "" || request.Status == filter.Status {
			matched = append(matched, request)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	page := make([]*reset.Request, 0, end-start)
	for _, request := range matched[start:end] {
		page = append(page, clone(request))
	}
	return page, total, nil
}

func (repository *MemoryRequestRepository) Save(_ context.Context, request *reset.Request) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	if repository.FailSave != nil {
		return repository.FailSave
	}

	stored, ok := repository.requests[request.ID]
	if !ok {
		return apperr.NotFound("Request")
	}
	if stored.Version != request.Version {
		return apperr.Conflict("Request was modified by another action, please retry")
	}

	request.Version++
	repository.requests[request.ID] = clone(request)
	return nil
}

func (repository *MemoryRequestRepository) find(match func(*reset.Request) bool) (*reset.Request, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	for _, request := range repository.requests {
		if match(request) {
			return clone(request), nil
		}
	}
	return nil, apperr.NotFound("Request")
}

// clone deep-copies the activity log and OTP pointers.
func clone(request *reset.Request) *reset.Request {
	copied := *request
	copied.Activities = make([]reset.Activity, len(request.Activities))
	for index, activity := range request.Activities {
		if activity.Validation != nil {
			validation := *activity.Validation
			activity.Validation = &validation
		}
		copied.Activities[index] = activity
	}
	if request.CurrentOTP != nil {
		current := *request.CurrentOTP
		copied.CurrentOTP = &current
	}
	return &copied
}
