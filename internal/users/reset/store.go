// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reset

import "context"

// ListFilter narrows a request listing.
type ListFilter struct {
	// Status is "" for every status.
	Status Status
	Offset int
	Limit  int
}

// RequestRepository defines the persistence contract for reset requests.
type RequestRepository interface {
	/*
		Create persists a new request together with its first activity.

		Parameters:
		  - context: context.Context
		  - request: *Request

		Returns:
		  - error: apperr.Conflict when the owner already has an OPEN request
	*/
	Create(context context.Context, request *Request) error

	/*
		FindByID retrieves a request and its full activity log.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Request: The hydrated request
		  - error: apperr.NotFound or database errors
	*/
	FindByID(context context.Context, id string) (*Request, error)

	/*
		FindOpenByUser returns the single OPEN request of userID.

		Returns:
		  - error: apperr.NotFound when the owner has no OPEN request
	*/
	FindOpenByUser(context context.Context, userID string) (*Request, error)

	/*
		FindLatestClosedByUser returns the most recently closed request of userID.

		Returns:
		  - error: apperr.NotFound when the owner never had a request closed
	*/
	FindLatestClosedByUser(context context.Context, userID string) (*Request, error)

	/*
		List returns a page of requests, newest first, and the total match count.

		Parameters:
		  - context: context.Context
		  - filter: ListFilter

		Returns:
		  - []*Request: The page
		  - int: Total matching requests
		  - error: database errors
	*/
	List(context context.Context, filter ListFilter) ([]*Request, int, error)

	/*
		Save writes the request state and any activities not yet stored.

		Description: The write only applies when the stored version still equals
		request.Version; on success request.Version is incremented.

		Parameters:
		  - context: context.Context
		  - request: *Request

		Returns:
		  - error: apperr.Conflict on a stale version, apperr.NotFound, or database errors
	*/
	Save(context context.Context, request *Request) error
}
