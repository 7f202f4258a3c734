// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reset

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	mongostore "github.com/taibuivan/ownerauth/internal/platform/mongo"
)

// # Mongo Repository

const collectionRequests = "reset_requests"

// MongoRequestRepository implements [RequestRepository] with the activity log
// embedded in the request document.
type MongoRequestRepository struct {
	collection *mongo.Collection
}

// NewMongoRequestRepository binds the repository to the reset_requests collection of db.
func NewMongoRequestRepository(db *mongo.Database) *MongoRequestRepository {
	return &MongoRequestRepository{collection: db.Collection(collectionRequests)}
}

// RequestIndexes lists the indexes the reset_requests collection needs.
func RequestIndexes() []mongostore.Index {
	return []mongostore.Index{
		{
			Collection: collectionRequests,
			Keys:       bson.D{{Key: "user", Value: 1}},
			Unique:     true,
			Partial:    bson.D{{Key: "status", Value: StatusOpen}},
			Name:       "uq_reset_request_open",
		},
		{Collection: collectionRequests, Keys: bson.D{{Key: "request_id", Value: 1}}, Unique: true, Name: "uq_reset_request_id"},
		{Collection: collectionRequests, Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}, Name: "idx_reset_request_status"},
		{Collection: collectionRequests, Keys: bson.D{{Key: "user", Value: 1}, {Key: "updated_at", Value: -1}}, Name: "idx_reset_request_user"},
	}
}

// Create inserts the request document.
func (repository *MongoRequestRepository) Create(context context.Context, request *Request) error {
	if request.UpdatedAt.IsZero() {
		request.UpdatedAt = request.CreatedAt
	}

	_, err := repository.collection.InsertOne(context, request)
	return mongostore.WrapError(err, resourceRequest)
}

// FindByID resolves a request by _id.
func (repository *MongoRequestRepository) FindByID(context context.Context, id string) (*Request, error) {
	return mongostore.FindOne[Request](context, repository.collection, bson.D{{Key: "_id", Value: id}}, resourceRequest)
}

// FindOpenByUser resolves the OPEN request of an owner.
func (repository *MongoRequestRepository) FindOpenByUser(context context.Context, userID string) (*Request, error) {
	filter := bson.D{{Key: "user", Value: userID}, {Key: "status", Value: StatusOpen}}
	return mongostore.FindOne[Request](context, repository.collection, filter, resourceRequest)
}

// FindLatestClosedByUser resolves the request an owner most recently saw closed.
func (repository *MongoRequestRepository) FindLatestClosedByUser(context context.Context, userID string) (*Request, error) {
	filter := bson.D{{Key: "user", Value: userID}, {Key: "status", Value: StatusClosed}}
	return mongostore.FindOne[Request](context, repository.collection, filter, resourceRequest,
		options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
}

// List returns one page of requests, newest first, with the total count.
func (repository *MongoRequestRepository) List(context context.Context, filter ListFilter) ([]*Request, int, error) {
	query := bson.D{}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: filter.Status})
	}

	total, err := repository.collection.CountDocuments(context, query)
	if err != nil {
		return nil, 0, mongostore.WrapError(err, resourceRequest)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))

	documents, err := mongostore.FindMany[Request](context, repository.collection, query, findOptions)
	if err != nil {
		return nil, 0, err
	}

	requests := make([]*Request, len(documents))
	for index := range documents {
		requests[index] = &documents[index]
	}
	return requests, int(total), nil
}

// Save replaces the document when the stored version still matches.
func (repository *MongoRequestRepository) Save(context context.Context, request *Request) error {
	expected := request.Version
	next := *request
	next.Version = expected + 1

	filter := bson.D{{Key: "_id", Value: request.ID}, {Key: "version", Value: expected}}
	result, err := repository.collection.ReplaceOne(context, filter, &next)
	if err != nil {
		return mongostore.WrapError(err, resourceRequest)
	}

	if result.MatchedCount == 0 {
		count, err := repository.collection.CountDocuments(context, bson.D{{Key: "_id", Value: request.ID}})
		if err != nil {
			return mongostore.WrapError(err, resourceRequest)
		}
		if count == 0 {
			return apperr.NotFound(resourceRequest)
		}
		return apperr.Conflict(fmt.Sprintf("%s was modified by another action, please retry", resourceRequest))
	}

	request.Version = next.Version
	return nil
}
