// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	mongostore "github.com/taibuivan/ownerauth/internal/platform/mongo"
)

// # Mongo Repository

const (
	collectionOwners = "owners"
	fieldAttempts    = "login_attempts"
)

// MongoUserRepository implements [UserRepository] on a document store.
//
// The attempt log is embedded in the owner document and appended with $push;
// every account lookup projects it away.
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository binds the repository to the owners collection of db.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection(collectionOwners)}
}

// UserIndexes lists the indexes the owners collection needs.
func UserIndexes() []mongostore.Index {
	return []mongostore.Index{
		{Collection: collectionOwners, Keys: bson.D{{Key: "email", Value: 1}}, Unique: true, Name: "uq_owner_email"},
		{Collection: collectionOwners, Keys: bson.D{{Key: "phone", Value: 1}}, Unique: true, Name: "uq_owner_phone"},
		{Collection: collectionOwners, Keys: bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: -1}}, Name: "idx_owner_role_created"},
	}
}

var withoutAttempts = bson.D{{Key: fieldAttempts, Value: 0}}

// Create inserts the owner document with an empty attempt log.
func (repository *MongoUserRepository) Create(context context.Context, user *User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	document, err := bson.Marshal(user)
	if err != nil {
		return fmt.Errorf("mongo_user_repo_encode_failed: %w", err)
	}

	var raw bson.D
	if err := bson.Unmarshal(document, &raw); err != nil {
		return fmt.Errorf("mongo_user_repo_encode_failed: %w", err)
	}
	raw = append(raw, bson.E{Key: fieldAttempts, Value: bson.A{}})

	_, err = repository.collection.InsertOne(context, raw)
	return mongostore.WrapError(err, resourceUser)
}

// FindByID resolves an owner by _id.
func (repository *MongoUserRepository) FindByID(context context.Context, id string) (*User, error) {
	return repository.findOne(context, bson.D{{Key: "_id", Value: id}})
}

// FindByEmail resolves an owner by email.
func (repository *MongoUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	return repository.findOne(context, bson.D{{Key: "email", Value: email}})
}

// FindByPhone resolves an owner by phone number.
func (repository *MongoUserRepository) FindByPhone(context context.Context, phone string) (*User, error) {
	return repository.findOne(context, bson.D{{Key: "phone", Value: phone}})
}

func (repository *MongoUserRepository) findOne(context context.Context, filter bson.D) (*User, error) {
	return mongostore.FindOne[User](context, repository.collection, filter, resourceUser,
		options.FindOne().SetProjection(withoutAttempts))
}

// Update rewrites status, verification and 2FA sub-documents.
func (repository *MongoUserRepository) Update(context context.Context, user *User) error {
	user.UpdatedAt = time.Now().UTC()

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: user.Status},
		{Key: "role", Value: user.Role},
		{Key: "avatar", Value: user.Avatar},
		{Key: "email_data", Value: user.EmailCheck},
		{Key: "phone_data", Value: user.PhoneCheck},
		{Key: "two_factor", Value: user.TwoFactor},
		{Key: "updated_at", Value: user.UpdatedAt},
	}}}

	return repository.updateOne(context, user.ID, update)
}

// UpdatePassword sets only the password hash.
func (repository *MongoUserRepository) UpdatePassword(context context.Context, userID, passwordHash string) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "password_hash", Value: passwordHash},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}

	return repository.updateOne(context, userID, update)
}

func (repository *MongoUserRepository) updateOne(context context.Context, id string, update bson.D) error {
	result, err := repository.collection.UpdateOne(context, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return mongostore.WrapError(err, resourceUser)
	}
	if result.MatchedCount == 0 {
		return mongostore.WrapError(mongo.ErrNoDocuments, resourceUser)
	}
	return nil
}

// # Attempt Log

// AppendAttempt pushes one entry onto the embedded attempt log.
func (repository *MongoUserRepository) AppendAttempt(context context.Context, userID string, attempt LoginAttempt) error {
	update := bson.D{{Key: "$push", Value: bson.D{{Key: fieldAttempts, Value: attempt}}}}
	return repository.updateOne(context, userID, update)
}

// ListAttempts returns the last limit entries of the log, newest first.
func (repository *MongoUserRepository) ListAttempts(context context.Context, userID string, limit int) ([]LoginAttempt, error) {
	projection := bson.D{{Key: fieldAttempts, Value: bson.D{{Key: "$slice", Value: -limit}}}}

	var document struct {
		Attempts []LoginAttempt `bson:"login_attempts"`
	}

	err := repository.collection.FindOne(context, bson.D{{Key: "_id", Value: userID}},
		options.FindOne().SetProjection(projection)).Decode(&document)
	if err != nil {
		return nil, mongostore.WrapError(err, resourceUser)
	}

	slices.Reverse(document.Attempts)
	return document.Attempts, nil
}

// # Directory

// List returns non-archived owners, optionally restricted to roles.
func (repository *MongoUserRepository) List(context context.Context, filter ListFilter) ([]*User, error) {
	query := bson.D{{Key: "status", Value: bson.D{{Key: "$ne", Value: StatusArchived}}}}
	if len(filter.Roles) > 0 {
		query = append(query, bson.E{Key: "role", Value: bson.D{{Key: "$in", Value: filter.Roles}}})
	}

	order := 1
	if filter.NewestFirst {
		order = -1
	}

	opts := options.Find().
		SetProjection(withoutAttempts).
		SetSort(bson.D{{Key: "created_at", Value: order}})

	users, err := mongostore.FindMany[User](context, repository.collection, query, opts)
	if err != nil {
		return nil, err
	}

	result := make([]*User, len(users))
	for index := range users {
		result[index] = &users[index]
	}
	return result, nil
}
