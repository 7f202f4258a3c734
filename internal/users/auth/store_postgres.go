// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/ownerauth/internal/platform/database/schema"
	"github.com/taibuivan/ownerauth/internal/platform/dberr"
)

// # Postgres Repository

// PostgresUserRepository implements [UserRepository] on the owner schema.
//
// Storage errors are mapped through [dberr.Wrap] so pgx types never leak upward.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const resourceUser = "User"

// selectUser is the shared projection of every account lookup.
var selectUser = fmt.Sprintf("SELECT %s FROM %s",
	strings.Join(schema.OwnerAccount.Columns(), ", "), schema.OwnerAccount.Table)

/*
Create inserts a new row into owner.account.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on a duplicate email or phone, or database errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	columns := schema.OwnerAccount.Columns()
	placeholders := make([]string, len(columns))
	for index := range columns {
		placeholders[index] = fmt.Sprintf("$%d", index+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		schema.OwnerAccount.Table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.Avatar,
		user.Status,
		user.EmailCheck.Validated,
		user.EmailCheck.OTP,
		nullableTime(user.EmailCheck.IssuedAt),
		user.PhoneCheck.Validated,
		user.PhoneCheck.OTP,
		nullableTime(user.PhoneCheck.IssuedAt),
		user.TwoFactor.Secret,
		user.TwoFactor.OTPAuthURL,
		user.TwoFactor.Validated,
		user.TwoFactor.Provisioned,
		nullableString(user.CreatedBy),
		user.CreatedAt,
		user.UpdatedAt,
	)

	return dberr.Wrap(err, resourceUser, "postgres_user_repo_create_failed")
}

// FindByID resolves an account by primary key.
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	return repository.findBy(context, schema.OwnerAccount.ID, id, "postgres_user_repo_find_by_id_failed")
}

// FindByEmail resolves an account by its unique email.
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	return repository.findBy(context, schema.OwnerAccount.Email, email, "postgres_user_repo_find_by_email_failed")
}

// FindByPhone resolves an account by its unique phone number.
func (repository *PostgresUserRepository) FindByPhone(context context.Context, phone string) (*User, error) {
	return repository.findBy(context, schema.OwnerAccount.Phone, phone, "postgres_user_repo_find_by_phone_failed")
}

func (repository *PostgresUserRepository) findBy(context context.Context, column, value, action string) (*User, error) {
	query := fmt.Sprintf("%s WHERE %s = $1", selectUser, column)

	user, err := scanUser(repository.pool.QueryRow(context, query, value))
	if err != nil {
		return nil, dberr.Wrap(err, resourceUser, action)
	}
	return user, nil
}

/*
Update rewrites the status, verification and 2FA columns of an account.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: apperr.NotFound when no row matched, or database errors
*/
func (repository *PostgresUserRepository) Update(context context.Context, user *User) error {
	table := schema.OwnerAccount
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8,
		    %s = $9, %s = $10, %s = $11, %s = $12, %s = $13
		WHERE %s = $1`,
		table.Table,
		table.Status, table.EmailValidated, table.EmailOTP, table.EmailOTPIssuedAt,
		table.PhoneValidated, table.PhoneOTP, table.PhoneOTPIssuedAt,
		table.TwoFactorValidated, table.Provisioned, table.Avatar, table.Role, table.UpdatedAt,
		table.ID,
	)

	user.UpdatedAt = time.Now().UTC()
	tag, err := repository.pool.Exec(context, query,
		user.ID,
		user.Status,
		user.EmailCheck.Validated,
		user.EmailCheck.OTP,
		nullableTime(user.EmailCheck.IssuedAt),
		user.PhoneCheck.Validated,
		user.PhoneCheck.OTP,
		nullableTime(user.PhoneCheck.IssuedAt),
		user.TwoFactor.Validated,
		user.TwoFactor.Provisioned,
		user.Avatar,
		user.Role,
		user.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, resourceUser, "postgres_user_repo_update_failed")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resourceUser, "postgres_user_repo_update_failed")
	}
	return nil
}

// UpdatePassword replaces only the password hash.
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, passwordHash string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1",
		schema.OwnerAccount.Table, schema.OwnerAccount.PasswordHash,
		schema.OwnerAccount.UpdatedAt, schema.OwnerAccount.ID)

	tag, err := repository.pool.Exec(context, query, userID, passwordHash)
	if err != nil {
		return dberr.Wrap(err, resourceUser, "postgres_user_repo_update_password_failed")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resourceUser, "postgres_user_repo_update_password_failed")
	}
	return nil
}

// # Attempt Log

// AppendAttempt inserts one row into owner.loginattempt; metadata is stored as jsonb.
func (repository *PostgresUserRepository) AppendAttempt(context context.Context, userID string, attempt LoginAttempt) error {
	metadata, err := json.Marshal(attempt.Metadata)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_attempt_encode_failed: %w", err)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6)",
		schema.OwnerLoginAttempt.Table, strings.Join(schema.OwnerLoginAttempt.Columns(), ", "))

	_, err = repository.pool.Exec(context, query,
		userID, attempt.AttemptedOn, attempt.Result, attempt.Stage, attempt.Remarks, metadata)
	return dberr.Wrap(err, resourceUser, "postgres_user_repo_append_attempt_failed")
}

// ListAttempts returns the newest attempts of a user.
func (repository *PostgresUserRepository) ListAttempts(context context.Context, userID string, limit int) ([]LoginAttempt, error) {
	table := schema.OwnerLoginAttempt
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT $2`,
		table.AttemptedOn, table.Result, table.Stage, table.Remarks, table.Metadata,
		table.Table, table.UserID, table.ID,
	)

	rows, err := repository.pool.Query(context, query, userID, limit)
	if err != nil {
		return nil, dberr.Wrap(err, resourceUser, "postgres_user_repo_list_attempts_failed")
	}
	defer rows.Close()

	var attempts []LoginAttempt
	for rows.Next() {
		var attempt LoginAttempt
		var metadata []byte
		if err := rows.Scan(&attempt.AttemptedOn, &attempt.Result, &attempt.Stage, &attempt.Remarks, &metadata); err != nil {
			return nil, fmt.Errorf("postgres_user_repo_scan_attempt_failed: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &attempt.Metadata); err != nil {
				return nil, fmt.Errorf("postgres_user_repo_attempt_decode_failed: %w", err)
			}
		}
		attempts = append(attempts, attempt)
	}

	return attempts, rows.Err()
}

// # Directory

/*
List returns non-archived owners, optionally restricted to roles.

Parameters:
  - context: context.Context
  - filter: ListFilter

Returns:
  - []*User: Owner accounts ordered by creation time
  - error: Database errors
*/
func (repository *PostgresUserRepository) List(context context.Context, filter ListFilter) ([]*User, error) {
	table := schema.OwnerAccount
	query := fmt.Sprintf("%s WHERE %s <> $1", selectUser, table.Status)
	args := []any{StatusArchived}

	if len(filter.Roles) > 0 {
		roles := make([]string, len(filter.Roles))
		for index, role := range filter.Roles {
			roles[index] = string(role)
		}
		query += fmt.Sprintf(" AND %s = ANY($2)", table.Role)
		args = append(args, roles)
	}

	order := "ASC"
	if filter.NewestFirst {
		order = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", table.CreatedAt, order)

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, resourceUser, "postgres_user_repo_list_failed")
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_user_repo_scan_failed: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// # Scanning

// scanUser reads one row in [schema.OwnerAccountTable.Columns] order.
func scanUser(row pgx.Row) (*User, error) {
	var (
		user          User
		emailIssuedAt *time.Time
		phoneIssuedAt *time.Time
		createdBy     *string
	)

	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.Avatar,
		&user.Status,
		&user.EmailCheck.Validated,
		&user.EmailCheck.OTP,
		&emailIssuedAt,
		&user.PhoneCheck.Validated,
		&user.PhoneCheck.OTP,
		&phoneIssuedAt,
		&user.TwoFactor.Secret,
		&user.TwoFactor.OTPAuthURL,
		&user.TwoFactor.Validated,
		&user.TwoFactor.Provisioned,
		&createdBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if emailIssuedAt != nil {
		user.EmailCheck.IssuedAt = *emailIssuedAt
	}
	if phoneIssuedAt != nil {
		user.PhoneCheck.IssuedAt = *phoneIssuedAt
	}
	if createdBy != nil {
		user.CreatedBy = *createdBy
	}

	return &user, nil
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
