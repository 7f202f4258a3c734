// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reset

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	"github.com/taibuivan/ownerauth/internal/platform/database/schema"
	"github.com/taibuivan/ownerauth/internal/platform/dberr"
	"github.com/taibuivan/ownerauth/internal/platform/postgres"
)

// # Postgres Repository

// PostgresRequestRepository implements [RequestRepository] over owner.resetrequest
// and its append-only owner.resetactivity log.
//
// The partial unique index uq_owner_resetrequest_open keeps one OPEN request per owner.
type PostgresRequestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository creates a new PostgreSQL implementation of the RequestRepository.
func NewRequestRepository(pool *pgxpool.Pool) *PostgresRequestRepository {
	return &PostgresRequestRepository{pool: pool}
}

var (
	selectRequest = fmt.Sprintf("SELECT %s FROM %s",
		strings.Join(schema.OwnerResetRequest.Columns(), ", "), schema.OwnerResetRequest.Table)

	selectActivity = fmt.Sprintf("SELECT %s FROM %s",
		strings.Join(schema.OwnerResetActivity.Columns(), ", "), schema.OwnerResetActivity.Table)
)

/*
Create inserts the request row and its initial activities in one transaction.

Parameters:
  - context: context.Context
  - request: *Request

Returns:
  - error: apperr.Conflict when an OPEN request already exists for the owner
*/
func (repository *PostgresRequestRepository) Create(context context.Context, request *Request) error {
	table := schema.OwnerResetRequest
	columns := table.Columns()
	placeholders := make([]string, len(columns))
	for index := range columns {
		placeholders[index] = fmt.Sprintf("$%d", index+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table.Table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	if request.UpdatedAt.IsZero() {
		request.UpdatedAt = request.CreatedAt
	}

	return postgres.InTx(context, repository.pool, func(tx pgx.Tx) error {
		otpActivity, otpCode, otpIssuedAt, otpValidated := currentOTPColumns(request)
		_, err := tx.Exec(context, query,
			request.ID,
			request.RequestID,
			request.UserID,
			request.Role,
			request.Status,
			otpActivity,
			otpCode,
			otpIssuedAt,
			otpValidated,
			request.Version,
			request.CreatedAt,
			request.UpdatedAt,
		)
		if err != nil {
			return dberr.Wrap(err, resourceRequest, "postgres_reset_repo_create_failed")
		}

		return insertActivities(context, tx, request)
	})
}

// FindByID resolves a request by primary key.
func (repository *PostgresRequestRepository) FindByID(context context.Context, id string) (*Request, error) {
	query := fmt.Sprintf("%s WHERE %s = $1", selectRequest, schema.OwnerResetRequest.ID)
	return repository.findOne(context, query, "postgres_reset_repo_find_by_id_failed", id)
}

// FindOpenByUser resolves the OPEN request of an owner.
func (repository *PostgresRequestRepository) FindOpenByUser(context context.Context, userID string) (*Request, error) {
	table := schema.OwnerResetRequest
	query := fmt.Sprintf("%s WHERE %s = $1 AND %s = $2", selectRequest, table.UserID, table.Status)
	return repository.findOne(context, query, "postgres_reset_repo_find_open_failed", userID, StatusOpen)
}

// FindLatestClosedByUser resolves the request an owner most recently saw closed.
func (repository *PostgresRequestRepository) FindLatestClosedByUser(context context.Context, userID string) (*Request, error) {
	table := schema.OwnerResetRequest
	query := fmt.Sprintf("%s WHERE %s = $1 AND %s = $2 ORDER BY %s DESC LIMIT 1",
		selectRequest, table.UserID, table.Status, table.UpdatedAt)
	return repository.findOne(context, query, "postgres_reset_repo_find_closed_failed", userID, StatusClosed)
}

func (repository *PostgresRequestRepository) findOne(context context.Context, query, action string, args ...any) (*Request, error) {
	request, err := scanRequest(repository.pool.QueryRow(context, query, args...))
	if err != nil {
		return nil, dberr.Wrap(err, resourceRequest, action)
	}

	if err := repository.loadActivities(context, []*Request{request}); err != nil {
		return nil, err
	}
	return request, nil
}

/*
List returns one page of requests ordered by creation time, newest first.

Parameters:
  - context: context.Context
  - filter: ListFilter

Returns:
  - []*Request: Requests with their activity logs
  - int: Total count across all pages
  - error: Database errors
*/
func (repository *PostgresRequestRepository) List(context context.Context, filter ListFilter) ([]*Request, int, error) {
	table := schema.OwnerResetRequest
	where := ""
	args := []any{filter.Limit, filter.Offset}
	if filter.Status != "" {
		where = fmt.Sprintf(" WHERE %s = $3", table.Status)
		args = append(args, filter.Status)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", table.Table, strings.ReplaceAll(where, "$3", "$1"))
	countArgs := args[2:]
	if err := repository.pool.QueryRow(context, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, resourceRequest, "postgres_reset_repo_count_failed")
	}

	query := fmt.Sprintf("%s%s ORDER BY %s DESC LIMIT $1 OFFSET $2", selectRequest, where, table.CreatedAt)
	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resourceRequest, "postgres_reset_repo_list_failed")
	}
	defer rows.Close()

	requests := []*Request{}
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_reset_repo_scan_failed: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, resourceRequest, "postgres_reset_repo_list_failed")
	}

	if err := repository.loadActivities(context, requests); err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

/*
Save applies the request state when the stored version still matches.

Description: The request row is updated with a version guard, activities are
inserted idempotently by sequence number and the validated flag of the current
OTP activity is refreshed. All of it commits or none of it does.

Parameters:
  - context: context.Context
  - request: *Request

Returns:
  - error: apperr.Conflict on a stale version, apperr.NotFound, or database errors
*/
func (repository *PostgresRequestRepository) Save(context context.Context, request *Request) error {
	table := schema.OwnerResetRequest
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = %s + 1, %s = $8
		WHERE %s = $1 AND %s = $2`,
		table.Table,
		table.Status, table.CurrentOTPActivityID, table.CurrentOTP, table.CurrentOTPIssuedAt,
		table.CurrentOTPValidated, table.Version, table.Version, table.UpdatedAt,
		table.ID, table.Version,
	)

	if request.UpdatedAt.IsZero() {
		request.UpdatedAt = time.Now().UTC()
	}

	err := postgres.InTx(context, repository.pool, func(tx pgx.Tx) error {
		otpActivity, otpCode, otpIssuedAt, otpValidated := currentOTPColumns(request)
		tag, err := tx.Exec(context, query,
			request.ID, request.Version,
			request.Status, otpActivity, otpCode, otpIssuedAt, otpValidated, request.UpdatedAt,
		)
		if err != nil {
			return dberr.Wrap(err, resourceRequest, "postgres_reset_repo_save_failed")
		}
		if tag.RowsAffected() == 0 {
			return staleWrite(context, tx, request.ID)
		}

		if err := insertActivities(context, tx, request); err != nil {
			return err
		}

		if request.CurrentOTP != nil && request.CurrentOTP.Validated {
			activityTable := schema.OwnerResetActivity
			validatedQuery := fmt.Sprintf("UPDATE %s SET %s = TRUE WHERE %s = $1",
				activityTable.Table, activityTable.OTPValidated, activityTable.ID)
			if _, err := tx.Exec(context, validatedQuery, request.CurrentOTP.ActivityID); err != nil {
				return dberr.Wrap(err, resourceRequest, "postgres_reset_repo_mark_validated_failed")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	request.Version++
	return nil
}

// staleWrite distinguishes a missing request from a lost compare-and-swap.
func staleWrite(context context.Context, tx pgx.Tx, id string) error {
	table := schema.OwnerResetRequest
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)", table.Table, table.ID)
	if err := tx.QueryRow(context, query, id).Scan(&exists); err != nil {
		return dberr.Wrap(err, resourceRequest, "postgres_reset_repo_save_failed")
	}
	if !exists {
		return apperr.NotFound(resourceRequest)
	}
	return apperr.Conflict("Request was modified by another action, please retry")
}

// insertActivities writes every activity; rows already stored are skipped by (requestid, seq).
func insertActivities(context context.Context, tx pgx.Tx, request *Request) error {
	table := schema.OwnerResetActivity
	query := fmt.Sprintf(`
		INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (%s, %s) DO NOTHING`,
		table.Table, strings.Join(table.Columns(), ", "), table.RequestID, table.Seq)

	batch := &pgx.Batch{}
	for index, activity := range request.Activities {
		var (
			otp       any
			issuedAt  any
			validated any
		)
		if activity.Validation != nil {
			otp = activity.Validation.OTP
			issuedAt = activity.Validation.IssuedAt
			validated = activity.Validation.Validated
		}

		batch.Queue(query,
			activity.ID,
			request.ID,
			index+1,
			activity.Type,
			activity.By,
			activity.UserID,
			otp,
			issuedAt,
			validated,
			activity.Remarks,
			activity.CreatedAt,
		)
	}

	if err := tx.SendBatch(context, batch).Close(); err != nil {
		return dberr.Wrap(err, resourceRequest, "postgres_reset_repo_insert_activity_failed")
	}
	return nil
}

// loadActivities attaches the ordered activity log to each request.
func (repository *PostgresRequestRepository) loadActivities(context context.Context, requests []*Request) error {
	if len(requests) == 0 {
		return nil
	}

	byID := make(map[string]*Request, len(requests))
	ids := make([]string, 0, len(requests))
	for _, request := range requests {
		request.Activities = []Activity{}
		byID[request.ID] = request
		ids = append(ids, request.ID)
	}

	table := schema.OwnerResetActivity
	query := fmt.Sprintf("%s WHERE %s = ANY($1) ORDER BY %s, %s", selectActivity, table.RequestID, table.RequestID, table.Seq)

	rows, err := repository.pool.Query(context, query, ids)
	if err != nil {
		return dberr.Wrap(err, resourceRequest, "postgres_reset_repo_list_activity_failed")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			activity  Activity
			requestID string
			seq       int
			otp       *string
			issuedAt  *time.Time
			validated *bool
		)
		if err := rows.Scan(
			&activity.ID,
			&requestID,
			&seq,
			&activity.Type,
			&activity.By,
			&activity.UserID,
			&otp,
			&issuedAt,
			&validated,
			&activity.Remarks,
			&activity.CreatedAt,
		); err != nil {
			return fmt.Errorf("postgres_reset_repo_scan_activity_failed: %w", err)
		}

		if otp != nil {
			activity.Validation = &ValidationData{OTP: *otp}
			if issuedAt != nil {
				activity.Validation.IssuedAt = *issuedAt
			}
			if validated != nil {
				activity.Validation.Validated = *validated
			}
		}

		if request, ok := byID[requestID]; ok {
			request.Activities = append(request.Activities, activity)
		}
	}

	return rows.Err()
}

// # Scanning

func currentOTPColumns(request *Request) (activityID, code, issuedAt, validated any) {
	if request.CurrentOTP == nil {
		return nil, "", nil, false
	}
	current := request.CurrentOTP
	return current.ActivityID, current.Code, current.IssuedAt, current.Validated
}

// scanRequest reads one row in [schema.OwnerResetRequestTable.Columns] order.
func scanRequest(row pgx.Row) (*Request, error) {
	var (
		request     Request
		otpActivity *string
		otpCode     string
		otpIssuedAt *time.Time
		otpValid    bool
	)

	err := row.Scan(
		&request.ID,
		&request.RequestID,
		&request.UserID,
		&request.Role,
		&request.Status,
		&otpActivity,
		&otpCode,
		&otpIssuedAt,
		&otpValid,
		&request.Version,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if otpActivity != nil {
		request.CurrentOTP = &CurrentOTP{ActivityID: *otpActivity, Code: otpCode, Validated: otpValid}
		if otpIssuedAt != nil {
			request.CurrentOTP.IssuedAt = *otpIssuedAt
		}
	}

	return &request, nil
}
