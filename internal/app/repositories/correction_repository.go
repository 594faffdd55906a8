package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/db"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/logger"
)

var correctionColumns = []string{
	"id", "student_id", "student_name", "requested_by_user_id", "requested_by_user_name",
	"field_to_correct", "old_value", "new_value", "notes", "status", "request_date",
	"resolved_by_user_id", "resolution_date",
}

// PostgresCorrectionRepository handles correction request database operations
type PostgresCorrectionRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewCorrectionRepository creates a new PostgresCorrectionRepository
func NewCorrectionRepository(database *db.PostgresDB) *PostgresCorrectionRepository {
	return &PostgresCorrectionRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanCorrection(row pgx.Row) (*models.CorrectionRequest, error) {
	var req models.CorrectionRequest
	err := row.Scan(
		&req.ID, &req.StudentID, &req.StudentName, &req.RequestedByUserID, &req.RequestedByUserName,
		&req.FieldToCorrect, &req.OldValue, &req.NewValue, &req.Notes, &req.Status, &req.RequestDate,
		&req.ResolvedByUserID, &req.ResolutionDate,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *PostgresCorrectionRepository) queryList(ctx context.Context, builder squirrel.SelectBuilder, op string) ([]models.CorrectionRequest, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Str("op", op).Msg("Error building correction SQL")
		return nil, fmt.Errorf("failed to build %s query: %w", op, err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("op", op).Msg("Error executing correction query")
		return nil, apperrors.NewStoreUnavailableError(op, err)
	}
	defer rows.Close()

	requests := []models.CorrectionRequest{}
	for rows.Next() {
		req, err := scanCorrection(rows)
		if err != nil {
			logger.Error().Err(err).Str("op", op).Msg("Error scanning correction row")
			return nil, apperrors.NewStoreUnavailableError(op, err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Str("op", op).Msg("Error iterating correction rows")
		return nil, apperrors.NewStoreUnavailableError(op, err)
	}
	return requests, nil
}

// Create inserts a new correction request
func (r *PostgresCorrectionRepository) Create(ctx context.Context, req *models.CorrectionRequest) error {
	sql, args, err := r.sb.Insert("correction_requests").
		Columns(correctionColumns...).
		Values(
			req.ID, req.StudentID, req.StudentName, req.RequestedByUserID, req.RequestedByUserName,
			req.FieldToCorrect, req.OldValue, req.NewValue, req.Notes, req.Status, req.RequestDate,
			req.ResolvedByUserID, req.ResolutionDate,
		).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create correction SQL")
		return fmt.Errorf("failed to build create correction query: %w", err)
	}

	if _, err := r.db.Pool.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("studentID", req.StudentID).Msg("Error executing create correction query")
		return apperrors.NewStoreUnavailableError("create correction request", err)
	}
	return nil
}

// GetByID retrieves a correction request by ID
func (r *PostgresCorrectionRepository) GetByID(ctx context.Context, id string) (*models.CorrectionRequest, error) {
	return r.get(ctx, r.db.Pool, id, false)
}

func (r *PostgresCorrectionRepository) get(ctx context.Context, q querier, id string, forUpdate bool) (*models.CorrectionRequest, error) {
	builder := r.sb.Select(correctionColumns...).
		From("correction_requests").
		Where(squirrel.Eq{"id": id}).
		Limit(1)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get correction SQL")
		return nil, fmt.Errorf("failed to build get correction query: %w", err)
	}

	req, err := scanCorrection(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("correction request not found")
		}
		logger.Error().Err(err).Str("requestID", id).Msg("Error scanning correction row")
		return nil, apperrors.NewStoreUnavailableError("get correction request", err)
	}
	return req, nil
}

// ListPending returns every pending request. Ordering is left to the caller.
func (r *PostgresCorrectionRepository) ListPending(ctx context.Context) ([]models.CorrectionRequest, error) {
	return r.queryList(ctx, r.sb.Select(correctionColumns...).
		From("correction_requests").
		Where(squirrel.Eq{"status": models.CorrectionPending}),
		"list pending corrections")
}

// ListByStudent returns the requests filed against a student, newest first
func (r *PostgresCorrectionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CorrectionRequest, error) {
	return r.queryList(ctx, r.sb.Select(correctionColumns...).
		From("correction_requests").
		Where(squirrel.Eq{"student_id": studentID}).
		OrderBy("request_date DESC", "id DESC"),
		"list student corrections")
}

// CountPending counts pending requests
func (r *PostgresCorrectionRepository) CountPending(ctx context.Context) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("correction_requests").
		Where(squirrel.Eq{"status": models.CorrectionPending}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count pending SQL")
		return 0, fmt.Errorf("failed to build count pending query: %w", err)
	}

	var count int
	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Msg("Error executing count pending query")
		return 0, apperrors.NewStoreUnavailableError("count pending corrections", err)
	}
	return count, nil
}

// Resolve locks the request row, checks it is still pending, applies the
// student update for approvals and records the resolution, all in one transaction.
func (r *PostgresCorrectionRepository) Resolve(ctx context.Context, id string, status models.CorrectionStatus, resolverID string, at time.Time) (*models.CorrectionRequest, error) {
	var resolved *models.CorrectionRequest

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		req, err := r.get(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if !req.IsPending() {
			return apperrors.ErrAlreadyResolved
		}

		if status == models.CorrectionApproved {
			fields := map[string]string{req.FieldToCorrect: req.NewValue}
			if _, err := updateStudentFields(ctx, tx, r.sb, req.StudentID, fields, at); err != nil {
				return err
			}
		}

		sql, args, err := r.sb.Update("correction_requests").
			Set("status", status).
			Set("resolved_by_user_id", resolverID).
			Set("resolution_date", at).
			Where(squirrel.Eq{"id": id, "status": models.CorrectionPending}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build resolve correction query: %w", err)
		}

		cmdTag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			logger.Error().Err(err).Str("requestID", id).Msg("Error executing resolve correction query")
			return apperrors.NewStoreUnavailableError("resolve correction request", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrAlreadyResolved
		}

		req.Status = status
		req.ResolvedByUserID = &resolverID
		req.ResolutionDate = &at
		resolved = req
		return nil
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound, apperrors.ErrAlreadyResolved, apperrors.ErrStoreUnavailable) {
			return nil, err
		}
		return nil, apperrors.NewStoreUnavailableError("resolve correction request", err)
	}
	return resolved, nil
}
