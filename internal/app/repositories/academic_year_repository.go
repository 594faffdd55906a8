package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/logger"
)

// PostgresAcademicYearRepository handles academic year catalog operations
type PostgresAcademicYearRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAcademicYearRepository creates a new PostgresAcademicYearRepository
func NewAcademicYearRepository(db *pgxpool.Pool) *PostgresAcademicYearRepository {
	return &PostgresAcademicYearRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a catalog entry. Uniqueness is checked by the caller.
func (r *PostgresAcademicYearRepository) Create(ctx context.Context, year *models.AcademicYear) error {
	sql, args, err := r.sb.Insert("academic_years").
		Columns("id", "year", "created_at").
		Values(year.ID, year.Year, year.CreatedAt).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create academic year SQL")
		return fmt.Errorf("failed to build create academic year query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("year", year.Year).Msg("Error executing create academic year query")
		return apperrors.NewStoreUnavailableError("create academic year", err)
	}
	return nil
}

// GetByID retrieves a catalog entry by ID
func (r *PostgresAcademicYearRepository) GetByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	sql, args, err := r.sb.Select("id", "year", "created_at").
		From("academic_years").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get academic year SQL")
		return nil, fmt.Errorf("failed to build get academic year query: %w", err)
	}

	var year models.AcademicYear
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&year.ID, &year.Year, &year.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("academic year not found")
		}
		logger.Error().Err(err).Str("id", id).Msg("Error scanning academic year row")
		return nil, apperrors.NewStoreUnavailableError("get academic year", err)
	}
	return &year, nil
}

// ExistsByYear reports whether the label is already in the catalog
func (r *PostgresAcademicYearRepository) ExistsByYear(ctx context.Context, year string) (bool, error) {
	sql, args, err := r.sb.Select("1").
		Prefix("SELECT EXISTS (").
		From("academic_years").
		Where(squirrel.Eq{"year": year}).
		Suffix(")").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building academic year exists SQL")
		return false, fmt.Errorf("failed to build academic year exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Str("year", year).Msg("Error executing academic year exists query")
		return false, apperrors.NewStoreUnavailableError("check academic year", err)
	}
	return exists, nil
}

// List returns the catalog ordered by year descending
func (r *PostgresAcademicYearRepository) List(ctx context.Context) ([]models.AcademicYear, error) {
	sql, args, err := r.sb.Select("id", "year", "created_at").
		From("academic_years").
		OrderBy("year DESC", "created_at DESC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list academic years SQL")
		return nil, fmt.Errorf("failed to build list academic years query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list academic years query")
		return nil, apperrors.NewStoreUnavailableError("list academic years", err)
	}
	defer rows.Close()

	years := []models.AcademicYear{}
	for rows.Next() {
		var y models.AcademicYear
		if err := rows.Scan(&y.ID, &y.Year, &y.CreatedAt); err != nil {
			logger.Error().Err(err).Msg("Error scanning academic year row")
			return nil, apperrors.NewStoreUnavailableError("list academic years", err)
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError("list academic years", err)
	}
	return years, nil
}

// Delete removes a catalog entry
func (r *PostgresAcademicYearRepository) Delete(ctx context.Context, id string) error {
	sql, args, err := r.sb.Delete("academic_years").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building delete academic year SQL")
		return fmt.Errorf("failed to build delete academic year query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("id", id).Msg("Error executing delete academic year query")
		return apperrors.NewStoreUnavailableError("delete academic year", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("academic year not found")
	}
	return nil
}
