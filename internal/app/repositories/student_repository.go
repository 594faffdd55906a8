package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/helpers"
	"github.com/yigit/schoolrecords/internal/pkg/logger"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var studentColumns = []string{"id", "academic_year", "data", "created_at", "updated_at"}

// PostgresStudentRepository handles student database operations
type PostgresStudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new PostgresStudentRepository
func NewStudentRepository(db *pgxpool.Pool) *PostgresStudentRepository {
	return &PostgresStudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var (
		s    models.Student
		data []byte
	)
	if err := row.Scan(&s.ID, &s.AcademicYear, &data, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &s.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode student profile: %w", err)
	}
	return &s, nil
}

func collectStudents(rows pgx.Rows) ([]models.Student, error) {
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return students, nil
}

// Create inserts a new student record
func (r *PostgresStudentRepository) Create(ctx context.Context, student *models.Student) error {
	data, err := json.Marshal(student.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode student profile: %w", err)
	}

	sql, args, err := r.sb.Insert("students").
		Columns(studentColumns...).
		Values(student.ID, student.AcademicYear, data, student.CreatedAt, student.UpdatedAt).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create student SQL")
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("studentID", student.ID).Msg("Error executing create student query")
		return apperrors.NewStoreUnavailableError("create student", err)
	}
	return nil
}

// GetByID retrieves a student by ID
func (r *PostgresStudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	return getStudent(ctx, r.db, r.sb, id, false)
}

func getStudent(ctx context.Context, q querier, sb squirrel.StatementBuilderType, id string, forUpdate bool) (*models.Student, error) {
	builder := sb.Select(studentColumns...).
		From("students").
		Where(squirrel.Eq{"id": id}).
		Limit(1)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get student SQL")
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	student, err := scanStudent(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("student not found")
		}
		logger.Error().Err(err).Str("studentID", id).Msg("Error scanning student row")
		return nil, apperrors.NewStoreUnavailableError("get student", err)
	}
	return student, nil
}

// UpdateFields merges fields into the stored profile
func (r *PostgresStudentRepository) UpdateFields(ctx context.Context, id string, fields map[string]string, at time.Time) (*models.Student, error) {
	return updateStudentFields(ctx, r.db, r.sb, id, fields, at)
}

func updateStudentFields(ctx context.Context, q querier, sb squirrel.StatementBuilderType, id string, fields map[string]string, at time.Time) (*models.Student, error) {
	patch, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode student patch: %w", err)
	}

	sql, args, err := sb.Update("students").
		Set("data", squirrel.Expr("data || ?::jsonb", string(patch))).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, academic_year, data, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update student SQL")
		return nil, fmt.Errorf("failed to build update student query: %w", err)
	}

	student, err := scanStudent(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("student not found")
		}
		logger.Error().Err(err).Str("studentID", id).Msg("Error executing update student query")
		return nil, apperrors.NewStoreUnavailableError("update student", err)
	}
	return student, nil
}

// Delete removes a student permanently
func (r *PostgresStudentRepository) Delete(ctx context.Context, id string) error {
	sql, args, err := r.sb.Delete("students").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building delete student SQL")
		return fmt.Errorf("failed to build delete student query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("studentID", id).Msg("Error executing delete student query")
		return apperrors.NewStoreUnavailableError("delete student", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("student not found")
	}
	return nil
}

// List returns one page of students for an academic year
func (r *PostgresStudentRepository) List(ctx context.Context, q StudentQuery) ([]models.Student, error) {
	builder := r.sb.Select(studentColumns...).
		From("students").
		Where(squirrel.Eq{"academic_year": q.AcademicYear}).
		OrderBy("created_at DESC", "id DESC")

	if q.Search != "" {
		pattern := helpers.LikePattern(q.Search)
		builder = builder.Where(squirrel.Or{
			squirrel.ILike{"data->>'fullName'": pattern},
			squirrel.ILike{"data->>'nisn'": pattern},
			squirrel.ILike{"data->>'kelas'": pattern},
		})
	}
	if q.After != nil {
		builder = builder.Where(squirrel.Expr("(created_at, id) < (?, ?)", q.After.CreatedAt, q.After.ID))
	}
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list students SQL")
		return nil, fmt.Errorf("failed to build list students query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("academicYear", q.AcademicYear).Msg("Error executing list students query")
		return nil, apperrors.NewStoreUnavailableError("list students", err)
	}
	students, err := collectStudents(rows)
	if err != nil {
		logger.Error().Err(err).Msg("Error scanning student rows")
		return nil, apperrors.NewStoreUnavailableError("list students", err)
	}
	return students, nil
}

// ListAll returns every student of an academic year, newest first
func (r *PostgresStudentRepository) ListAll(ctx context.Context, academicYear string) ([]models.Student, error) {
	return r.List(ctx, StudentQuery{AcademicYear: academicYear})
}

// CountByYear counts the students of an academic year
func (r *PostgresStudentRepository) CountByYear(ctx context.Context, academicYear string) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("students").
		Where(squirrel.Eq{"academic_year": academicYear}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count students SQL")
		return 0, fmt.Errorf("failed to build count students query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Str("academicYear", academicYear).Msg("Error executing count students query")
		return 0, apperrors.NewStoreUnavailableError("count students", err)
	}
	return count, nil
}
