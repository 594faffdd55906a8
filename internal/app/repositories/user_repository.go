package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/dberrors"
	"github.com/yigit/schoolrecords/internal/pkg/logger"
)

var accountConflicts = dberrors.Conflicts{
	"accounts_email_key": "an account with this email already exists",
}

// PostgresUserRoleRepository handles user role database operations
type PostgresUserRoleRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRoleRepository creates a new PostgresUserRoleRepository
func NewUserRoleRepository(db *pgxpool.Pool) *PostgresUserRoleRepository {
	return &PostgresUserRoleRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanUserRole(row pgx.Row) (*models.UserRole, error) {
	var role models.UserRole
	var email *string
	if err := row.Scan(&role.UserID, &role.Role, &email, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return nil, err
	}
	if email != nil {
		role.Email = *email
	}
	return &role, nil
}

// GetByUserID retrieves the role of a user
func (r *PostgresUserRoleRepository) GetByUserID(ctx context.Context, userID string) (*models.UserRole, error) {
	sql, args, err := r.sb.Select("user_id", "role", "email", "created_at", "updated_at").
		From("user_roles").
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user role SQL")
		return nil, fmt.Errorf("failed to build get user role query: %w", err)
	}

	role, err := scanUserRole(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("user role not found")
		}
		logger.Error().Err(err).Str("userID", userID).Msg("Error scanning user role row")
		return nil, apperrors.NewStoreUnavailableError("get user role", err)
	}
	return role, nil
}

// CreateIfMissing inserts role unless the user already has one, then returns the stored row
func (r *PostgresUserRoleRepository) CreateIfMissing(ctx context.Context, role *models.UserRole) (*models.UserRole, error) {
	var email *string
	if role.Email != "" {
		email = &role.Email
	}

	sql, args, err := r.sb.Insert("user_roles").
		Columns("user_id", "role", "email", "created_at", "updated_at").
		Values(role.UserID, role.Role, email, role.CreatedAt, role.UpdatedAt).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user role SQL")
		return nil, fmt.Errorf("failed to build create user role query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("userID", role.UserID).Msg("Error executing create user role query")
		return nil, apperrors.NewStoreUnavailableError("create user role", err)
	}
	return r.GetByUserID(ctx, role.UserID)
}

// UpdateRole changes the role of an existing user
func (r *PostgresUserRoleRepository) UpdateRole(ctx context.Context, userID string, role models.RoleType, at time.Time) error {
	sql, args, err := r.sb.Update("user_roles").
		Set("role", role).
		Set("updated_at", at).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update user role SQL")
		return fmt.Errorf("failed to build update user role query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("userID", userID).Msg("Error executing update user role query")
		return dberrors.Translate("update user role", err, nil)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("user role not found")
	}
	return nil
}

// List returns every user role ordered by email
func (r *PostgresUserRoleRepository) List(ctx context.Context) ([]models.UserRole, error) {
	sql, args, err := r.sb.Select("user_id", "role", "email", "created_at", "updated_at").
		From("user_roles").
		OrderBy("email ASC NULLS LAST", "user_id ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list user roles SQL")
		return nil, fmt.Errorf("failed to build list user roles query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list user roles query")
		return nil, apperrors.NewStoreUnavailableError("list user roles", err)
	}
	defer rows.Close()

	roles := []models.UserRole{}
	for rows.Next() {
		role, err := scanUserRole(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning user role row")
			return nil, apperrors.NewStoreUnavailableError("list user roles", err)
		}
		roles = append(roles, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError("list user roles", err)
	}
	return roles, nil
}

// PostgresAccountRepository handles account database operations
type PostgresAccountRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAccountRepository creates a new PostgresAccountRepository
func NewAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new account. Emails are unique case-insensitively.
func (r *PostgresAccountRepository) Create(ctx context.Context, account *models.Account) error {
	sql, args, err := r.sb.Insert("accounts").
		Columns("id", "email", "password_hash", "created_at").
		Values(account.ID, strings.ToLower(account.Email), account.PasswordHash, account.CreatedAt).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create account SQL")
		return fmt.Errorf("failed to build create account query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if !dberrors.IsUniqueViolation(err, "accounts_email_key") {
			logger.Error().Err(err).Str("email", account.Email).Msg("Error executing create account query")
		}
		return dberrors.Translate("create account", err, accountConflicts)
	}
	return nil
}

// GetByEmail retrieves an account by email
func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getBy(ctx, squirrel.Eq{"email": strings.ToLower(email)})
}

// GetByID retrieves an account by ID
func (r *PostgresAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

func (r *PostgresAccountRepository) getBy(ctx context.Context, pred squirrel.Eq) (*models.Account, error) {
	sql, args, err := r.sb.Select("id", "email", "password_hash", "created_at").
		From("accounts").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get account SQL")
		return nil, fmt.Errorf("failed to build get account query: %w", err)
	}

	var account models.Account
	err = r.db.QueryRow(ctx, sql, args...).Scan(&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("account not found")
		}
		logger.Error().Err(err).Msg("Error scanning account row")
		return nil, apperrors.NewStoreUnavailableError("get account", err)
	}
	return &account, nil
}
