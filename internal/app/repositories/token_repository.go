package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/logger"
)

// PostgresTokenRepository records revoked access tokens
type PostgresTokenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTokenRepository creates a new PostgresTokenRepository
func NewTokenRepository(db *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Revoke marks a token ID as revoked until expiresAt
func (r *PostgresTokenRepository) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	sql, args, err := r.sb.Insert("revoked_tokens").
		Columns("token_id", "expires_at", "revoked_at").
		Values(tokenID, expiresAt, time.Now().UTC()).
		Suffix("ON CONFLICT (token_id) DO NOTHING").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building revoke token SQL")
		return fmt.Errorf("failed to build revoke token query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("tokenID", tokenID).Msg("Error executing revoke token query")
		return apperrors.NewStoreUnavailableError("revoke token", err)
	}
	return nil
}

// IsRevoked reports whether a token ID has been revoked
func (r *PostgresTokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	sql, args, err := r.sb.Select("1").
		Prefix("SELECT EXISTS (").
		From("revoked_tokens").
		Where(squirrel.Eq{"token_id": tokenID}).
		Suffix(")").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building token revoked SQL")
		return false, fmt.Errorf("failed to build token revoked query: %w", err)
	}

	var revoked bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&revoked); err != nil {
		logger.Error().Err(err).Str("tokenID", tokenID).Msg("Error executing token revoked query")
		return false, apperrors.NewStoreUnavailableError("check revoked token", err)
	}
	return revoked, nil
}

// DeleteExpired removes revocations whose tokens have expired anyway
func (r *PostgresTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	sql, args, err := r.sb.Delete("revoked_tokens").
		Where(squirrel.Lt{"expires_at": now}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building cleanup tokens SQL")
		return 0, fmt.Errorf("failed to build cleanup tokens query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing cleanup tokens query")
		return 0, apperrors.NewStoreUnavailableError("cleanup revoked tokens", err)
	}

	deleted := cmdTag.RowsAffected()
	logger.Info().Int64("deletedCount", deleted).Msg("Cleaned up expired token revocations")
	return deleted, nil
}
