package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/honeynil/ecommerce-api/internal/models"
	pkgerrors "github.com/honeynil/ecommerce-api/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

type PostgresBlacklistRepository struct {
	db *sql.DB
}

func NewPostgresBlacklistRepository(db *sql.DB) *PostgresBlacklistRepository {
	return &PostgresBlacklistRepository{db: db}
}

func (r *PostgresBlacklistRepository) Add(ctx context.Context, entry *models.BlacklistEntry) (err error) {
	ctx, done := startOp(ctx, "blacklist-repository", "BlacklistToken")
	defer func() { done(err) }()

	if entry == nil {
		err = pkgerrors.ErrNilBlacklistEntry
		return err
	}
	if entry.TokenID == "" {
		err = fmt.Errorf("%w: jti is required", pkgerrors.ErrValidation)
		return err
	}

	query := `
	INSERT INTO token_blacklist (jti, user_id, expires_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (jti) DO NOTHING
	`
	if _, err = r.db.ExecContext(ctx, query, entry.TokenID, entry.UserID, entry.ExpiresAt); err != nil {
		slog.Error("failed to blacklist token", "method", "Add", "user_id", entry.UserID, "error", err)
		err = fmt.Errorf("failed to blacklist token: %w", err)
		return err
	}

	slog.Info("refresh token blacklisted", "method", "Add", "user_id", entry.UserID)
	return nil
}

func (r *PostgresBlacklistRepository) Exists(ctx context.Context, tokenID string) (exists bool, err error) {
	ctx, done := startOp(ctx, "blacklist-repository", "IsTokenBlacklisted", attribute.String("jti", tokenID))
	defer func() { done(err) }()

	query := `SELECT EXISTS(SELECT 1 FROM token_blacklist WHERE jti = $1)`
	if err = r.db.QueryRowContext(ctx, query, tokenID).Scan(&exists); err != nil {
		slog.Error("failed to check blacklist", "method", "Exists", "error", err)
		err = fmt.Errorf("failed to check blacklist: %w", err)
		return false, err
	}
	return exists, nil
}
