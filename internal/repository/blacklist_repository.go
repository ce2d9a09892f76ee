package repository

import (
	"context"

	"github.com/honeynil/ecommerce-api/internal/models"
)

// BlacklistRepository is the durable store of revoked refresh token ids.
type BlacklistRepository interface {
	// Add is idempotent: re-adding a jti succeeds without changes.
	Add(ctx context.Context, entry *models.BlacklistEntry) error
	Exists(ctx context.Context, tokenID string) (bool, error)
}
