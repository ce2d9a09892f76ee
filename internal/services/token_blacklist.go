package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/honeynil/ecommerce-api/internal/infrastructure/observability"
	"github.com/honeynil/ecommerce-api/internal/infrastructure/redis"
	"github.com/honeynil/ecommerce-api/internal/models"
	"github.com/honeynil/ecommerce-api/internal/repository"
)

const blacklistKeyPrefix = "blacklist:"

// TokenBlacklist records refresh token ids that must never be accepted again.
type TokenBlacklist interface {
	Blacklist(ctx context.Context, tokenID string, userID int64, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// tokenBlacklist keeps Postgres as the source of truth and Redis as a
// read-through cache of positive entries. A cache failure only costs a
// database round trip.
type tokenBlacklist struct {
	repo     repository.BlacklistRepository
	cache    redis.RedisClient
	cacheTTL time.Duration
	now      func() time.Time
}

// NewTokenBlacklist creates a blacklist. cache may be nil. cacheTTL bounds the
// lifetime of entries re-cached after a database hit and should be the
// refresh token lifetime.
func NewTokenBlacklist(repo repository.BlacklistRepository, cache redis.RedisClient, cacheTTL time.Duration) *tokenBlacklist {
	return &tokenBlacklist{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (b *tokenBlacklist) Blacklist(ctx context.Context, tokenID string, userID int64, expiresAt time.Time) error {
	entry := &models.BlacklistEntry{
		TokenID:       tokenID,
		UserID:        userID,
		ExpiresAt:     expiresAt,
		BlacklistedAt: b.now(),
	}
	if err := b.repo.Add(ctx, entry); err != nil {
		return err
	}

	if b.cache == nil {
		return nil
	}
	// A token past its expiry is rejected by the codec anyway.
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	if err := b.cache.Set(ctx, blacklistKeyPrefix+tokenID, "1", ttl); err != nil {
		slog.Warn("failed to cache blacklisted token", "user_id", userID, "error", err)
	}
	return nil
}

func (b *tokenBlacklist) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	if b.cache != nil {
		_, err := b.cache.Get(ctx, blacklistKeyPrefix+tokenID)
		switch {
		case err == nil:
			observability.BlacklistCacheLookups.WithLabelValues("hit").Inc()
			return true, nil
		case stderrors.Is(err, redis.ErrKeyNotFound):
			observability.BlacklistCacheLookups.WithLabelValues("miss").Inc()
		default:
			observability.BlacklistCacheLookups.WithLabelValues("error").Inc()
			slog.Warn("blacklist cache lookup failed, falling back to database", "error", err)
		}
	}

	exists, err := b.repo.Exists(ctx, tokenID)
	if err != nil {
		return false, err
	}

	if exists && b.cache != nil && b.cacheTTL > 0 {
		if err := b.cache.Set(ctx, blacklistKeyPrefix+tokenID, "1", b.cacheTTL); err != nil {
			slog.Warn("failed to re-cache blacklisted token", "error", err)
		}
	}
	return exists, nil
}
