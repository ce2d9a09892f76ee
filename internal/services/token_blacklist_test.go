package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/honeynil/ecommerce-api/internal/infrastructure/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTokenBlacklist_Blacklist(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("writes database then cache with remaining lifetime", func(t *testing.T) {
		repo := newMemoryBlacklistRepo()
		cache := &mockRedis{}
		bl := NewTokenBlacklist(repo, cache, 7*24*time.Hour)
		bl.now = func() time.Time { return now }

		cache.On("Set", mock.Anything, "blacklist:jti-1", "1", time.Hour).Return(nil).Once()

		err := bl.Blacklist(ctx, "jti-1", 5, now.Add(time.Hour))
		require.NoError(t, err)

		entry, ok := repo.entries["jti-1"]
		require.True(t, ok)
		assert.Equal(t, int64(5), entry.UserID)
		assert.Equal(t, now, entry.BlacklistedAt)
		cache.AssertExpectations(t)
	})

	t.Run("expired token is not cached", func(t *testing.T) {
		repo := newMemoryBlacklistRepo()
		cache := &mockRedis{}
		bl := NewTokenBlacklist(repo, cache, time.Hour)
		bl.now = func() time.Time { return now }

		require.NoError(t, bl.Blacklist(ctx, "jti-old", 5, now.Add(-time.Minute)))
		assert.Contains(t, repo.entries, "jti-old")
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache failure is not an error", func(t *testing.T) {
		repo := newMemoryBlacklistRepo()
		cache := &mockRedis{}
		bl := NewTokenBlacklist(repo, cache, time.Hour)

		cache.On("Set", mock.Anything, "blacklist:jti-2", "1", mock.Anything).Return(errors.New("connection refused"))

		assert.NoError(t, bl.Blacklist(ctx, "jti-2", 1, time.Now().Add(time.Hour)))
		assert.Contains(t, repo.entries, "jti-2")
	})

	t.Run("database failure is returned", func(t *testing.T) {
		repo := newMemoryBlacklistRepo()
		repo.err = errors.New("db down")
		cache := &mockRedis{}
		bl := NewTokenBlacklist(repo, cache, time.Hour)

		assert.Error(t, bl.Blacklist(ctx, "jti-3", 1, time.Now().Add(time.Hour)))
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("idempotent", func(t *testing.T) {
		repo := newMemoryBlacklistRepo()
		bl := NewTokenBlacklist(repo, nil, time.Hour)

		require.NoError(t, bl.Blacklist(ctx, "jti-4", 1, time.Now().Add(time.Hour)))
		require.NoError(t, bl.Blacklist(ctx, "jti-4", 1, time.Now().Add(time.Hour)))
		assert.Len(t, repo.entries, 1)
	})
}

func TestTokenBlacklist_IsBlacklisted(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit skips database", func(t *testing.T) {
		repo := newMemoryBlacklistRepo()
		cache := &mockRedis{}
		bl := NewTokenBlacklist(repo, cache, time.Hour)

		cache.On("Get", mock.Anything, "blacklist:jti-1").Return("1", nil)

		ok, err := bl.IsBlacklisted(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Zero(t, repo.lookups)
	})

	t.Run("cache miss falls through and re-caches positives", func(t *testing.T) {
		repo := newMemoryBlacklistRepo()
		require.NoError(t, repo.Add(ctx, newEntry("jti-2")))
		cache := &mockRedis{}
		bl := NewTokenBlacklist(repo, cache, time.Hour)

		cache.On("Get", mock.Anything, "blacklist:jti-2").Return("", redis.ErrKeyNotFound)
		cache.On("Set", mock.Anything, "blacklist:jti-2", "1", time.Hour).Return(nil).Once()

		ok, err := bl.IsBlacklisted(ctx, "jti-2")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, repo.lookups)
		cache.AssertExpectations(t)
	})

	t.Run("unknown token", func(t *testing.T) {
		repo := newMemoryBlacklistRepo()
		cache := &mockRedis{}
		bl := NewTokenBlacklist(repo, cache, time.Hour)

		cache.On("Get", mock.Anything, "blacklist:nope").Return("", redis.ErrKeyNotFound)

		ok, err := bl.IsBlacklisted(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, ok)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache error falls back to database", func(t *testing.T) {
		repo := newMemoryBlacklistRepo()
		require.NoError(t, repo.Add(ctx, newEntry("jti-3")))
		cache := &mockRedis{}
		bl := NewTokenBlacklist(repo, cache, time.Hour)

		cache.On("Get", mock.Anything, "blacklist:jti-3").Return("", errors.New("timeout"))
		cache.On("Set", mock.Anything, "blacklist:jti-3", "1", time.Hour).Return(errors.New("timeout"))

		ok, err := bl.IsBlacklisted(ctx, "jti-3")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("database error", func(t *testing.T) {
		repo := newMemoryBlacklistRepo()
		repo.err = errors.New("db down")
		bl := NewTokenBlacklist(repo, nil, time.Hour)

		_, err := bl.IsBlacklisted(ctx, "jti-4")
		assert.Error(t, err)
	})
}
