package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/honeynil/ecommerce-api/internal/infrastructure/redis"
	"github.com/honeynil/ecommerce-api/internal/models"
	pkgerrors "github.com/honeynil/ecommerce-api/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memoryUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
	err    error
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[int64]*models.User{}}
}

func (r *memoryUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return pkgerrors.ErrDuplicateEmail
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.DateJoined = time.Now()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, pkgerrors.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, pkgerrors.ErrUserNotFound
}

func (r *memoryUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == pkgerrors.ErrUserNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *memoryUserRepo) SetPassword(_ context.Context, userID int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return pkgerrors.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *memoryUserRepo) UpdateProfile(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[user.ID]
	if !ok {
		return pkgerrors.ErrUserNotFound
	}
	u.FirstName = user.FirstName
	u.LastName = user.LastName
	u.Email = user.Email
	return nil
}

type memoryBlacklistRepo struct {
	mu      sync.Mutex
	entries map[string]models.BlacklistEntry
	lookups int
	err     error
}

func newMemoryBlacklistRepo() *memoryBlacklistRepo {
	return &memoryBlacklistRepo{entries: map[string]models.BlacklistEntry{}}
}

func (r *memoryBlacklistRepo) Add(_ context.Context, entry *models.BlacklistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.entries[entry.TokenID]; !ok {
		r.entries[entry.TokenID] = *entry
	}
	return nil
}

func (r *memoryBlacklistRepo) Exists(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.entries[tokenID]
	return ok, nil
}

type mockRedis struct {
	mock.Mock
}

var _ redis.RedisClient = (*mockRedis)(nil)

func (m *mockRedis) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *mockRedis) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockRedis) Close() error {
	return m.Called().Error(0)
}

type recordingPublisher struct {
	events chan models.AccountEvent
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(chan models.AccountEvent, 16)}
}

func (p *recordingPublisher) Publish(_ context.Context, event models.AccountEvent) error {
	p.events <- event
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) next(t *testing.T) models.AccountEvent {
	t.Helper()
	select {
	case e := <-p.events:
		return e
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no account event published")
		return models.AccountEvent{}
	}
}

func newEntry(tokenID string) *models.BlacklistEntry {
	return &models.BlacklistEntry{
		TokenID:   tokenID,
		UserID:    1,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}
