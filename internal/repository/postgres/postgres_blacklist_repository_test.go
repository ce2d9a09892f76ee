package repository_test

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/honeynil/ecommerce-api/internal/models"
	repository "github.com/honeynil/ecommerce-api/internal/repository/postgres"
	pkgerrors "github.com/honeynil/ecommerce-api/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestPostgresBlacklistRepository_Add(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresBlacklistRepository(db)
	ctx := context.Background()
	query := regexp.QuoteMeta(`INSERT INTO token_blacklist (jti, user_id, expires_at)`)
	entry := &models.BlacklistEntry{TokenID: "jti-1", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(entry.TokenID, entry.UserID, entry.ExpiresAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Add(ctx, entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyBlacklisted", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (jti) DO NOTHING`)).WithArgs(entry.TokenID, entry.UserID, entry.ExpiresAt).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Add(ctx, entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NilEntry", func(t *testing.T) {
		assert.ErrorIs(t, repo.Add(ctx, nil), pkgerrors.ErrNilBlacklistEntry)
	})

	t.Run("EmptyTokenID", func(t *testing.T) {
		assert.ErrorIs(t, repo.Add(ctx, &models.BlacklistEntry{}), pkgerrors.ErrValidation)
	})

	t.Run("DatabaseError", func(t *testing.T) {
		mock.ExpectExec(query).WillReturnError(fmt.Errorf("database error"))

		err := repo.Add(ctx, entry)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to blacklist token")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresBlacklistRepository_Exists(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresBlacklistRepository(db)
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM token_blacklist WHERE jti = $1)`)

	mock.ExpectQuery(query).WithArgs("jti-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	exists, err := repo.Exists(ctx, "jti-1")
	assert.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(query).WithArgs("jti-2").
		WillReturnError(fmt.Errorf("database error"))
	exists, err = repo.Exists(ctx, "jti-2")
	assert.Error(t, err)
	assert.False(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS users`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repository.Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Blacklist rows must outlive their user, so token_blacklist carries no
// foreign key to users.
func TestMigrate_BlacklistHasNoUserForeignKey(t *testing.T) {
	var applied string
	matcher := sqlmock.QueryMatcherFunc(func(_, actual string) error {
		applied = actual
		return nil
	})
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(matcher))
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("schema").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repository.Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())

	idx := strings.Index(applied, "CREATE TABLE IF NOT EXISTS token_blacklist")
	if assert.GreaterOrEqual(t, idx, 0) {
		assert.NotContains(t, applied[idx:], "REFERENCES")
	}
}
