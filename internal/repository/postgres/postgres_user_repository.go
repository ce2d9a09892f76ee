package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/honeynil/ecommerce-api/internal/models"
	pkgerrors "github.com/honeynil/ecommerce-api/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const userColumns = `id, email, password_hash, first_name, last_name, is_active, is_staff, date_joined`

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, done := startOp(ctx, "user-repository", "CreateUser")
	defer func() { done(err) }()

	if user == nil {
		err = pkgerrors.ErrNilUser
		slog.Error("failed to create user", "method", "Create", "error", err)
		return err
	}
	if user.Email == "" || user.PasswordHash == "" {
		err = fmt.Errorf("%w: email and password_hash are required", pkgerrors.ErrValidation)
		return err
	}

	query := `
	INSERT INTO users (email, password_hash, first_name, last_name, is_active, is_staff)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, date_joined
	`
	err = r.db.QueryRowContext(
		ctx,
		query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.IsActive,
		user.IsStaff,
	).Scan(&user.ID, &user.DateJoined)
	if isUniqueViolation(err) {
		slog.Warn("email already exists", "method", "Create", "email", user.Email)
		err = pkgerrors.ErrDuplicateEmail
		return err
	}
	if err != nil {
		slog.Error("failed to create user", "method", "Create", "email", user.Email, "error", err)
		err = fmt.Errorf("failed to create user: %w", err)
		return err
	}

	slog.Info("user created", "method", "Create", "user_id", user.ID)
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (user *models.User, err error) {
	ctx, done := startOp(ctx, "user-repository", "GetUserByID", attribute.Int64("user_id", id))
	defer func() { done(err) }()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err = scanUser(r.db.QueryRowContext(ctx, query, id))
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		err = pkgerrors.ErrUserNotFound
		return nil, err
	case err != nil:
		slog.Error("failed to get user by id", "method", "GetByID", "user_id", id, "error", err)
		err = fmt.Errorf("failed to get user by id: %w", err)
		return nil, err
	}
	return user, nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (user *models.User, err error) {
	ctx, done := startOp(ctx, "user-repository", "GetUserByEmail")
	defer func() { done(err) }()

	if email == "" {
		err = fmt.Errorf("%w: email cannot be empty", pkgerrors.ErrValidation)
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err = scanUser(r.db.QueryRowContext(ctx, query, email))
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		err = pkgerrors.ErrUserNotFound
		return nil, err
	case err != nil:
		slog.Error("failed to get user by email", "method", "GetByEmail", "error", err)
		err = fmt.Errorf("failed to get user by email: %w", err)
		return nil, err
	}
	return user, nil
}

func (r *PostgresUserRepository) EmailExists(ctx context.Context, email string) (exists bool, err error) {
	ctx, done := startOp(ctx, "user-repository", "EmailExists")
	defer func() { done(err) }()

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	if err = r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		slog.Error("failed to check email", "method", "EmailExists", "error", err)
		err = fmt.Errorf("failed to check email: %w", err)
		return false, err
	}
	return exists, nil
}

func (r *PostgresUserRepository) SetPassword(ctx context.Context, userID int64, passwordHash string) (err error) {
	ctx, done := startOp(ctx, "user-repository", "SetPassword", attribute.Int64("user_id", userID))
	defer func() { done(err) }()

	if passwordHash == "" {
		err = fmt.Errorf("%w: password_hash is required", pkgerrors.ErrValidation)
		return err
	}

	query := `UPDATE users SET password_hash = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		slog.Error("failed to set password", "method", "SetPassword", "user_id", userID, "error", err)
		err = fmt.Errorf("failed to set password: %w", err)
		return err
	}
	if err = requireOneRow(res); err != nil {
		return err
	}

	slog.Info("password updated", "method", "SetPassword", "user_id", userID)
	return nil
}

func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, user *models.User) (err error) {
	ctx, done := startOp(ctx, "user-repository", "UpdateProfile")
	defer func() { done(err) }()

	if user == nil {
		err = pkgerrors.ErrNilUser
		return err
	}

	query := `UPDATE users SET email = $1, first_name = $2, last_name = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, user.Email, user.FirstName, user.LastName, user.ID)
	if isUniqueViolation(err) {
		err = pkgerrors.ErrDuplicateEmail
		return err
	}
	if err != nil {
		slog.Error("failed to update profile", "method", "UpdateProfile", "user_id", user.ID, "error", err)
		err = fmt.Errorf("failed to update profile: %w", err)
		return err
	}
	if err = requireOneRow(res); err != nil {
		return err
	}

	slog.Info("profile updated", "method", "UpdateProfile", "user_id", user.ID)
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.IsActive,
		&u.IsStaff,
		&u.DateJoined,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return pkgerrors.ErrUserNotFound
	}
	return nil
}
