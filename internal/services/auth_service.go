package service

import (
	"context"
	"fmt"
	"log/slog"

	stderrors "errors"

	"github.com/honeynil/ecommerce-api/internal/infrastructure/auth"
	"github.com/honeynil/ecommerce-api/internal/infrastructure/kafka"
	"github.com/honeynil/ecommerce-api/internal/infrastructure/observability"
	"github.com/honeynil/ecommerce-api/internal/infrastructure/password"
	"github.com/honeynil/ecommerce-api/internal/models"
	"github.com/honeynil/ecommerce-api/internal/repository"
	pkgerrors "github.com/honeynil/ecommerce-api/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "auth-service"

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	// Authenticate returns (nil, nil) when the email is unknown or the
	// password does not match.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, models.TokenPair, error)
	IssueTokenPair(user *models.User) (models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

type authService struct {
	userRepo  repository.UserRepository
	blacklist TokenBlacklist
	codec     *auth.TokenCodec
	hasher    *password.Hasher
	policy    *password.Policy
	events    kafka.EventPublisher

	blacklistAfterRotation bool
}

type AuthOption func(*authService)

// WithBlacklistAfterRotation makes Refresh revoke the presented refresh token
// once a new pair has been issued for it.
func WithBlacklistAfterRotation(enabled bool) AuthOption {
	return func(s *authService) {
		s.blacklistAfterRotation = enabled
	}
}

// NewAuthService wires the authentication flows. events may be nil, in which
// case no account events are published.
func NewAuthService(
	userRepo repository.UserRepository,
	blacklist TokenBlacklist,
	codec *auth.TokenCodec,
	hasher *password.Hasher,
	policy *password.Policy,
	events kafka.EventPublisher,
	opts ...AuthOption,
) *authService {
	s := &authService{
		userRepo:  userRepo,
		blacklist: blacklist,
		codec:     codec,
		hasher:    hasher,
		policy:    policy,
		events:    events,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (user *models.User, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Register")
	defer span.End()
	defer func() { observability.RecordAuth("register", err) }()

	verr := &pkgerrors.ValidationError{}
	if input.Email == "" {
		verr.Add("email", "this field is required")
	}
	if input.Password == "" {
		verr.Add("password", "this field is required")
	}
	if !verr.Empty() {
		span.SetStatus(codes.Error, "missing required fields")
		return nil, verr
	}

	exists, err := s.userRepo.EmailExists(ctx, input.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "email check failed")
		slog.Error("failed to check email existence", "error", err)
		return nil, fmt.Errorf("%w: failed to check email existence", pkgerrors.ErrInternal)
	}
	if exists {
		span.SetStatus(codes.Error, "email already exists")
		slog.Warn("registration with existing email rejected")
		return nil, pkgerrors.ErrDuplicateEmail
	}

	attrs := password.UserAttributes{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}
	if err := s.policy.Validate(input.Password, attrs); err != nil {
		span.SetStatus(codes.Error, "password rejected by policy")
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password hashing failed")
		slog.Error("failed to hash password", "error", err)
		return nil, fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}

	user = &models.User{
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user creation failed")
		// Lost a race against a concurrent registration.
		if stderrors.Is(err, pkgerrors.ErrDuplicateEmail) {
			return nil, pkgerrors.ErrDuplicateEmail
		}
		slog.Error("failed to create user in DB", "error", err)
		return nil, fmt.Errorf("%w: failed to create user", pkgerrors.ErrInternal)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	publishAsync(s.events, models.EventUserRegistered, user)

	slog.Info("user registered successfully", "user_id", user.ID)
	return user, nil
}

func (s *authService) Authenticate(ctx context.Context, email, plain string) (*models.User, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Authenticate")
	defer span.End()

	if email == "" || plain == "" {
		return nil, nil
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if stderrors.Is(err, pkgerrors.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		slog.Error("failed to look up user by email", "error", err)
		return nil, fmt.Errorf("%w: failed to look up user", pkgerrors.ErrInternal)
	}

	ok, err := s.hasher.Check(user.PasswordHash, plain)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password check failed")
		slog.Error("stored password hash is unusable", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("%w: failed to check password", pkgerrors.ErrInternal)
	}
	if !ok {
		return nil, nil
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, plain string) (user *models.User, pair models.TokenPair, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Login")
	defer span.End()
	defer func() { observability.RecordAuth("login", err) }()

	user, err = s.Authenticate(ctx, email, plain)
	if err != nil {
		return nil, models.TokenPair{}, err
	}
	if user == nil {
		span.SetStatus(codes.Error, "invalid credentials")
		slog.Warn("login rejected: invalid credentials")
		return nil, models.TokenPair{}, pkgerrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		span.SetStatus(codes.Error, "account disabled")
		slog.Warn("login rejected: account disabled", "user_id", user.ID)
		return nil, models.TokenPair{}, pkgerrors.ErrAccountDisabled
	}

	pair, err = s.IssueTokenPair(user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token issue failed")
		return nil, models.TokenPair{}, err
	}

	slog.Info("user logged in", "user_id", user.ID)
	return user, pair, nil
}

func (s *authService) IssueTokenPair(user *models.User) (models.TokenPair, error) {
	if user == nil {
		return models.TokenPair{}, pkgerrors.ErrNilUser
	}
	return s.issuePair(user.ID)
}

func (s *authService) issuePair(userID int64) (models.TokenPair, error) {
	refresh, err := s.codec.IssueRefreshToken(userID)
	if err != nil {
		slog.Error("failed to issue refresh token", "user_id", userID, "error", err)
		return models.TokenPair{}, fmt.Errorf("%w: failed to issue refresh token", pkgerrors.ErrInternal)
	}
	access, err := s.codec.IssueAccessToken(userID)
	if err != nil {
		slog.Error("failed to issue access token", "user_id", userID, "error", err)
		return models.TokenPair{}, fmt.Errorf("%w: failed to issue access token", pkgerrors.ErrInternal)
	}
	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh rotates a valid, non-blacklisted refresh token into a new pair. The
// presented token stays usable until it expires unless blacklist-after-rotation
// is enabled.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (pair models.TokenPair, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Refresh")
	defer span.End()
	defer func() { observability.RecordAuth("refresh", err) }()

	claims, err := s.codec.VerifyType(refreshToken, models.TokenTypeRefresh)
	if err != nil {
		span.SetStatus(codes.Error, "invalid refresh token")
		return models.TokenPair{}, err
	}
	span.SetAttributes(attribute.Int64("user.id", claims.UserID))

	blacklisted, err := s.blacklist.IsBlacklisted(ctx, claims.TokenID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "blacklist lookup failed")
		slog.Error("failed to check token blacklist", "user_id", claims.UserID, "error", err)
		return models.TokenPair{}, fmt.Errorf("%w: failed to check token blacklist", pkgerrors.ErrInternal)
	}
	if blacklisted {
		span.SetStatus(codes.Error, "refresh token blacklisted")
		slog.Warn("blacklisted refresh token presented", "user_id", claims.UserID)
		return models.TokenPair{}, fmt.Errorf("%w: token is blacklisted", pkgerrors.ErrInvalidToken)
	}

	if s.blacklistAfterRotation {
		if err := s.blacklist.Blacklist(ctx, claims.TokenID, claims.UserID, claims.ExpiresAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "blacklist after rotation failed")
			slog.Error("failed to blacklist rotated token", "user_id", claims.UserID, "error", err)
			return models.TokenPair{}, fmt.Errorf("%w: failed to blacklist rotated token", pkgerrors.ErrInternal)
		}
	}

	pair, err = s.issuePair(claims.UserID)
	if err != nil {
		span.RecordError(err)
		return models.TokenPair{}, err
	}

	slog.Info("refresh token rotated", "user_id", claims.UserID)
	return pair, nil
}

// Logout blacklists the refresh token. Outstanding access tokens stay valid
// until they expire.
func (s *authService) Logout(ctx context.Context, refreshToken string) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Logout")
	defer span.End()
	defer func() { observability.RecordAuth("logout", err) }()

	claims, err := s.codec.VerifyType(refreshToken, models.TokenTypeRefresh)
	if err != nil {
		span.SetStatus(codes.Error, "invalid refresh token")
		return err
	}

	if err := s.blacklist.Blacklist(ctx, claims.TokenID, claims.UserID, claims.ExpiresAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "blacklist failed")
		slog.Error("failed to blacklist refresh token", "user_id", claims.UserID, "error", err)
		return fmt.Errorf("%w: failed to blacklist refresh token", pkgerrors.ErrInternal)
	}

	publishAsync(s.events, models.EventUserLoggedOut, &models.User{ID: claims.UserID})

	slog.Info("user logged out", "user_id", claims.UserID)
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ChangePassword")
	defer span.End()
	defer func() { observability.RecordAuth("change_password", err) }()
	span.SetAttributes(attribute.Int64("user.id", userID))

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		if stderrors.Is(err, pkgerrors.ErrUserNotFound) {
			return err
		}
		slog.Error("failed to load user", "user_id", userID, "error", err)
		return fmt.Errorf("%w: failed to load user", pkgerrors.ErrInternal)
	}

	ok, err := s.hasher.Check(user.PasswordHash, oldPassword)
	if err != nil {
		span.RecordError(err)
		slog.Error("stored password hash is unusable", "user_id", userID, "error", err)
		return fmt.Errorf("%w: failed to check password", pkgerrors.ErrInternal)
	}
	if !ok {
		span.SetStatus(codes.Error, "old password is incorrect")
		slog.Warn("password change rejected: old password is incorrect", "user_id", userID)
		return pkgerrors.ErrIncorrectPassword
	}

	attrs := password.UserAttributes{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	if err := s.policy.Validate(newPassword, attrs); err != nil {
		span.SetStatus(codes.Error, "password rejected by policy")
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		span.RecordError(err)
		slog.Error("failed to hash password", "user_id", userID, "error", err)
		return fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}
	if err := s.userRepo.SetPassword(ctx, userID, hash); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password update failed")
		if stderrors.Is(err, pkgerrors.ErrUserNotFound) {
			return err
		}
		slog.Error("failed to store new password", "user_id", userID, "error", err)
		return fmt.Errorf("%w: failed to store password", pkgerrors.ErrInternal)
	}

	publishAsync(s.events, models.EventPasswordChanged, user)

	slog.Info("password changed", "user_id", userID)
	return nil
}
