package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	stderrors "errors"

	"github.com/honeynil/ecommerce-api/internal/models"
	"github.com/honeynil/ecommerce-api/internal/repository"
	pkgerrors "github.com/honeynil/ecommerce-api/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type UserService interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// UpdateProfile changes first name, last name and email. Any other
	// attribute is out of reach of this call.
	UpdateProfile(ctx context.Context, id int64, update models.ProfileUpdate) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *userService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, span := otel.Tracer("user-service").Start(ctx, "GetByID")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", id))

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		if stderrors.Is(err, pkgerrors.ErrUserNotFound) {
			return nil, err
		}
		slog.Error("failed to load user", "user_id", id, "error", err)
		return nil, fmt.Errorf("%w: failed to load user", pkgerrors.ErrInternal)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id int64, update models.ProfileUpdate) (*models.User, error) {
	ctx, span := otel.Tracer("user-service").Start(ctx, "UpdateProfile")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", id))

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if email == "" {
			span.SetStatus(codes.Error, "empty email")
			return nil, pkgerrors.NewValidationError("email", "this field may not be blank")
		}
		if email != user.Email {
			exists, err := s.userRepo.EmailExists(ctx, email)
			if err != nil {
				span.RecordError(err)
				slog.Error("failed to check email existence", "user_id", id, "error", err)
				return nil, fmt.Errorf("%w: failed to check email existence", pkgerrors.ErrInternal)
			}
			if exists {
				span.SetStatus(codes.Error, "email already exists")
				return nil, pkgerrors.ErrDuplicateEmail
			}
			user.Email = email
		}
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile update failed")
		if stderrors.Is(err, pkgerrors.ErrDuplicateEmail) || stderrors.Is(err, pkgerrors.ErrUserNotFound) {
			return nil, err
		}
		slog.Error("failed to update profile", "user_id", id, "error", err)
		return nil, fmt.Errorf("%w: failed to update profile", pkgerrors.ErrInternal)
	}

	slog.Info("profile updated", "user_id", id)
	return user, nil
}
