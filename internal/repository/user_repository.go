package repository

import (
	"context"

	"github.com/honeynil/ecommerce-api/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetPassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateProfile(ctx context.Context, user *models.User) error
}
