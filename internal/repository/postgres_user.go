package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/ideaboard/backend/internal/models"
)

type postgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user: %w", ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findBy(ctx, "id = ?", id)
}

func (r *postgresUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findBy(ctx, "email = ?", email)
}

func (r *postgresUserRepository) findBy(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (r *postgresUserRepository) SetRefreshToken(ctx context.Context, id string, digest *string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("refresh_token", digest)
	if res.Error != nil {
		return fmt.Errorf("set refresh token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set refresh token: %w", ErrNotFound)
	}
	return nil
}
