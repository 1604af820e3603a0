package repo

import (
	"context"

	"github.com/scorewire/cricket-api/internal/models"
)

// CreateUser inserts a new user row. The unique indexes on user_id and
// email turn a concurrent duplicate registration into ErrDuplicate here,
// regardless of what the pre-checks saw.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByUserID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("refresh_token = ?", token).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// SetRefreshToken replaces the stored refresh token; nil clears it.
// There is never more than one outstanding value per user.
func (r *GormRepo) SetRefreshToken(ctx context.Context, userID string, token *string) error {
	return translate(r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("refresh_token", token).Error)
}

func (r *GormRepo) MarkVerified(ctx context.Context, userID string) error {
	return translate(r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("verified", true).Error)
}
