package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/scorewire/cricket-api/internal/models"
)

func (r *GormRepo) FindVerificationByUserID(ctx context.Context, userID string) (*models.VerificationToken, error) {
	var vt models.VerificationToken
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&vt).Error; err != nil {
		return nil, translate(err)
	}
	return &vt, nil
}

func (r *GormRepo) FindVerificationByToken(ctx context.Context, token string) (*models.VerificationToken, error) {
	var vt models.VerificationToken
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&vt).Error; err != nil {
		return nil, translate(err)
	}
	return &vt, nil
}

// UpsertVerification replaces the user's outstanding token, keyed on
// user_id. Concurrent sends converge to one stored row, last write wins.
func (r *GormRepo) UpsertVerification(ctx context.Context, vt *models.VerificationToken) error {
	return translate(r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at"}),
		}).
		Create(vt).Error)
}

func (r *GormRepo) DeleteVerificationByToken(ctx context.Context, token string) error {
	return translate(r.DB.WithContext(ctx).
		Where("token = ?", token).
		Delete(&models.VerificationToken{}).Error)
}
