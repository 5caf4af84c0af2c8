package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/triketime/internal/models"
)

func (r *GormRepo) AddRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(token).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

// RevokeRefresh succeeds for unknown or already revoked identifiers.
func (r *GormRepo) RevokeRefresh(ctx context.Context, jti string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("jti = ? AND revoked = ?", jti, false).
		Update("revoked", true).Error
}

func (r *GormRepo) RevokeAllForUser(ctx context.Context, userID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}

// markUsed flips revoked only while the row is still usable, so two
// concurrent rotations of the same token cannot both win.
func markUsed(tx *gorm.DB, jti string, now time.Time) error {
	res := tx.Model(&models.RefreshToken{}).
		Where("jti = ? AND revoked = ? AND expires_at > ?", jti, false, now).
		Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRefreshUnusable
	}
	return nil
}

func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI string, now time.Time, newToken *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := markUsed(tx, oldJTI, now); err != nil {
			return err
		}
		return tx.Create(newToken).Error
	})
}
