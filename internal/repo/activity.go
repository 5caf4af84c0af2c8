package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/triketime/internal/db"
	"github.com/Skotchmaster/triketime/internal/models"
)

func activeActivity(tx *gorm.DB, userID uint) (*models.Activity, error) {
	var activity models.Activity
	err := tx.Where("user_id = ? AND end_time IS NULL", userID).
		Order("id DESC").
		First(&activity).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &activity, nil
}

func (r *GormRepo) ActiveActivity(ctx context.Context, userID uint) (*models.Activity, error) {
	return activeActivity(r.DB.WithContext(ctx), userID)
}

// StartActivity closes the current activity (if any) at now and opens a new
// one starting at the very same instant. closed is nil when nothing was active.
func (r *GormRepo) StartActivity(ctx context.Context, userID uint, tag string, now time.Time) (started, closed *models.Activity, err error) {
	next := models.Activity{UserID: userID, Tag: tag, StartTime: now}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := activeActivity(tx, userID)
		switch {
		case err == nil:
			res := tx.Model(&models.Activity{}).
				Where("id = ? AND end_time IS NULL", cur.ID).
				Update("end_time", now)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrActivityConflict
			}
			cur.EndTime = &now
			closed = cur
		case !errors.Is(err, ErrNotFound):
			return err
		}

		shift, err := openShift(tx, userID)
		switch {
		case err == nil:
			next.ShiftID = &shift.ID
			if err := tx.Model(&models.Shift{}).
				Where("id = ?", shift.ID).
				Update("activity", tag).Error; err != nil {
				return err
			}
		case !errors.Is(err, ErrNotFound):
			return err
		}

		if err := tx.Create(&next).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return ErrActivityConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &next, closed, nil
}

func (r *GormRepo) StopActivity(ctx context.Context, userID uint, now time.Time) (*models.Activity, error) {
	var activity *models.Activity

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := activeActivity(tx, userID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrNoActiveActivity
			}
			return err
		}

		res := tx.Model(&models.Activity{}).
			Where("id = ? AND end_time IS NULL", cur.ID).
			Update("end_time", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoActiveActivity
		}

		cur.EndTime = &now
		activity = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}
