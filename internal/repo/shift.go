package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/triketime/internal/db"
	"github.com/Skotchmaster/triketime/internal/models"
)

func openShift(tx *gorm.DB, userID uint) (*models.Shift, error) {
	var shift models.Shift
	err := tx.Where("user_id = ? AND end_time IS NULL", userID).
		Order("id DESC").
		First(&shift).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &shift, nil
}

func countOpen(tx *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := tx.Model(&models.Shift{}).
		Where("user_id = ? AND end_time IS NULL", userID).
		Count(&count).Error
	return count, err
}

// lastEnd is the latest end_time among the user's closed shifts, zero if none.
func lastEnd(tx *gorm.DB, userID uint) (time.Time, error) {
	var last models.Shift
	err := tx.Where("user_id = ? AND end_time IS NOT NULL", userID).
		Order("end_time DESC").
		Limit(1).
		Find(&last).Error
	if err != nil || last.EndTime == nil {
		return time.Time{}, err
	}
	return *last.EndTime, nil
}

func (r *GormRepo) OpenShift(ctx context.Context, userID uint) (*models.Shift, error) {
	return openShift(r.DB.WithContext(ctx), userID)
}

// StartShift opens a shift at now, or at the end of the previous shift when
// that one was pushed past now by the one-second minimum in StopShift.
func (r *GormRepo) StartShift(ctx context.Context, userID uint, now time.Time) (*models.Shift, error) {
	shift := models.Shift{UserID: userID, StartTime: now}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open, err := countOpen(tx, userID)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrOpenShiftExists
		}
		prev, err := lastEnd(tx, userID)
		if err != nil {
			return err
		}
		if prev.After(shift.StartTime) {
			shift.StartTime = prev
		}
		if err := tx.Create(&shift).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return ErrOpenShiftExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

// StopShift closes the most recent open shift at end and, in the same
// transaction, the active activity at the same instant. Shifts last at least
// one second so that end_time stays strictly after start_time.
func (r *GormRepo) StopShift(ctx context.Context, userID uint, end time.Time) (*models.Shift, error) {
	var shift *models.Shift

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := openShift(tx, userID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrNoOpenShift
			}
			return err
		}
		if !end.After(s.StartTime) {
			end = s.StartTime.Add(time.Second)
		}

		res := tx.Model(&models.Shift{}).
			Where("id = ? AND end_time IS NULL", s.ID).
			Update("end_time", end)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoOpenShift
		}

		if err := tx.Model(&models.Activity{}).
			Where("user_id = ? AND end_time IS NULL", userID).
			Update("end_time", end).Error; err != nil {
			return err
		}

		s.EndTime = &end
		shift = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}

func (r *GormRepo) ListShifts(ctx context.Context, userID uint, limit int) ([]models.Shift, error) {
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	shifts := make([]models.Shift, 0)
	if err := q.Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}

// ClearHistory removes every shift and activity of every user.
func (r *GormRepo) ClearHistory(ctx context.Context) (int64, error) {
	var deleted int64

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Activity{}).Error; err != nil {
			return err
		}
		res := tx.Where("1 = 1").Delete(&models.Shift{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

func (r *GormRepo) CreateSession(ctx context.Context, shift *models.Shift) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if shift.EndTime == nil {
			open, err := countOpen(tx, shift.UserID)
			if err != nil {
				return err
			}
			if open > 0 {
				return ErrOpenShiftExists
			}
		}
		if err := tx.Create(shift).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return ErrOpenShiftExists
			}
			return err
		}
		return nil
	})
}

// UpdateSession edits an open shift owned by userID; closed shifts are final.
func (r *GormRepo) UpdateSession(ctx context.Context, userID, id uint, start, end *time.Time) (*models.Shift, error) {
	var shift models.Shift

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&shift).Error; err != nil {
			return notFound(err)
		}
		if !shift.IsOpen() {
			return ErrShiftClosed
		}

		if start != nil {
			shift.StartTime = *start
		}
		if end != nil {
			if !end.After(shift.StartTime) {
				return ErrInvalidRange
			}
			shift.EndTime = end

			act, err := activeActivity(tx, userID)
			switch {
			case err == nil:
				if end.Before(act.StartTime) {
					return ErrInvalidRange
				}
			case !errors.Is(err, ErrNotFound):
				return err
			}
		}

		res := tx.Model(&models.Shift{}).
			Where("id = ? AND end_time IS NULL", shift.ID).
			Updates(map[string]any{"start_time": shift.StartTime, "end_time": shift.EndTime})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrShiftClosed
		}

		if shift.EndTime != nil {
			return tx.Model(&models.Activity{}).
				Where("user_id = ? AND end_time IS NULL", userID).
				Update("end_time", *shift.EndTime).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &shift, nil
}
