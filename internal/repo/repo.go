package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrUserAlreadyExist = errors.New("user already exist")
	ErrRefreshUnusable  = errors.New("refresh token expired or revoked")
	ErrOpenShiftExists  = errors.New("open shift already exists")
	ErrNoOpenShift      = errors.New("no open shift")
	ErrNoActiveActivity = errors.New("no active activity")
	ErrActivityConflict = errors.New("another activity became active")
	ErrShiftClosed      = errors.New("shift already closed")
	ErrInvalidRange     = errors.New("end_time before start_time")
)

// GormRepo is safe for concurrent use; every call takes its own connection
// or transaction from the pool and gives it back before returning.
type GormRepo struct {
	DB *gorm.DB
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
