package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserInactive        = errors.New("user is inactive")
	ErrInvalidActivity     = errors.New("invalid activity")
	ErrInvalidTimestamp    = errors.New("invalid timestamp")
	ErrNotFound            = errors.New("not found")

	ErrConflict         = errors.New("conflict")
	ErrUserExists       = fmt.Errorf("user already exists: %w", ErrConflict)
	ErrShiftAlreadyOpen = fmt.Errorf("shift already started: %w", ErrConflict)
	ErrNoOpenShift      = fmt.Errorf("no open shift: %w", ErrConflict)
	ErrNoActiveActivity = fmt.Errorf("no active activity: %w", ErrConflict)
	ErrShiftClosed      = fmt.Errorf("shift already closed: %w", ErrConflict)
	ErrActivityChanged  = fmt.Errorf("activity changed concurrently: %w", ErrConflict)
)
