package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Skotchmaster/triketime/internal/events"
	"github.com/Skotchmaster/triketime/internal/logging"
	"github.com/Skotchmaster/triketime/internal/models"
	"github.com/Skotchmaster/triketime/internal/repo"
)

const (
	ActivityDrive = "drive"
	ActivityRest  = "rest"
	ActivityOther = "other"
)

var activityTags = []string{ActivityDrive, ActivityRest, ActivityOther}

func ValidActivity(tag string) bool {
	return slices.Contains(activityTags, tag)
}

// ShiftService runs the per-user shift and activity state machine. Every
// check-then-write happens inside one repo transaction.
type ShiftService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Now    func() time.Time
}

func shiftErr(err error) error {
	switch {
	case errors.Is(err, repo.ErrOpenShiftExists):
		return ErrShiftAlreadyOpen
	case errors.Is(err, repo.ErrNoOpenShift):
		return ErrNoOpenShift
	case errors.Is(err, repo.ErrNoActiveActivity):
		return ErrNoActiveActivity
	case errors.Is(err, repo.ErrActivityConflict):
		return ErrActivityChanged
	case errors.Is(err, repo.ErrShiftClosed):
		return ErrShiftClosed
	case errors.Is(err, repo.ErrInvalidRange):
		return fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	}
	return err
}

func (s *ShiftService) StartShift(ctx context.Context, userID uint) (*models.Shift, error) {
	shift, err := s.Repo.StartShift(ctx, userID, clock(s.Now))
	if err != nil {
		return nil, shiftErr(err)
	}
	publish(ctx, s.Events, events.Event{Type: events.ShiftStarted, UserID: userID, EntityID: shift.ID, At: shift.StartTime})
	return shift, nil
}

func (s *ShiftService) StopShift(ctx context.Context, userID uint) (*models.Shift, error) {
	shift, err := s.Repo.StopShift(ctx, userID, clock(s.Now))
	if err != nil {
		return nil, shiftErr(err)
	}
	publish(ctx, s.Events, events.Event{Type: events.ShiftEnded, UserID: userID, EntityID: shift.ID, At: *shift.EndTime})
	return shift, nil
}

// OpenShift returns nil when the user has no open shift.
func (s *ShiftService) OpenShift(ctx context.Context, userID uint) (*models.Shift, error) {
	shift, err := s.Repo.OpenShift(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return shift, err
}

// ActiveActivity returns nil when nothing is active.
func (s *ShiftService) ActiveActivity(ctx context.Context, userID uint) (*models.Activity, error) {
	activity, err := s.Repo.ActiveActivity(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return activity, err
}

// StartActivity closes the running activity, if any, at the instant the new
// one starts.
func (s *ShiftService) StartActivity(ctx context.Context, userID uint, tag string) (*models.Activity, error) {
	if !ValidActivity(tag) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidActivity, tag)
	}

	started, closed, err := s.Repo.StartActivity(ctx, userID, tag, clock(s.Now))
	if err != nil {
		return nil, shiftErr(err)
	}

	if closed != nil {
		publish(ctx, s.Events, events.Event{Type: events.ActivityStopped, UserID: userID, EntityID: closed.ID, Tag: closed.Tag, At: *closed.EndTime})
	}
	publish(ctx, s.Events, events.Event{Type: events.ActivityStarted, UserID: userID, EntityID: started.ID, Tag: tag, At: started.StartTime})
	return started, nil
}

func (s *ShiftService) StopActivity(ctx context.Context, userID uint) (*models.Activity, error) {
	activity, err := s.Repo.StopActivity(ctx, userID, clock(s.Now))
	if err != nil {
		return nil, shiftErr(err)
	}
	publish(ctx, s.Events, events.Event{Type: events.ActivityStopped, UserID: userID, EntityID: activity.ID, Tag: activity.Tag, At: *activity.EndTime})
	return activity, nil
}

// ListHistory returns the user's shifts newest first; limit <= 0 means all.
// Storage failures are logged and answered with an empty list.
func (s *ShiftService) ListHistory(ctx context.Context, userID uint, limit int) []models.Shift {
	shifts, err := s.Repo.ListShifts(ctx, userID, limit)
	if err != nil {
		logging.FromContext(ctx).Error("history_failed", "user_id", userID, "error", err)
		return []models.Shift{}
	}
	return shifts
}

// ClearHistory deletes every shift and activity of every user.
func (s *ShiftService) ClearHistory(ctx context.Context, actorID uint) (int64, error) {
	deleted, err := s.Repo.ClearHistory(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	logging.FromContext(ctx).Warn("history_cleared", "actor_id", actorID, "deleted", deleted)
	publish(ctx, s.Events, events.Event{Type: events.HistoryCleared, UserID: actorID, Count: deleted, At: clock(s.Now)})
	return deleted, nil
}

// CreateSession records a shift from client timestamps. An empty end leaves
// the shift open.
func (s *ShiftService) CreateSession(ctx context.Context, userID uint, startRaw, endRaw string) (*models.Shift, error) {
	start, err := ParseTimestamp(startRaw)
	if err != nil {
		return nil, err
	}
	shift := &models.Shift{UserID: userID, StartTime: start}

	if endRaw != "" {
		end, err := ParseTimestamp(endRaw)
		if err != nil {
			return nil, err
		}
		if !end.After(start) {
			return nil, fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
		}
		shift.EndTime = &end
	}

	if err := s.Repo.CreateSession(ctx, shift); err != nil {
		return nil, shiftErr(err)
	}
	publish(ctx, s.Events, events.Event{Type: events.SessionCreated, UserID: userID, EntityID: shift.ID, At: clock(s.Now)})
	return shift, nil
}

// UpdateSession edits the timestamps of one of the user's open shifts. Nil
// fields are left untouched.
func (s *ShiftService) UpdateSession(ctx context.Context, userID, id uint, startRaw, endRaw *string) (*models.Shift, error) {
	var start, end *time.Time
	if startRaw != nil {
		t, err := ParseTimestamp(*startRaw)
		if err != nil {
			return nil, err
		}
		start = &t
	}
	if endRaw != nil {
		t, err := ParseTimestamp(*endRaw)
		if err != nil {
			return nil, err
		}
		end = &t
	}

	shift, err := s.Repo.UpdateSession(ctx, userID, id, start, end)
	if err != nil {
		return nil, shiftErr(err)
	}
	publish(ctx, s.Events, events.Event{Type: events.SessionUpdated, UserID: userID, EntityID: shift.ID, At: clock(s.Now)})
	return shift, nil
}
