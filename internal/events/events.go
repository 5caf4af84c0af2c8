package events

import (
	"context"
	"errors"
	"time"
)

const (
	UserRegistered  = "user_registered"
	UserLoggedIn    = "user_logged_in"
	ShiftStarted    = "shift_started"
	ShiftEnded      = "shift_ended"
	ActivityStarted = "activity_started"
	ActivityStopped = "activity_stopped"
	HistoryCleared  = "history_cleared"
	SessionCreated  = "session_created"
	SessionUpdated  = "session_updated"
)

type Event struct {
	Type     string    `json:"type"`
	UserID   uint      `json:"user_id"`
	Username string    `json:"username,omitempty"`
	EntityID uint      `json:"entity_id,omitempty"`
	Tag      string    `json:"tag,omitempty"`
	Count    int64     `json:"count,omitempty"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi delivers to every publisher and joins the failures.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
