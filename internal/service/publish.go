package service

import (
	"context"

	"github.com/Skotchmaster/triketime/internal/events"
	"github.com/Skotchmaster/triketime/internal/logging"
)

// publish runs after commit; a failed delivery never fails the request.
func publish(ctx context.Context, p events.Publisher, e events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", e.Type, "user_id", e.UserID, "error", err)
	}
}
