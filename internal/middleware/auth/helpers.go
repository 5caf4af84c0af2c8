package auth

import (
	"context"

	"github.com/labstack/echo/v4"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// Identity is the authenticated caller of one request.
type Identity struct {
	UserID uint
	Role   string
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

func setUserContext(c echo.Context, id Identity) {
	c.Set(ContextUserID, id.UserID)
	c.Set(ContextRole, id.Role)
	c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
}

func deny(code int, reason string) *echo.HTTPError {
	return echo.NewHTTPError(code, echo.Map{"ok": false, "error": reason})
}
