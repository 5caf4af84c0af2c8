package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/triketime/internal/service"
)

func apiError(code int, reason string) *echo.HTTPError {
	return echo.NewHTTPError(code, echo.Map{"ok": false, "error": reason})
}

var errorCodes = []struct {
	err    error
	code   int
	reason string
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "bad_credentials"},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, "invalid_refresh"},
	{service.ErrUserInactive, http.StatusUnauthorized, "user_inactive"},
	{service.ErrUserExists, http.StatusConflict, "user_exists"},
	{service.ErrShiftAlreadyOpen, http.StatusConflict, "shift_already_started"},
	{service.ErrNoOpenShift, http.StatusConflict, "no_open_shift"},
	{service.ErrNoActiveActivity, http.StatusConflict, "no_active_activity"},
	{service.ErrShiftClosed, http.StatusConflict, "shift_closed"},
	{service.ErrConflict, http.StatusConflict, "conflict"},
	{service.ErrInvalidActivity, http.StatusBadRequest, "invalid_activity"},
	{service.ErrInvalidTimestamp, http.StatusUnprocessableEntity, "invalid_timestamp"},
	{service.ErrValidation, http.StatusUnprocessableEntity, "validation"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
}

// serviceError maps a service error onto the client-facing status and code.
// The first match wins, so specific conflicts come before ErrConflict.
func serviceError(err error) (int, string) {
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			return m.code, m.reason
		}
	}
	return http.StatusInternalServerError, "internal"
}

func fail(c echo.Context, handler string, err error) error {
	code, reason := serviceError(err)
	l := logFor(c, handler)
	if code >= http.StatusInternalServerError {
		l.Error(handler+"_failed", "status", code, "error", err)
	} else {
		l.Warn(handler+"_failed", "status", code, "reason", reason)
	}
	return apiError(code, reason)
}
