package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/triketime/internal/logging"
	"github.com/Skotchmaster/triketime/internal/service"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	CookieSecure bool
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func logFor(c echo.Context, handler string) *slog.Logger {
	return logging.FromContext(c.Request().Context()).With("handler", handler)
}

func (h *AuthHTTP) Register(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		logFor(c, "auth_register").Warn("register_error", "status", 400, "error", err)
		return apiError(http.StatusBadRequest, "invalid_body")
	}

	user, err := h.Svc.Register(c.Request().Context(), req.Username, req.Password, "")
	if err != nil {
		return fail(c, "auth_register", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		logFor(c, "auth_login").Warn("login_error", "status", 400, "error", err)
		return apiError(http.StatusBadRequest, "invalid_body")
	}

	res, err := h.Svc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return fail(c, "auth_login", err)
	}

	c.SetCookie(CreateCookie(refreshCookieName, res.RefreshToken, refreshCookiePath, res.RefreshExp, h.CookieSecure))
	logFor(c, "auth_login").Info("login_successful", "user_id", res.UserID)

	return c.JSON(http.StatusOK, echo.Map{
		"ok":     true,
		"access": res.AccessToken,
		"role":   res.Role,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		logFor(c, "auth_refresh").Warn("refresh_failed", "status", 401, "reason", "no_refresh")
		return apiError(http.StatusUnauthorized, "no_refresh")
	}

	res, err := h.Svc.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		code, reason := serviceError(err)
		if code == http.StatusUnauthorized {
			c.SetCookie(DeleteCookie(refreshCookieName, refreshCookiePath, h.CookieSecure))
		}
		return apiError(code, reason)
	}

	c.SetCookie(CreateCookie(refreshCookieName, res.RefreshToken, refreshCookiePath, res.RefreshExp, h.CookieSecure))

	return c.JSON(http.StatusOK, echo.Map{
		"ok":     true,
		"access": res.AccessToken,
		"role":   res.Role,
	})
}

// LogOut always clears the cookie; revocation failures are logged only.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	l := logFor(c, "auth_logout")

	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		if err := h.Svc.LogOut(c.Request().Context(), cookie.Value); err != nil {
			l.Error("logout_failed", "reason", "cannot revoke refresh token", "error", err)
		}
	}

	c.SetCookie(DeleteCookie(refreshCookieName, refreshCookiePath, h.CookieSecure))
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
