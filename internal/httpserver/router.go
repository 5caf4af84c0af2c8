package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/triketime/internal/middleware/auth"
	"github.com/Skotchmaster/triketime/internal/middleware/csrf"
	"github.com/Skotchmaster/triketime/internal/models"
)

type Deps struct {
	AuthHandler  *AuthHTTP
	ShiftHandler *ShiftHTTP
	Session      *auth.Session
	// Origins may call the cookie-authenticated endpoints cross-site.
	Origins []string
	// Ready reports whether the store answers; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Ready(ctx); err != nil {
			logFor(c, "health_ready").Error("not_ready", "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api")

	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	cookieAuth := csrf.OriginGuard(d.Origins)
	api.POST("/refresh", d.AuthHandler.Refresh, cookieAuth)
	api.POST("/logout", d.AuthHandler.LogOut, cookieAuth)

	drivers := api.Group("", d.Session.RequireAuth(models.RoleDriver, models.RoleAdmin))

	drivers.POST("/start_shift", d.ShiftHandler.StartShift)
	drivers.POST("/end_shift", d.ShiftHandler.StopShift)
	drivers.POST("/stop_shift", d.ShiftHandler.StopShift)
	drivers.GET("/shift/current", d.ShiftHandler.CurrentShift)

	drivers.POST("/activity/start", d.ShiftHandler.StartActivity)
	drivers.POST("/activity/stop", d.ShiftHandler.StopActivity)
	drivers.GET("/activity/current", d.ShiftHandler.CurrentActivity)

	drivers.GET("/history", d.ShiftHandler.History)
	drivers.POST("/sessions", d.ShiftHandler.CreateSession)
	drivers.PATCH("/sessions/:id", d.ShiftHandler.UpdateSession)

	api.POST("/clear_history", d.ShiftHandler.ClearHistory, d.Session.RequireAdmin)
}
