package auth

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/triketime/internal/logging"
	"github.com/Skotchmaster/triketime/internal/models"
	"github.com/Skotchmaster/triketime/internal/tokens"
)

const bearerPrefix = "Bearer "

type Session struct {
	Secret []byte
}

func NewSession(secret []byte) *Session {
	return &Session{Secret: secret}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

// RequireAuth accepts any valid access token when roles is empty, otherwise
// only tokens whose role is listed.
func (m *Session) RequireAuth(roles ...string) echo.MiddlewareFunc {
	var validator ValidatorFunc
	if len(roles) > 0 {
		validator = func(claims *tokens.AccessClaims) error {
			if !slices.Contains(roles, claims.Role) {
				return deny(http.StatusForbidden, "forbidden")
			}
			return nil
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.requireAuthWithValidator(next, validator)
	}
}

func (m *Session) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireAuth(models.RoleAdmin)(next)
}

func (m *Session) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context())

		hdr := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(hdr, bearerPrefix)
		if !ok || strings.TrimSpace(raw) == "" {
			return deny(http.StatusUnauthorized, "no_token")
		}

		claims, err := tokens.AccessClaimsFromToken(strings.TrimSpace(raw), m.Secret)
		if err != nil {
			reason := "bad_access_token"
			switch {
			case errors.Is(err, tokens.ErrWrongTokenType):
				reason = "wrong_token_type"
			case errors.Is(err, jwt.ErrTokenExpired):
				reason = "access_expired"
			}
			l.Warn("auth_rejected", "status", 401, "reason", reason)
			return deny(http.StatusUnauthorized, reason)
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil || userID == 0 {
			l.Warn("auth_rejected", "status", 401, "reason", "bad subject")
			return deny(http.StatusUnauthorized, "bad_access_token")
		}

		if validator != nil {
			if err := validator(claims); err != nil {
				l.Warn("auth_rejected", "status", 403, "role", claims.Role)
				return err
			}
		}

		setUserContext(c, Identity{UserID: uint(userID), Role: claims.Role})
		return next(c)
	}
}
