package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/brewhaven/internal/logging"
)

const (
	AccessCookie = "accessToken"
	UserIDKey    = "user_id"
)

type Resolver interface {
	Resolve(token string) (string, error)
}

type SimpleAuth struct {
	Resolver Resolver
}

func NewSimpleAuth(r Resolver) *SimpleAuth {
	return &SimpleAuth{Resolver: r}
}

// RequireAuth accepts a bearer token or the access cookie and stores the
// resolved user id under UserIDKey.
func (m *SimpleAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("middleware", "require_auth")

		raw := tokenFromRequest(c)
		if raw == "" {
			l.Warn("auth_missing_token", "status", http.StatusUnauthorized)
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing access token"})
		}

		userID, err := m.Resolver.Resolve(raw)
		if err != nil || userID == "" {
			l.Warn("auth_invalid_token", "status", http.StatusUnauthorized, "error", err)
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
		}

		c.Set(UserIDKey, userID)
		return next(c)
	}
}

func tokenFromRequest(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(tok)
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

// UserID returns the id stored by RequireAuth, or "" outside it.
func UserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}
