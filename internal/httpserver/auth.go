package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/brewhaven/internal/logging"
	"github.com/Skotchmaster/brewhaven/internal/service"
	"github.com/Skotchmaster/brewhaven/internal/transport"
	middleware "github.com/Skotchmaster/brewhaven/pkg/middleware/auth"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "login_error", "invalid body", err)
	}

	tok, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return respondError(c, l, "login_error", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    tok.AccessToken,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	l.Info("login_success", "username", req.Username)
	return c.JSON(http.StatusOK, tok)
}
