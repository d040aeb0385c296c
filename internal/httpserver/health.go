package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/brewhaven/internal/logging"
	"github.com/Skotchmaster/brewhaven/internal/service"
)

type HealthHTTP struct {
	Svc *service.HealthService
}

// Health always answers 200; the body says whether the store is reachable.
func (h *HealthHTTP) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.Check(c.Request().Context()))
}

func (h *HealthHTTP) Live(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (h *HealthHTTP) Ready(c echo.Context) error {
	ctx := c.Request().Context()
	rep := h.Svc.Check(ctx)
	if !rep.StoreReachable {
		logging.FromContext(ctx).Warn("not_ready", "status", http.StatusServiceUnavailable, "reason", rep.Detail)
		return c.JSON(http.StatusServiceUnavailable, rep)
	}
	return c.JSON(http.StatusOK, rep)
}
