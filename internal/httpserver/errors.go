package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/brewhaven/internal/service"
	"github.com/Skotchmaster/brewhaven/internal/transport"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrItemNotFound), errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrEmptyBasket):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err under event and writes its status. Store details
// never reach the client.
func respondError(c echo.Context, l *slog.Logger, event string, err error) error {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		msg = "service temporarily unavailable"
	case http.StatusInternalServerError:
		msg = "internal server error"
	}

	if status >= 500 {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "error", err)
	}
	return c.JSON(status, transport.ErrorResponse{Error: msg})
}

func badRequest(c echo.Context, l *slog.Logger, event, msg string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "error", err)
	return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: msg})
}
