package loggingmw

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/brewhaven/internal/logging"
)

// RequestLogger puts a request-scoped logger into the request context and
// logs one line per request once the handler returns. Health-check endpoints under
// /health are logged at debug level.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With(
				"method", req.Method,
				"route", c.Path(),
				"remote_ip", c.RealIP(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			res := c.Response()
			attrs := []slog.Attr{
				slog.Int("status", res.Status),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.Int64("bytes_out", res.Size),
				slog.String("url", req.URL.Path),
			}
			if uid, ok := c.Get("user_id").(string); ok && uid != "" {
				attrs = append(attrs, slog.String("user_id", uid))
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}

			l.LogAttrs(context.Background(), levelFor(res.Status, err, c.Path()), "request completed", attrs...)
			return nil
		}
	}
}

func levelFor(status int, err error, route string) slog.Level {
	switch {
	case err != nil || status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case strings.HasPrefix(route, "/health"):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
