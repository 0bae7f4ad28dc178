package middleware

import (
    "log/slog"
    "time"

    "github.com/labstack/echo/v4"
)

// RequestLog writes one structured line per request.  It expects the
// RequestID middleware to run first.
func RequestLog(logger *slog.Logger) echo.MiddlewareFunc {
    if logger == nil {
        logger = slog.Default()
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // Let Echo write the error response so the status is final.
                c.Error(err)
            }
            attrs := []any{
                "method", c.Request().Method,
                "path", c.Path(),
                "status", c.Response().Status,
                "latency_ms", time.Since(start).Milliseconds(),
                "req_id", c.Response().Header().Get(echo.HeaderXRequestID),
                "ip", c.RealIP(),
            }
            if id, ok := UserID(c); ok {
                attrs = append(attrs, "user_id", id)
            }
            level := slog.LevelInfo
            if c.Response().Status >= 500 {
                level = slog.LevelError
            }
            logger.Log(c.Request().Context(), level, "http", attrs...)
            return nil
        }
    }
}
