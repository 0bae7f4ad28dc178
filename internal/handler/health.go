package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Pinger is implemented by *sql.DB and by the Redis client adapter.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthHandler reports liveness and the reachability of its dependencies.
// Nil checks are skipped.
type HealthHandler struct {
    Checks map[string]Pinger
}

// Health returns 200 with "ok" for every dependency that answers, or 503
// with the failing ones.
func (h *HealthHandler) Health(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()

    status := http.StatusOK
    deps := make(map[string]string, len(h.Checks))
    for name, p := range h.Checks {
        if p == nil {
            continue
        }
        if err := p.PingContext(ctx); err != nil {
            deps[name] = err.Error()
            status = http.StatusServiceUnavailable
            continue
        }
        deps[name] = "ok"
    }
    state := "ok"
    if status != http.StatusOK {
        state = "degraded"
    }
    return c.JSON(status, echo.Map{"status": state, "dependencies": deps})
}
