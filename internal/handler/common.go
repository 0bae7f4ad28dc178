// Package handler exposes the HTTP API.  Handlers decode and validate the
// request, call one service operation under a bounded context and map the
// result or the service error kind to a JSON response.
package handler

import (
    "context"
    "errors"
    "log/slog"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/peer-rental/internal/middleware"
    "github.com/iliyamo/peer-rental/internal/service"
    "github.com/iliyamo/peer-rental/internal/validation"
)

// requestTimeout bounds every storage round trip started by a handler.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// responder writes error responses and logs internal failures.
type responder struct {
    log *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
    if logger == nil {
        logger = slog.Default()
    }
    return responder{log: logger}
}

// fail maps err to {"error": code, "message": text}.
func (r responder) fail(c echo.Context, err error) error {
    status, code := http.StatusInternalServerError, "internal"
    switch {
    case errors.Is(err, service.ErrUnauthenticated):
        status, code = http.StatusUnauthorized, "unauthorized"
    case errors.Is(err, service.ErrValidation):
        status, code = http.StatusBadRequest, "validation"
    case errors.Is(err, service.ErrNotFound):
        status, code = http.StatusNotFound, "not_found"
    case errors.Is(err, service.ErrForbidden):
        status, code = http.StatusForbidden, "forbidden"
    case errors.Is(err, service.ErrConflict):
        status, code = http.StatusConflict, "conflict"
    case errors.Is(err, context.DeadlineExceeded):
        status, code = http.StatusGatewayTimeout, "timeout"
    }

    msg := http.StatusText(status)
    var se *service.Error
    if errors.As(err, &se) && status != http.StatusInternalServerError {
        msg = se.Msg
    } else if errors.Is(err, service.ErrUnauthenticated) {
        msg = "invalid credentials"
    }
    if status >= http.StatusInternalServerError {
        r.log.Error("request failed",
            "method", c.Request().Method,
            "path", c.Path(),
            "req_id", c.Response().Header().Get(echo.HeaderXRequestID),
            "err", err)
    }
    return c.JSON(status, echo.Map{"error": code, "message": msg})
}

func badRequest(msg string) error {
    return &service.Error{Kind: service.ErrValidation, Msg: msg}
}

// bind decodes the body into req and runs the struct validator.
func bind(c echo.Context, req any) error {
    if err := c.Bind(req); err != nil {
        return badRequest("invalid body")
    }
    if err := c.Validate(req); err != nil {
        return badRequest(validation.Message(err))
    }
    return nil
}

// currentUser returns the id stored by the JWT middleware.
func currentUser(c echo.Context) (uint64, error) {
    id, ok := middleware.UserID(c)
    if !ok {
        return 0, service.ErrUnauthenticated
    }
    return id, nil
}

func parseID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, badRequest("invalid " + name)
    }
    return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c echo.Context, name string) (int, error) {
    raw := c.QueryParam(name)
    if raw == "" {
        return 0, nil
    }
    n, err := strconv.Atoi(raw)
    if err != nil {
        return 0, badRequest(name + " must be an integer")
    }
    return n, nil
}
