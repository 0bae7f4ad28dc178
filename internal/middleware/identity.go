package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
    KeyUserID = "user_id"
    KeyRole   = "role"
)

// UserID returns the authenticated user id stored by JWTAuth.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(KeyUserID).(uint64)
    return id, ok && id != 0
}

// Role returns the role claim stored by JWTAuth, or "" for guests.
func Role(c echo.Context) string {
    r, _ := c.Get(KeyRole).(string)
    return r
}

// subject identifies the caller in rate limit keys: the decimal user id
// or "anon".
func subject(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
