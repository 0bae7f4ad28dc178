package handler

import (
    "log/slog"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/peer-rental/internal/middleware"
    "github.com/iliyamo/peer-rental/internal/service"
)

// AuthHandler serves registration, login and session endpoints.
type AuthHandler struct {
    responder
    Accounts *service.AccountService
}

func NewAuthHandler(accounts *service.AccountService, logger *slog.Logger) *AuthHandler {
    return &AuthHandler{responder: newResponder(logger), Accounts: accounts}
}

func toAuth(s *service.Session) authResp {
    return authResp{
        User:    toUser(s.User),
        Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
        Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp}, // raw back to client
    }
}

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    sess, err := h.Accounts.Register(ctx, service.Registration{
        Email:    req.Email,
        Password: req.Password,
        FullName: req.FullName,
        Phone:    req.Phone,
    })
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, toAuth(sess))
}

// Login: verify and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    sess, err := h.Accounts.Login(ctx, req.Email, req.Password)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, toAuth(sess))
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    sess, err := h.Accounts.Refresh(ctx, req.RefreshToken)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, toAuth(sess))
}

// Logout revokes the refresh token in the body, or every session of the
// caller when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req logoutReq
    if err := c.Bind(&req); err != nil {
        return h.fail(c, badRequest("invalid body"))
    }
    uid, _ := middleware.UserID(c)
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Accounts.Logout(ctx, uid, req.RefreshToken); err != nil {
        return h.fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the profile of the caller.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := currentUser(c)
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Accounts.GetUser(ctx, uid)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, toUser(u))
}

// Profile handles GET /v1/users/:id.  Contact details are not exposed.
func (h *AuthHandler) Profile(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Accounts.GetUser(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, publicUserResp{ID: u.ID, FullName: u.FullName, CreatedAt: u.CreatedAt})
}
