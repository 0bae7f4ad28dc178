package handler

import (
    "context"
    "log/slog"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/peer-rental/internal/model"
    "github.com/iliyamo/peer-rental/internal/service"
)

// RentalHandler serves the rental lifecycle endpoints.
type RentalHandler struct {
    responder
    Rentals *service.RentalService
}

func NewRentalHandler(rentals *service.RentalService, logger *slog.Logger) *RentalHandler {
    return &RentalHandler{responder: newResponder(logger), Rentals: rentals}
}

// Create handles POST /v1/rentals.  The caller is the tenant.
func (h *RentalHandler) Create(c echo.Context) error {
    uid, err := currentUser(c)
    if err != nil {
        return h.fail(c, err)
    }
    var req createRentalReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    r, err := h.Rentals.Create(ctx, service.NewRental{
        ItemID:          req.ItemID,
        TenantID:        uid,
        StartsAt:        req.StartDate,
        EndsAt:          req.EndDate,
        TotalPriceCents: req.TotalPriceCents,
    })
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, toRental(r))
}

// Get handles GET /v1/rentals/:id.  Only the tenant and the owner see it.
func (h *RentalHandler) Get(c echo.Context) error {
    uid, err := currentUser(c)
    if err != nil {
        return h.fail(c, err)
    }
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    r, err := h.Rentals.GetForUser(ctx, id, uid)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, toRental(r))
}

// Confirm handles POST /v1/rentals/:id/confirm.
func (h *RentalHandler) Confirm(c echo.Context) error {
    return h.transition(c, h.Rentals.Confirm)
}

// Cancel handles POST /v1/rentals/:id/cancel.
func (h *RentalHandler) Cancel(c echo.Context) error {
    return h.transition(c, h.Rentals.Cancel)
}

func (h *RentalHandler) transition(c echo.Context, op func(ctx context.Context, rentalID, actorID uint64) (*model.Rental, error)) error {
    uid, err := currentUser(c)
    if err != nil {
        return h.fail(c, err)
    }
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    r, err := op(ctx, id, uid)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, toRental(r))
}

// Mine handles GET /v1/my-rentals?scope=active|all.  The default scope is
// active, the confirmed rentals of the caller.
func (h *RentalHandler) Mine(c echo.Context) error {
    uid, err := currentUser(c)
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    var list []model.Rental
    switch c.QueryParam("scope") {
    case "", "active":
        list, err = h.Rentals.ListActiveForUser(ctx, uid)
    case "all":
        list, err = h.Rentals.ListForUser(ctx, uid)
    default:
        return h.fail(c, badRequest("scope must be active or all"))
    }
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": toRentals(list)})
}
