package handler

import (
    "log/slog"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/peer-rental/internal/model"
    "github.com/iliyamo/peer-rental/internal/service"
)

// ItemHandler serves the item catalog and category endpoints.
type ItemHandler struct {
    responder
    Catalog *service.CatalogService
}

func NewItemHandler(catalog *service.CatalogService, logger *slog.Logger) *ItemHandler {
    return &ItemHandler{responder: newResponder(logger), Catalog: catalog}
}

// Search handles GET /v1/items/search?lat=&lon=&radius=.  radius is in
// kilometres and defaults to 5.
func (h *ItemHandler) Search(c echo.Context) error {
    lat, err := queryFloat(c, "lat", nil)
    if err != nil {
        return h.fail(c, err)
    }
    lon, err := queryFloat(c, "lon", nil)
    if err != nil {
        return h.fail(c, err)
    }
    def := model.DefaultRadiusKm
    radius, err := queryFloat(c, "radius", &def)
    if err != nil {
        return h.fail(c, err)
    }
    if err := model.ValidateCoordinates(lat, lon); err != nil {
        return h.fail(c, badRequest(err.Error()))
    }
    if err := model.ValidateSearchRadius(radius); err != nil {
        return h.fail(c, badRequest(err.Error()))
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    items, err := h.Catalog.SearchNear(ctx, lat, lon, radius)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": toItems(items)})
}

func queryFloat(c echo.Context, name string, def *float64) (float64, error) {
    raw := c.QueryParam(name)
    if raw == "" {
        if def == nil {
            return 0, badRequest(name + " is required")
        }
        return *def, nil
    }
    v, err := strconv.ParseFloat(raw, 64)
    if err != nil {
        return 0, badRequest(name + " must be a number")
    }
    return v, nil
}

// Get handles GET /v1/items/:id.
func (h *ItemHandler) Get(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    it, err := h.Catalog.Get(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, toItem(it))
}

// Create handles POST /v1/items.  The caller becomes the owner.
func (h *ItemHandler) Create(c echo.Context) error {
    uid, err := currentUser(c)
    if err != nil {
        return h.fail(c, err)
    }
    var req createItemReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    it, err := h.Catalog.Create(ctx, uid, service.NewItem{
        CategoryID:        req.CategoryID,
        Title:             req.Title,
        Description:       req.Description,
        PricePerHourCents: req.PricePerHourCents,
        PricePerDayCents:  req.PricePerDayCents,
        Address:           req.Address,
        Latitude:          *req.Latitude,
        Longitude:         *req.Longitude,
        ImageURLs:         req.ImageURLs,
    })
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, toItem(it))
}

// SetAvailability handles PATCH /v1/items/:id/availability.
func (h *ItemHandler) SetAvailability(c echo.Context) error {
    uid, err := currentUser(c)
    if err != nil {
        return h.fail(c, err)
    }
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    var req availabilityReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    it, err := h.Catalog.SetAvailability(ctx, id, uid, *req.IsAvailable)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, toItem(it))
}

// ListByOwner handles GET /v1/users/:id/items.
func (h *ItemHandler) ListByOwner(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    items, err := h.Catalog.ListByOwner(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": toItems(items)})
}

// ListCategories handles GET /v1/categories.
func (h *ItemHandler) ListCategories(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    cats, err := h.Catalog.ListCategories(ctx)
    if err != nil {
        return h.fail(c, err)
    }
    out := make([]categoryResp, 0, len(cats))
    for _, ct := range cats {
        out = append(out, categoryResp{ID: ct.ID, Name: ct.Name, ParentID: ct.ParentID})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// CreateCategory handles POST /v1/categories (ADMIN).
func (h *ItemHandler) CreateCategory(c echo.Context) error {
    var req createCategoryReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    ct, err := h.Catalog.CreateCategory(ctx, req.Name, req.ParentID)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, categoryResp{ID: ct.ID, Name: ct.Name, ParentID: ct.ParentID})
}
