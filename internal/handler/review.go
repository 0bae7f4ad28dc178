package handler

import (
    "log/slog"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/peer-rental/internal/service"
)

// ReviewHandler serves reviews and rating summaries.
type ReviewHandler struct {
    responder
    Reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService, logger *slog.Logger) *ReviewHandler {
    return &ReviewHandler{responder: newResponder(logger), Reviews: reviews}
}

// Create handles POST /v1/reviews.  The caller is the author and must be
// the tenant of the rental.
func (h *ReviewHandler) Create(c echo.Context) error {
    uid, err := currentUser(c)
    if err != nil {
        return h.fail(c, err)
    }
    var req createReviewReq
    if err := bind(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    rv, err := h.Reviews.Create(ctx, service.NewReview{
        RentalID:    req.RentalID,
        AuthorID:    uid,
        RecipientID: req.ReviewedUserID,
        Rating:      req.Rating,
        Comment:     req.Comment,
    })
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, toReview(rv))
}

// ListForUser handles GET /v1/users/:id/reviews.
func (h *ReviewHandler) ListForUser(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    rs, err := h.Reviews.ListForRecipient(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    out := make([]reviewResp, 0, len(rs))
    for i := range rs {
        out = append(out, toReview(&rs[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Rating handles GET /v1/users/:id/rating.
func (h *ReviewHandler) Rating(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    sum, err := h.Reviews.Summary(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, ratingResp{UserID: sum.UserID, Count: sum.Count, Average: sum.Average})
}
