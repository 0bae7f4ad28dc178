package service

import (
    "context"
    "errors"
    "strings"

    "github.com/iliyamo/peer-rental/internal/model"
    "github.com/iliyamo/peer-rental/internal/repository"
)

// NewReview is the input of ReviewService.Create.
type NewReview struct {
    RentalID    uint64
    AuthorID    uint64
    RecipientID uint64
    Rating      int
    Comment     string
}

// ReviewService lets the tenant of a rental rate its owner once.  The
// rental status is not checked.
type ReviewService struct {
    store Store
}

func NewReviewService(store Store) *ReviewService { return &ReviewService{store: store} }

// Create stores the single review of a rental.
func (s *ReviewService) Create(ctx context.Context, in NewReview) (*model.Review, error) {
    if in.Rating < 1 || in.Rating > 5 {
        return nil, invalid("rating must be between 1 and 5")
    }
    r, err := s.store.Rentals.GetByID(ctx, nil, in.RentalID)
    if err != nil {
        return nil, storeErr(err, "rental not found")
    }
    if in.AuthorID != r.TenantID {
        return nil, forbidden("only the tenant can review this rental")
    }
    if in.RecipientID != r.OwnerID {
        return nil, invalid("reviewed_user_id must be the item owner")
    }
    exists, err := s.store.Reviews.ExistsForRental(ctx, nil, in.RentalID)
    if err != nil {
        return nil, storeErr(err, "")
    }
    if exists {
        return nil, conflict("rental already reviewed")
    }

    rv := &model.Review{
        RentalID:    r.ID,
        AuthorID:    in.AuthorID,
        RecipientID: in.RecipientID,
        Rating:      in.Rating,
        Comment:     strings.TrimSpace(in.Comment),
    }
    if err := s.store.Reviews.Create(ctx, nil, rv); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            return nil, conflict("rental already reviewed")
        }
        return nil, internal("create review", err)
    }
    return rv, nil
}

// ListForRecipient returns the reviews userID received, newest first.
func (s *ReviewService) ListForRecipient(ctx context.Context, userID uint64) ([]model.Review, error) {
    rs, err := s.store.Reviews.ListForRecipient(ctx, nil, userID)
    if err != nil {
        return nil, storeErr(err, "")
    }
    return rs, nil
}

// Summary returns the review count and average rating of userID.
func (s *ReviewService) Summary(ctx context.Context, userID uint64) (model.RatingSummary, error) {
    sum, err := s.store.Reviews.Summary(ctx, nil, userID)
    if err != nil {
        return model.RatingSummary{}, storeErr(err, "")
    }
    return sum, nil
}
