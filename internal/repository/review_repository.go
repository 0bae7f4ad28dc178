package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/peer-rental/internal/model"
)

// ReviewRepo persists reviews.  UNIQUE(rental_id) allows exactly one
// review per rental; a second insert yields ErrDuplicate.
type ReviewRepo struct {
    db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = `id, rental_id, author_id, recipient_id, rating, comment, created_at, updated_at`

func scanReview(s scanner) (model.Review, error) {
    var rv model.Review
    err := s.Scan(&rv.ID, &rv.RentalID, &rv.AuthorID, &rv.RecipientID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt)
    return rv, err
}

// Create inserts a review and reloads it.
func (r *ReviewRepo) Create(ctx context.Context, q DBTX, rv *model.Review) error {
    id, err := insertID(ctx, conn(r.db, q),
        `INSERT INTO reviews (rental_id, author_id, recipient_id, rating, comment) VALUES (?, ?, ?, ?, ?)`,
        rv.RentalID, rv.AuthorID, rv.RecipientID, rv.Rating, rv.Comment)
    if err != nil {
        return err
    }
    row, err := queryOne(ctx, conn(r.db, q), scanReview, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)
    if err != nil {
        return err
    }
    *rv = row
    return nil
}

// ExistsForRental reports whether the rental already has a review.
func (r *ReviewRepo) ExistsForRental(ctx context.Context, q DBTX, rentalID uint64) (bool, error) {
    var n int
    if err := conn(r.db, q).QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE rental_id = ?`, rentalID).Scan(&n); err != nil {
        return false, err
    }
    return n > 0, nil
}

// ListForRecipient returns the reviews received by userID, newest first.
func (r *ReviewRepo) ListForRecipient(ctx context.Context, q DBTX, userID uint64) ([]model.Review, error) {
    return queryMany(ctx, conn(r.db, q), scanReview,
        `SELECT `+reviewColumns+` FROM reviews WHERE recipient_id = ? ORDER BY created_at DESC, id DESC`, userID)
}

// Summary returns the review count and average rating of userID.
func (r *ReviewRepo) Summary(ctx context.Context, q DBTX, userID uint64) (model.RatingSummary, error) {
    s := model.RatingSummary{UserID: userID}
    var avg sql.NullFloat64
    err := conn(r.db, q).QueryRowContext(ctx,
        `SELECT COUNT(*), AVG(rating) FROM reviews WHERE recipient_id = ?`, userID).Scan(&s.Count, &avg)
    if err != nil {
        return s, err
    }
    if avg.Valid {
        s.Average = avg.Float64
    }
    return s, nil
}
