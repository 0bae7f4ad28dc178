package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/peer-rental/internal/model"
)

// RentalRepo provides data access to the rentals table.  All timestamp
// fields are stored in UTC.  GetForUpdate takes a row lock and must be
// called inside a transaction.
type RentalRepo struct {
    db *sql.DB
}

// NewRentalRepo returns a new RentalRepo bound to the given database.
func NewRentalRepo(db *sql.DB) *RentalRepo { return &RentalRepo{db: db} }

const rentalColumns = `id, item_id, tenant_id, owner_id, status, total_price_cents, starts_at, ends_at,
    owner_confirmed, tenant_confirmed, created_at, confirmed_at, cancelled_at`

func scanRental(s scanner) (model.Rental, error) {
    var (
        r           model.Rental
        confirmedAt sql.NullTime
        cancelledAt sql.NullTime
    )
    err := s.Scan(&r.ID, &r.ItemID, &r.TenantID, &r.OwnerID, &r.Status, &r.TotalPriceCents, &r.StartsAt, &r.EndsAt,
        &r.OwnerConfirmed, &r.TenantConfirmed, &r.CreatedAt, &confirmedAt, &cancelledAt)
    if err != nil {
        return r, err
    }
    r.ConfirmedAt = timePtr(confirmedAt)
    r.CancelledAt = timePtr(cancelledAt)
    return r, nil
}

// Create inserts a pending rental and reloads it to pick up defaults.
func (r *RentalRepo) Create(ctx context.Context, q DBTX, rental *model.Rental) error {
    const ins = `INSERT INTO rentals (item_id, tenant_id, owner_id, status, total_price_cents, starts_at, ends_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
    id, err := insertID(ctx, conn(r.db, q), ins,
        rental.ItemID, rental.TenantID, rental.OwnerID, rental.Status, rental.TotalPriceCents,
        rental.StartsAt.UTC(), rental.EndsAt.UTC())
    if err != nil {
        return err
    }
    row, err := r.GetByID(ctx, q, id)
    if err != nil {
        return err
    }
    *rental = *row
    return nil
}

// GetByID returns a rental or ErrNotFound.
func (r *RentalRepo) GetByID(ctx context.Context, q DBTX, id uint64) (*model.Rental, error) {
    row, err := queryOne(ctx, conn(r.db, q), scanRental, `SELECT `+rentalColumns+` FROM rentals WHERE id = ?`, id)
    if err != nil {
        return nil, err
    }
    return &row, nil
}

// GetForUpdate reads a rental with SELECT ... FOR UPDATE so concurrent
// confirmations of the same rental are applied one after the other.
func (r *RentalRepo) GetForUpdate(ctx context.Context, q DBTX, id uint64) (*model.Rental, error) {
    row, err := queryOne(ctx, conn(r.db, q), scanRental,
        `SELECT `+rentalColumns+` FROM rentals WHERE id = ? FOR UPDATE`, id)
    if err != nil {
        return nil, err
    }
    return &row, nil
}

// UpdateState writes the confirmation flags, status and lifecycle
// timestamps of a rental.
func (r *RentalRepo) UpdateState(ctx context.Context, q DBTX, rental *model.Rental) error {
    var confirmedAt, cancelledAt sql.NullTime
    if rental.ConfirmedAt != nil {
        confirmedAt = sql.NullTime{Time: rental.ConfirmedAt.UTC(), Valid: true}
    }
    if rental.CancelledAt != nil {
        cancelledAt = sql.NullTime{Time: rental.CancelledAt.UTC(), Valid: true}
    }
    return execAffected(ctx, conn(r.db, q),
        `UPDATE rentals SET status = ?, owner_confirmed = ?, tenant_confirmed = ?, confirmed_at = ?, cancelled_at = ?
         WHERE id = ?`,
        rental.Status, rental.OwnerConfirmed, rental.TenantConfirmed, confirmedAt, cancelledAt, rental.ID)
}

// ListForUser returns the rentals in which userID is tenant or owner,
// newest first.  When statuses is non-empty only those statuses match.
func (r *RentalRepo) ListForUser(ctx context.Context, q DBTX, userID uint64, statuses ...string) ([]model.Rental, error) {
    query := `SELECT ` + rentalColumns + ` FROM rentals WHERE (tenant_id = ? OR owner_id = ?)`
    args := []any{userID, userID}
    if len(statuses) > 0 {
        query += ` AND status IN (?` + repeatPlaceholder(len(statuses)-1) + `)`
        for _, s := range statuses {
            args = append(args, s)
        }
    }
    query += ` ORDER BY created_at DESC, id DESC`
    return queryMany(ctx, conn(r.db, q), scanRental, query, args...)
}

// repeatPlaceholder returns n copies of ",?".
func repeatPlaceholder(n int) string {
    out := make([]byte, 0, 2*n)
    for i := 0; i < n; i++ {
        out = append(out, ',', '?')
    }
    return string(out)
}
