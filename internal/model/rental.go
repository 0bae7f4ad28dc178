package model

import "time"

// Rental statuses.  A rental starts PENDING and leaves that state either
// through dual confirmation (CONFIRMED) or cancellation (CANCELLED).  Both
// are terminal for the confirmation protocol.
const (
    RentalPending   = "pending"
    RentalConfirmed = "confirmed"
    RentalCancelled = "cancelled"
)

// Rental records a time-bounded transaction over an item between its
// owner and a tenant.  OwnerID is a snapshot of the item owner taken when
// the rental was created.
//
// Fields:
//  ID              – primary key identifier.
//  ItemID          – rented item.
//  TenantID        – user renting the item.
//  OwnerID         – item owner at creation time.
//  Status          – pending, confirmed or cancelled.
//  TotalPriceCents – total price in cents.
//  StartsAt/EndsAt – rental period, EndsAt strictly after StartsAt.
//  OwnerConfirmed  – owner confirmation flag.
//  TenantConfirmed – tenant confirmation flag.
//  CreatedAt       – creation timestamp.
//  ConfirmedAt     – stamped when both flags become true.
//  CancelledAt     – stamped on cancellation.
type Rental struct {
    ID              uint64
    ItemID          uint64
    TenantID        uint64
    OwnerID         uint64
    Status          string
    TotalPriceCents int64
    StartsAt        time.Time
    EndsAt          time.Time
    OwnerConfirmed  bool
    TenantConfirmed bool
    CreatedAt       time.Time
    ConfirmedAt     *time.Time
    CancelledAt     *time.Time
}

// Involves reports whether the user is the tenant or the owner.
func (r *Rental) Involves(userID uint64) bool {
    return r.TenantID == userID || r.OwnerID == userID
}

// Review is the single rating a tenant leaves for the owner after a rental.
type Review struct {
    ID          uint64
    RentalID    uint64
    AuthorID    uint64
    RecipientID uint64
    Rating      int
    Comment     string
    CreatedAt   time.Time
    UpdatedAt   time.Time
}

// RatingSummary aggregates the reviews received by a user.
type RatingSummary struct {
    UserID  uint64
    Count   int
    Average float64
}
