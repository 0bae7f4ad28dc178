package model

import "time"

// Item is a rentable listing owned by a user.  It corresponds to a row in
// the `items` table.  Prices are stored in cents; either rate may be
// absent but at least one must be present for a computed rental price.
// An unavailable item cannot originate a new rental.
type Item struct {
    ID                uint64
    OwnerID           uint64
    CategoryID        uint64
    Title             string
    Description       *string
    PricePerHourCents *int64
    PricePerDayCents  *int64
    Address           string
    Latitude          float64
    Longitude         float64
    IsAvailable       bool
    Images            []ItemImage
    CreatedAt         time.Time
    UpdatedAt         time.Time
}

// ItemImage is a picture attached to an item.  Images are owned by the
// item and removed together with it.  OrderIndex gives the display order.
type ItemImage struct {
    ID         uint64
    ItemID     uint64
    ImageURL   string
    OrderIndex int
}

// Category is a node of the category tree.  ParentID is nil for roots.
type Category struct {
    ID       uint64
    Name     string
    ParentID *uint64
}
