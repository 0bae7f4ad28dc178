// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer.
package queue

// RentalConfirmedQueue is the durable queue carrying RentalConfirmedEvent.
const RentalConfirmedQueue = "rental.confirmed"

// RentalConfirmedEvent is published once, when the second party confirms a
// rental and it transitions from pending to confirmed.  It contains enough
// information for downstream consumers to log, notify, or trigger
// analytics without querying the primary database.
type RentalConfirmedEvent struct {
    RentalID        uint64 `json:"rental_id"`
    ItemID          uint64 `json:"item_id"`
    ItemTitle       string `json:"item_title"`
    TenantID        uint64 `json:"tenant_id"`
    OwnerID         uint64 `json:"owner_id"`
    StartsAt        string `json:"starts_at"`
    EndsAt          string `json:"ends_at"`
    TotalPriceCents int64  `json:"total_price_cents"`
    ConfirmedAt     string `json:"confirmed_at"`
}
