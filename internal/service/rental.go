package service

import (
    "context"
    "log/slog"
    "math"
    "time"

    "github.com/iliyamo/peer-rental/internal/model"
    "github.com/iliyamo/peer-rental/internal/queue"
    "github.com/iliyamo/peer-rental/internal/repository"
)

// NewRental is the input of RentalService.Create.  When TotalPriceCents
// is nil the price is computed from the item rates.
type NewRental struct {
    ItemID          uint64
    TenantID        uint64
    StartsAt        time.Time
    EndsAt          time.Time
    TotalPriceCents *int64
}

// RentalService drives the rental state machine.  A rental is created
// pending and becomes confirmed once both the tenant and the owner have
// confirmed it, in either order.  Pending rentals may be cancelled.
type RentalService struct {
    store  Store
    events EventPublisher
    log    *slog.Logger
    now    func() time.Time
}

// NewRentalService returns a RentalService.  events may be nil, in which
// case confirmations are not published.
func NewRentalService(store Store, events EventPublisher, logger *slog.Logger) *RentalService {
    if logger == nil {
        logger = slog.Default()
    }
    return &RentalService{store: store, events: events, log: logger, now: func() time.Time { return time.Now().UTC() }}
}

// ComputePrice returns the price of renting it for d.  Periods up to one
// day are billed by the hour, pro rata and rounded to the cent.  Longer
// periods are billed per whole day and the remainder is dropped.  A total
// that does not fit in int64 cents is a validation error.
func ComputePrice(it *model.Item, d time.Duration) (int64, error) {
    if d <= 24*time.Hour {
        if it.PricePerHourCents == nil {
            return 0, invalid("item has no hourly price")
        }
        total := math.Round(float64(*it.PricePerHourCents) * d.Hours())
        // float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
        if total >= float64(math.MaxInt64) {
            return 0, errPriceTooLarge
        }
        return int64(total), nil
    }
    if it.PricePerDayCents == nil {
        return 0, invalid("item has no daily price")
    }
    days := int64(d / (24 * time.Hour))
    if *it.PricePerDayCents > math.MaxInt64/days {
        return 0, errPriceTooLarge
    }
    return *it.PricePerDayCents * days, nil
}

var errPriceTooLarge = invalid("total price is too large")

// Create opens a pending rental of in.ItemID for in.TenantID.  The item
// stays available; overlapping rentals are not rejected.
func (s *RentalService) Create(ctx context.Context, in NewRental) (*model.Rental, error) {
    it, err := s.store.Items.GetByID(ctx, nil, in.ItemID)
    if err != nil {
        return nil, storeErr(err, "item not found")
    }
    if !it.IsAvailable {
        return nil, conflict("item is not available")
    }
    if it.OwnerID == in.TenantID {
        return nil, conflict("cannot rent your own item")
    }
    // Rental periods are stored with microsecond precision.
    in.StartsAt = in.StartsAt.UTC().Truncate(time.Microsecond)
    in.EndsAt = in.EndsAt.UTC().Truncate(time.Microsecond)
    if !in.EndsAt.After(in.StartsAt) {
        return nil, invalid("end_date must be after start_date")
    }

    var price int64
    if in.TotalPriceCents != nil {
        if *in.TotalPriceCents < 0 {
            return nil, invalid("total_price must not be negative")
        }
        price = *in.TotalPriceCents
    } else {
        price, err = ComputePrice(it, in.EndsAt.Sub(in.StartsAt))
        if err != nil {
            return nil, err
        }
    }

    r := &model.Rental{
        ItemID:          it.ID,
        TenantID:        in.TenantID,
        OwnerID:         it.OwnerID,
        Status:          model.RentalPending,
        TotalPriceCents: price,
        StartsAt:        in.StartsAt,
        EndsAt:          in.EndsAt,
    }
    if err := s.store.Rentals.Create(ctx, nil, r); err != nil {
        return nil, internal("create rental", err)
    }
    return r, nil
}

// Confirm records the confirmation of actorID, who must be the tenant or
// the owner.  The rental row is locked for the duration of the
// transaction so concurrent confirmations are applied one after the
// other; exactly one of them observes the transition to confirmed and
// publishes the event.
func (s *RentalService) Confirm(ctx context.Context, rentalID, actorID uint64) (*model.Rental, error) {
    var (
        rental      *model.Rental
        item        *model.Item
        transitions bool
    )
    err := s.store.Tx.WithinTx(ctx, func(q repository.DBTX) error {
        r, err := s.store.Rentals.GetForUpdate(ctx, q, rentalID)
        if err != nil {
            return err
        }
        if !r.Involves(actorID) {
            return forbidden("not a party to this rental")
        }
        if r.Status != model.RentalPending {
            return conflict("rental is " + r.Status)
        }
        // A user renting from themselves is rejected at creation, so the
        // actor holds exactly one role.
        if actorID == r.OwnerID {
            if r.OwnerConfirmed {
                return conflict("owner already confirmed")
            }
            r.OwnerConfirmed = true
        } else {
            if r.TenantConfirmed {
                return conflict("tenant already confirmed")
            }
            r.TenantConfirmed = true
        }
        if r.OwnerConfirmed && r.TenantConfirmed {
            now := s.now()
            r.Status = model.RentalConfirmed
            r.ConfirmedAt = &now
            transitions = true
            if item, err = s.store.Items.GetByID(ctx, q, r.ItemID); err != nil {
                return err
            }
        }
        if err := s.store.Rentals.UpdateState(ctx, q, r); err != nil {
            return err
        }
        rental = r
        return nil
    })
    if err != nil {
        return nil, storeErr(err, "rental not found")
    }
    if transitions {
        s.publishConfirmed(ctx, rental, item)
    }
    return rental, nil
}

func (s *RentalService) publishConfirmed(ctx context.Context, r *model.Rental, it *model.Item) {
    if s.events == nil {
        return
    }
    ev := queue.RentalConfirmedEvent{
        RentalID:        r.ID,
        ItemID:          r.ItemID,
        ItemTitle:       it.Title,
        TenantID:        r.TenantID,
        OwnerID:         r.OwnerID,
        StartsAt:        r.StartsAt.UTC().Format(time.RFC3339),
        EndsAt:          r.EndsAt.UTC().Format(time.RFC3339),
        TotalPriceCents: r.TotalPriceCents,
        ConfirmedAt:     r.ConfirmedAt.UTC().Format(time.RFC3339),
    }
    if err := s.events.PublishRentalConfirmed(ctx, ev); err != nil {
        s.log.Warn("publish rental.confirmed failed", "rental_id", r.ID, "err", err)
    }
}

// Cancel moves a pending rental to cancelled.  Either party may cancel.
func (s *RentalService) Cancel(ctx context.Context, rentalID, actorID uint64) (*model.Rental, error) {
    var rental *model.Rental
    err := s.store.Tx.WithinTx(ctx, func(q repository.DBTX) error {
        r, err := s.store.Rentals.GetForUpdate(ctx, q, rentalID)
        if err != nil {
            return err
        }
        if !r.Involves(actorID) {
            return forbidden("not a party to this rental")
        }
        if r.Status != model.RentalPending {
            return conflict("rental is " + r.Status)
        }
        now := s.now()
        r.Status = model.RentalCancelled
        r.CancelledAt = &now
        if err := s.store.Rentals.UpdateState(ctx, q, r); err != nil {
            return err
        }
        rental = r
        return nil
    })
    if err != nil {
        return nil, storeErr(err, "rental not found")
    }
    return rental, nil
}

// Get returns a rental by id.
func (s *RentalService) Get(ctx context.Context, rentalID uint64) (*model.Rental, error) {
    r, err := s.store.Rentals.GetByID(ctx, nil, rentalID)
    if err != nil {
        return nil, storeErr(err, "rental not found")
    }
    return r, nil
}

// GetForUser returns a rental visible to userID, its tenant or owner.
func (s *RentalService) GetForUser(ctx context.Context, rentalID, userID uint64) (*model.Rental, error) {
    r, err := s.Get(ctx, rentalID)
    if err != nil {
        return nil, err
    }
    if !r.Involves(userID) {
        return nil, forbidden("not a party to this rental")
    }
    return r, nil
}

// ListActiveForUser returns the confirmed rentals in which userID is the
// tenant or the owner, newest first.
func (s *RentalService) ListActiveForUser(ctx context.Context, userID uint64) ([]model.Rental, error) {
    rs, err := s.store.Rentals.ListForUser(ctx, nil, userID, model.RentalConfirmed)
    if err != nil {
        return nil, storeErr(err, "")
    }
    return rs, nil
}

// ListForUser returns every rental of userID regardless of status.
func (s *RentalService) ListForUser(ctx context.Context, userID uint64) ([]model.Rental, error) {
    rs, err := s.store.Rentals.ListForUser(ctx, nil, userID)
    if err != nil {
        return nil, storeErr(err, "")
    }
    return rs, nil
}
