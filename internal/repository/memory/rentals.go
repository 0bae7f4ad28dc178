package memory

import (
	"context"
	"sort"

	"github.com/iliyamo/peer-rental/internal/model"
	"github.com/iliyamo/peer-rental/internal/repository"
)

// RentalStore keeps rentals.
type RentalStore struct{ db *DB }

func (s *RentalStore) Create(ctx context.Context, q repository.DBTX, r *model.Rental) error {
	defer s.db.enter(q)()
	if _, ok := s.db.t.items[r.ItemID]; !ok {
		return repository.ErrNotFound
	}
	r.ID = s.db.nextID()
	r.CreatedAt = s.db.Now()
	r.StartsAt, r.EndsAt = r.StartsAt.UTC(), r.EndsAt.UTC()
	s.db.t.rentals[r.ID] = *r
	return nil
}

func (s *RentalStore) GetByID(ctx context.Context, q repository.DBTX, id uint64) (*model.Rental, error) {
	defer s.db.enter(q)()
	r, ok := s.db.t.rentals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

// GetForUpdate is GetByID; inside WithinTx the whole database is locked.
func (s *RentalStore) GetForUpdate(ctx context.Context, q repository.DBTX, id uint64) (*model.Rental, error) {
	return s.GetByID(ctx, q, id)
}

func (s *RentalStore) UpdateState(ctx context.Context, q repository.DBTX, r *model.Rental) error {
	defer s.db.enter(q)()
	cur, ok := s.db.t.rentals[r.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Status = r.Status
	cur.OwnerConfirmed = r.OwnerConfirmed
	cur.TenantConfirmed = r.TenantConfirmed
	cur.ConfirmedAt = r.ConfirmedAt
	cur.CancelledAt = r.CancelledAt
	s.db.t.rentals[r.ID] = cur
	return nil
}

func (s *RentalStore) ListForUser(ctx context.Context, q repository.DBTX, userID uint64, statuses ...string) ([]model.Rental, error) {
	defer s.db.enter(q)()
	out := make([]model.Rental, 0)
	for _, r := range s.db.t.rentals {
		if !r.Involves(userID) {
			continue
		}
		if len(statuses) > 0 && !contains(statuses, r.Status) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ReviewStore keeps reviews.  At most one review exists per rental.
type ReviewStore struct{ db *DB }

func (s *ReviewStore) Create(ctx context.Context, q repository.DBTX, rv *model.Review) error {
	defer s.db.enter(q)()
	for _, existing := range s.db.t.reviews {
		if existing.RentalID == rv.RentalID {
			return repository.ErrDuplicate
		}
	}
	now := s.db.Now()
	rv.ID = s.db.nextID()
	rv.CreatedAt, rv.UpdatedAt = now, now
	s.db.t.reviews[rv.ID] = *rv
	return nil
}

func (s *ReviewStore) ExistsForRental(ctx context.Context, q repository.DBTX, rentalID uint64) (bool, error) {
	defer s.db.enter(q)()
	for _, rv := range s.db.t.reviews {
		if rv.RentalID == rentalID {
			return true, nil
		}
	}
	return false, nil
}

func (s *ReviewStore) ListForRecipient(ctx context.Context, q repository.DBTX, userID uint64) ([]model.Review, error) {
	defer s.db.enter(q)()
	out := make([]model.Review, 0)
	for _, rv := range s.db.t.reviews {
		if rv.RecipientID == userID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *ReviewStore) Summary(ctx context.Context, q repository.DBTX, userID uint64) (model.RatingSummary, error) {
	defer s.db.enter(q)()
	sum := model.RatingSummary{UserID: userID}
	total := 0
	for _, rv := range s.db.t.reviews {
		if rv.RecipientID == userID {
			sum.Count++
			total += rv.Rating
		}
	}
	if sum.Count > 0 {
		sum.Average = float64(total) / float64(sum.Count)
	}
	return sum, nil
}
