package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/peer-rental/internal/service"
)

func TestReview_OncePerRental(t *testing.T) {
	m := newMarket(t)
	r := m.rent(t, time.Hour)
	svc := service.NewReviewService(m.store)

	rv, err := svc.Create(m.ctx, service.NewReview{RentalID: r.ID, AuthorID: m.tenant.ID, RecipientID: m.owner.ID, Rating: 5, Comment: " great "})
	require.NoError(t, err)
	assert.Equal(t, "great", rv.Comment)

	_, err = svc.Create(m.ctx, service.NewReview{RentalID: r.ID, AuthorID: m.tenant.ID, RecipientID: m.owner.ID, Rating: 1})
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestReview_Rejections(t *testing.T) {
	m := newMarket(t)
	r := m.rent(t, time.Hour)
	svc := service.NewReviewService(m.store)

	_, err := svc.Create(m.ctx, service.NewReview{RentalID: r.ID, AuthorID: m.owner.ID, RecipientID: m.owner.ID, Rating: 4})
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = svc.Create(m.ctx, service.NewReview{RentalID: r.ID, AuthorID: m.tenant.ID, RecipientID: m.tenant.ID, Rating: 4})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = svc.Create(m.ctx, service.NewReview{RentalID: 9999, AuthorID: m.tenant.ID, RecipientID: m.owner.ID, Rating: 4})
	assert.ErrorIs(t, err, service.ErrNotFound)

	for _, rating := range []int{0, 6, -1} {
		_, err = svc.Create(m.ctx, service.NewReview{RentalID: r.ID, AuthorID: m.tenant.ID, RecipientID: m.owner.ID, Rating: rating})
		assert.ErrorIs(t, err, service.ErrValidation, "rating %d", rating)
	}
}

func TestReview_Summary(t *testing.T) {
	m := newMarket(t)
	svc := service.NewReviewService(m.store)

	sum, err := svc.Summary(m.ctx, m.owner.ID)
	require.NoError(t, err)
	assert.Zero(t, sum.Count)

	for _, rating := range []int{5, 4} {
		r := m.rent(t, time.Hour)
		_, err := svc.Create(m.ctx, service.NewReview{RentalID: r.ID, AuthorID: m.tenant.ID, RecipientID: m.owner.ID, Rating: rating})
		require.NoError(t, err)
	}

	sum, err = svc.Summary(m.ctx, m.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Count)
	assert.InDelta(t, 4.5, sum.Average, 1e-9)

	list, err := svc.ListForRecipient(m.ctx, m.owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
