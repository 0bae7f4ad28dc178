package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/peer-rental/internal/model"
	"github.com/iliyamo/peer-rental/internal/repository"
)

func TestWithinTxRollsBackOnError(t *testing.T) {
	db := New()
	ctx := context.Background()
	boom := errors.New("boom")

	var itemID uint64
	err := db.WithinTx(ctx, func(q repository.DBTX) error {
		it := &model.Item{OwnerID: 1, Title: "Tent", IsAvailable: true}
		require.NoError(t, db.Items().Create(ctx, q, it))
		itemID = it.ID
		_, err := db.Items().AddImages(ctx, q, it.ID, []model.ItemImage{{ImageURL: "a.jpg"}})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = db.Items().GetByID(ctx, nil, itemID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithinTxCommits(t *testing.T) {
	db := New()
	ctx := context.Background()

	var convID uint64
	require.NoError(t, db.WithinTx(ctx, func(q repository.DBTX) error {
		c, err := db.Conversations().Create(ctx, q, 42)
		if err != nil {
			return err
		}
		convID = c.ID
		return db.Conversations().AddParticipant(ctx, q, c.ID, 7)
	}))

	ok, err := db.Conversations().IsActiveParticipant(ctx, nil, convID, 7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUniqueConstraints(t *testing.T) {
	db := New()
	ctx := context.Background()

	_, err := db.Conversations().Create(ctx, nil, 1)
	require.NoError(t, err)
	_, err = db.Conversations().Create(ctx, nil, 1)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	require.NoError(t, db.Reviews().Create(ctx, nil, &model.Review{RentalID: 9, Rating: 5}))
	assert.ErrorIs(t, db.Reviews().Create(ctx, nil, &model.Review{RentalID: 9, Rating: 4}), repository.ErrDuplicate)

	require.NoError(t, db.Users().Create(ctx, nil, &model.User{Email: "A@x.io"}))
	assert.ErrorIs(t, db.Users().Create(ctx, nil, &model.User{Email: "a@x.io "}), repository.ErrDuplicate)
}

func TestSearchNearInclusiveBox(t *testing.T) {
	db := New()
	ctx := context.Background()
	items := db.Items()

	edge := &model.Item{Title: "edge", Latitude: 1, Longitude: 0, IsAvailable: true}
	hidden := &model.Item{Title: "hidden", Latitude: 0, Longitude: 0, IsAvailable: false}
	require.NoError(t, items.Create(ctx, nil, edge))
	require.NoError(t, items.Create(ctx, nil, hidden))

	got, err := items.SearchNear(ctx, nil, model.BoundingBox{MinLat: -1, MaxLat: 1, MinLon: -1, MaxLon: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, edge.ID, got[0].ID)
}
