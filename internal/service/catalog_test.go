package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/peer-rental/internal/model"
	"github.com/iliyamo/peer-rental/internal/repository"
	"github.com/iliyamo/peer-rental/internal/service"
)

func TestSearchNear_RadiusFilter(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@x.io")
	a := f.item(t, owner.ID, 0, 0)
	b := f.item(t, owner.ID, 1, 1)
	svc := service.NewCatalogService(f.store)

	got, err := svc.SearchNear(f.ctx, 0, 0, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	got, err = svc.SearchNear(f.ctx, 0, 0, 200)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []uint64{a.ID, b.ID}, []uint64{got[0].ID, got[1].ID})
}

func TestBoundingBox_Radius200IncludesBoth(t *testing.T) {
	box := model.NewBoundingBox(0, 0, 200)
	assert.True(t, box.Contains(0, 0))
	assert.True(t, box.Contains(1, 1))

	box = model.NewBoundingBox(0, 0, 50)
	assert.True(t, box.Contains(0, 0))
	assert.False(t, box.Contains(1, 1))
}

func TestSearchNear_SkipsUnavailable(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@x.io")
	it := f.item(t, owner.ID, 10, 10)
	svc := service.NewCatalogService(f.store)

	_, err := svc.SetAvailability(f.ctx, it.ID, owner.ID, false)
	require.NoError(t, err)

	got, err := svc.SearchNear(f.ctx, 10, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	mine, err := svc.ListByOwner(f.ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.False(t, mine[0].IsAvailable)
}

func TestSearchNear_ValidatesBounds(t *testing.T) {
	svc := service.NewCatalogService(newFixture(t).store)
	ctx := context.Background()
	for _, tc := range []struct{ lat, lon, r float64 }{
		{91, 0, 5}, {-91, 0, 5}, {0, 181, 5}, {0, -181, 5}, {0, 0, 0}, {0, 0, -1},
	} {
		_, err := svc.SearchNear(ctx, tc.lat, tc.lon, tc.r)
		assert.ErrorIs(t, err, service.ErrValidation, "%+v", tc)
	}
}

func TestCreateItem_WithImages(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@x.io")
	svc := service.NewCatalogService(f.store)

	it, err := svc.Create(f.ctx, owner.ID, service.NewItem{
		CategoryID:       f.cat,
		Title:            "Tent",
		PricePerDayCents: cents(500),
		Address:          "Camp",
		Latitude:         45,
		Longitude:        7,
		ImageURLs:        []string{"a.jpg", "b.jpg"},
	})
	require.NoError(t, err)
	assert.True(t, it.IsAvailable)
	require.Len(t, it.Images, 2)

	got, err := svc.Get(f.ctx, it.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 2)
	assert.Equal(t, "a.jpg", got.Images[0].ImageURL)
	assert.Equal(t, "b.jpg", got.Images[1].ImageURL)
}

func TestCreateItem_Validation(t *testing.T) {
	f := newFixture(t)
	svc := service.NewCatalogService(f.store)

	_, err := svc.Create(f.ctx, 1, service.NewItem{CategoryID: f.cat, Title: "x", Address: "y"})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = svc.Create(f.ctx, 1, service.NewItem{CategoryID: 999, Title: "x", Address: "y", PricePerHourCents: cents(1)})
	assert.ErrorIs(t, err, service.ErrValidation)
}

type failingImages struct {
	service.ItemStore
}

func (failingImages) AddImages(context.Context, repository.DBTX, uint64, []model.ItemImage) ([]model.ItemImage, error) {
	return nil, errors.New("disk full")
}

func TestCreateItem_RollsBackOnImageFailure(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@x.io")
	store := f.store
	store.Items = failingImages{ItemStore: f.store.Items}

	_, err := service.NewCatalogService(store).Create(f.ctx, owner.ID, service.NewItem{
		CategoryID:        f.cat,
		Title:             "Kayak",
		PricePerHourCents: cents(100),
		Address:           "Lake",
		ImageURLs:         []string{"k.jpg"},
	})
	assert.ErrorIs(t, err, service.ErrInternal)

	mine, err := service.NewCatalogService(f.store).ListByOwner(f.ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestGetItem_NotFound(t *testing.T) {
	_, err := service.NewCatalogService(newFixture(t).store).Get(context.Background(), 12345)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestSetAvailability_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@x.io")
	other := f.user(t, "other@x.io")
	it := f.item(t, owner.ID, 0, 0)

	_, err := service.NewCatalogService(f.store).SetAvailability(f.ctx, it.ID, other.ID, false)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestCategories(t *testing.T) {
	f := newFixture(t)
	svc := service.NewCatalogService(f.store)

	parent := f.cat
	c, err := svc.CreateCategory(f.ctx, "Drills", &parent)
	require.NoError(t, err)
	assert.Equal(t, parent, *c.ParentID)

	_, err = svc.CreateCategory(f.ctx, "Drills", nil)
	assert.ErrorIs(t, err, service.ErrConflict)

	cats, err := svc.ListCategories(f.ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2)
}
