package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/peer-rental/internal/model"
	"github.com/iliyamo/peer-rental/internal/queue"
	"github.com/iliyamo/peer-rental/internal/repository/memory"
	"github.com/iliyamo/peer-rental/internal/service"
)

type fixture struct {
	ctx   context.Context
	db    *memory.DB
	store service.Store
	cat   uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	f := &fixture{ctx: context.Background(), db: db, store: service.NewMemoryStore(db)}
	c := &model.Category{Name: "Tools"}
	require.NoError(t, f.store.Categories.Create(f.ctx, nil, c))
	f.cat = c.ID
	return f
}

func (f *fixture) user(t *testing.T, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, FullName: email, Role: model.RoleUser}
	require.NoError(t, f.store.Users.Create(f.ctx, nil, u))
	return u
}

func cents(v int64) *int64 { return &v }

// item publishes an available item at (lat, lon) with hourly 10 and daily
// 100 cents.
func (f *fixture) item(t *testing.T, ownerID uint64, lat, lon float64) *model.Item {
	t.Helper()
	it, err := service.NewCatalogService(f.store).Create(f.ctx, ownerID, service.NewItem{
		CategoryID:        f.cat,
		Title:             "Drill",
		PricePerHourCents: cents(10),
		PricePerDayCents:  cents(100),
		Address:           "1 Main St",
		Latitude:          lat,
		Longitude:         lon,
	})
	require.NoError(t, err)
	return it
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.RentalConfirmedEvent
}

func (p *recordingPublisher) PublishRentalConfirmed(_ context.Context, ev queue.RentalConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}
