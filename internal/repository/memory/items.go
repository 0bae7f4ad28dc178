package memory

import (
	"context"
	"sort"

	"github.com/iliyamo/peer-rental/internal/model"
	"github.com/iliyamo/peer-rental/internal/repository"
)

// ItemStore keeps items and their images.
type ItemStore struct{ db *DB }

func (s *ItemStore) Create(ctx context.Context, q repository.DBTX, it *model.Item) error {
	defer s.db.enter(q)()
	now := s.db.Now()
	it.ID = s.db.nextID()
	it.CreatedAt, it.UpdatedAt = now, now
	stored := *it
	stored.Images = []model.ItemImage{}
	s.db.t.items[it.ID] = stored
	return nil
}

func (s *ItemStore) AddImages(ctx context.Context, q repository.DBTX, itemID uint64, images []model.ItemImage) ([]model.ItemImage, error) {
	defer s.db.enter(q)()
	it, ok := s.db.t.items[itemID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := make([]model.ItemImage, len(images))
	for i, img := range images {
		img.ID = s.db.nextID()
		img.ItemID = itemID
		out[i] = img
	}
	it.Images = append(append([]model.ItemImage(nil), it.Images...), out...)
	sortImages(it.Images)
	s.db.t.items[itemID] = it
	return out, nil
}

func (s *ItemStore) GetByID(ctx context.Context, q repository.DBTX, id uint64) (*model.Item, error) {
	defer s.db.enter(q)()
	it, ok := s.db.t.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	it = copyItem(it)
	return &it, nil
}

func (s *ItemStore) ListByOwner(ctx context.Context, q repository.DBTX, ownerID uint64) ([]model.Item, error) {
	defer s.db.enter(q)()
	return s.filter(func(it model.Item) bool { return it.OwnerID == ownerID }), nil
}

func (s *ItemStore) SearchNear(ctx context.Context, q repository.DBTX, box model.BoundingBox) ([]model.Item, error) {
	defer s.db.enter(q)()
	return s.filter(func(it model.Item) bool {
		return it.IsAvailable && box.Contains(it.Latitude, it.Longitude)
	}), nil
}

func (s *ItemStore) SetAvailability(ctx context.Context, q repository.DBTX, id uint64, available bool) error {
	defer s.db.enter(q)()
	it, ok := s.db.t.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	it.IsAvailable = available
	it.UpdatedAt = s.db.Now()
	s.db.t.items[id] = it
	return nil
}

// filter returns copies of the matching items ordered by id.  The caller
// holds the lock.
func (s *ItemStore) filter(match func(model.Item) bool) []model.Item {
	out := make([]model.Item, 0)
	for _, it := range s.db.t.items {
		if match(it) {
			out = append(out, copyItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func copyItem(it model.Item) model.Item {
	it.Images = append([]model.ItemImage{}, it.Images...)
	return it
}

func sortImages(imgs []model.ItemImage) {
	sort.SliceStable(imgs, func(i, j int) bool {
		if imgs[i].OrderIndex != imgs[j].OrderIndex {
			return imgs[i].OrderIndex < imgs[j].OrderIndex
		}
		return imgs[i].ID < imgs[j].ID
	})
}

// CategoryStore keeps the category tree.  Names are unique.
type CategoryStore struct{ db *DB }

func (s *CategoryStore) List(ctx context.Context, q repository.DBTX) ([]model.Category, error) {
	defer s.db.enter(q)()
	out := make([]model.Category, 0, len(s.db.t.categories))
	for _, c := range s.db.t.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *CategoryStore) GetByID(ctx context.Context, q repository.DBTX, id uint64) (*model.Category, error) {
	defer s.db.enter(q)()
	c, ok := s.db.t.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *CategoryStore) Create(ctx context.Context, q repository.DBTX, c *model.Category) error {
	defer s.db.enter(q)()
	for _, existing := range s.db.t.categories {
		if existing.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	c.ID = s.db.nextID()
	s.db.t.categories[c.ID] = *c
	return nil
}
