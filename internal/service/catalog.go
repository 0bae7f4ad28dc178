package service

import (
    "context"
    "errors"
    "strings"

    "github.com/iliyamo/peer-rental/internal/model"
    "github.com/iliyamo/peer-rental/internal/repository"
)

// NewItem is the input of CatalogService.Create.
type NewItem struct {
    CategoryID        uint64
    Title             string
    Description       *string
    PricePerHourCents *int64
    PricePerDayCents  *int64
    Address           string
    Latitude          float64
    Longitude         float64
    ImageURLs         []string
}

// CatalogService answers item queries: proximity search, lookup by id and
// by owner.  It also lets owners publish items and toggle their
// availability, and maintains the category list.
type CatalogService struct {
    store Store
}

func NewCatalogService(store Store) *CatalogService { return &CatalogService{store: store} }

// SearchNear returns the available items inside the square of half-side
// radiusKm/111 degrees around (lat, lon), edges included, ordered by id.
// The API narrows the radius further; see model.ValidateSearchRadius.
func (s *CatalogService) SearchNear(ctx context.Context, lat, lon, radiusKm float64) ([]model.Item, error) {
    if err := model.ValidateCoordinates(lat, lon); err != nil {
        return nil, invalid(err.Error())
    }
    if !(radiusKm > 0) {
        return nil, invalid(model.ErrRadiusPositive.Error())
    }
    items, err := s.store.Items.SearchNear(ctx, nil, model.NewBoundingBox(lat, lon, radiusKm))
    if err != nil {
        return nil, storeErr(err, "")
    }
    return items, nil
}

// Get returns an item with its images.
func (s *CatalogService) Get(ctx context.Context, itemID uint64) (*model.Item, error) {
    it, err := s.store.Items.GetByID(ctx, nil, itemID)
    if err != nil {
        return nil, storeErr(err, "item not found")
    }
    return it, nil
}

// ListByOwner returns every item of ownerID, including unavailable ones.
func (s *CatalogService) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Item, error) {
    items, err := s.store.Items.ListByOwner(ctx, nil, ownerID)
    if err != nil {
        return nil, storeErr(err, "")
    }
    return items, nil
}

// Create stores a new available item and its images in one transaction.
func (s *CatalogService) Create(ctx context.Context, ownerID uint64, in NewItem) (*model.Item, error) {
    in.Title = strings.TrimSpace(in.Title)
    in.Address = strings.TrimSpace(in.Address)
    switch {
    case in.Title == "":
        return nil, invalid("title is required")
    case in.Address == "":
        return nil, invalid("address is required")
    case in.PricePerHourCents == nil && in.PricePerDayCents == nil:
        return nil, invalid("price_per_hour or price_per_day is required")
    case in.PricePerHourCents != nil && *in.PricePerHourCents < 0,
        in.PricePerDayCents != nil && *in.PricePerDayCents < 0:
        return nil, invalid("prices must not be negative")
    }
    if err := model.ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
        return nil, invalid(err.Error())
    }
    if _, err := s.store.Categories.GetByID(ctx, nil, in.CategoryID); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, invalid("unknown category")
        }
        return nil, storeErr(err, "")
    }

    it := &model.Item{
        OwnerID:           ownerID,
        CategoryID:        in.CategoryID,
        Title:             in.Title,
        Description:       in.Description,
        PricePerHourCents: in.PricePerHourCents,
        PricePerDayCents:  in.PricePerDayCents,
        Address:           in.Address,
        Latitude:          in.Latitude,
        Longitude:         in.Longitude,
        IsAvailable:       true,
    }
    images := make([]model.ItemImage, 0, len(in.ImageURLs))
    for i, url := range in.ImageURLs {
        url = strings.TrimSpace(url)
        if url == "" {
            return nil, invalid("image url must not be empty")
        }
        images = append(images, model.ItemImage{ImageURL: url, OrderIndex: i})
    }

    err := s.store.Tx.WithinTx(ctx, func(q repository.DBTX) error {
        if err := s.store.Items.Create(ctx, q, it); err != nil {
            return err
        }
        saved, err := s.store.Items.AddImages(ctx, q, it.ID, images)
        if err != nil {
            return err
        }
        it.Images = saved
        return nil
    })
    if err != nil {
        return nil, internal("create item", err)
    }
    return it, nil
}

// SetAvailability toggles whether new rentals can be created for the
// item.  Only the owner may change it.
func (s *CatalogService) SetAvailability(ctx context.Context, itemID, actorID uint64, available bool) (*model.Item, error) {
    it, err := s.store.Items.GetByID(ctx, nil, itemID)
    if err != nil {
        return nil, storeErr(err, "item not found")
    }
    if it.OwnerID != actorID {
        return nil, forbidden("only the owner can change availability")
    }
    if err := s.store.Items.SetAvailability(ctx, nil, itemID, available); err != nil {
        return nil, storeErr(err, "item not found")
    }
    it.IsAvailable = available
    return it, nil
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
    cats, err := s.store.Categories.List(ctx, nil)
    if err != nil {
        return nil, storeErr(err, "")
    }
    return cats, nil
}

// CreateCategory adds a category, optionally under parentID.
func (s *CatalogService) CreateCategory(ctx context.Context, name string, parentID *uint64) (*model.Category, error) {
    name = strings.TrimSpace(name)
    if name == "" {
        return nil, invalid("name is required")
    }
    if parentID != nil {
        if _, err := s.store.Categories.GetByID(ctx, nil, *parentID); err != nil {
            if errors.Is(err, repository.ErrNotFound) {
                return nil, invalid("unknown parent category")
            }
            return nil, storeErr(err, "")
        }
    }
    c := &model.Category{Name: name, ParentID: parentID}
    if err := s.store.Categories.Create(ctx, nil, c); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            return nil, conflict("category already exists")
        }
        return nil, storeErr(err, "")
    }
    return c, nil
}
