package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/peer-rental/internal/model"
)

// ItemRepo provides data access to the items and item_images tables.
// Images are loaded together with the item on single-item reads and in a
// second query for list reads.
type ItemRepo struct {
    db *sql.DB
}

// NewItemRepo returns a new ItemRepo bound to the given database.
func NewItemRepo(db *sql.DB) *ItemRepo { return &ItemRepo{db: db} }

const itemColumns = `id, owner_id, category_id, title, description, price_per_hour_cents,
    price_per_day_cents, address, latitude, longitude, is_available, created_at, updated_at`

func scanItem(s scanner) (model.Item, error) {
    var (
        it          model.Item
        description sql.NullString
        hourly      sql.NullInt64
        daily       sql.NullInt64
    )
    err := s.Scan(&it.ID, &it.OwnerID, &it.CategoryID, &it.Title, &description, &hourly,
        &daily, &it.Address, &it.Latitude, &it.Longitude, &it.IsAvailable, &it.CreatedAt, &it.UpdatedAt)
    if err != nil {
        return it, err
    }
    it.Description = stringPtr(description)
    it.PricePerHourCents = int64Ptr(hourly)
    it.PricePerDayCents = int64Ptr(daily)
    return it, nil
}

func scanImage(s scanner) (model.ItemImage, error) {
    var img model.ItemImage
    err := s.Scan(&img.ID, &img.ItemID, &img.ImageURL, &img.OrderIndex)
    return img, err
}

// Create inserts the item row and populates its ID and timestamps.  Images
// on the item are ignored; use AddImages within the same transaction.
func (r *ItemRepo) Create(ctx context.Context, q DBTX, it *model.Item) error {
    const ins = `INSERT INTO items (owner_id, category_id, title, description, price_per_hour_cents,
        price_per_day_cents, address, latitude, longitude, is_available)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    id, err := insertID(ctx, conn(r.db, q), ins,
        it.OwnerID, it.CategoryID, it.Title, nullString(it.Description), nullInt64(it.PricePerHourCents),
        nullInt64(it.PricePerDayCents), it.Address, it.Latitude, it.Longitude, it.IsAvailable)
    if err != nil {
        return err
    }
    row, err := queryOne(ctx, conn(r.db, q), scanItem, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
    if err != nil {
        return err
    }
    row.Images = it.Images
    *it = row
    return nil
}

// AddImages inserts the given images for itemID in a single statement and
// returns them with their generated IDs.  MySQL assigns consecutive ids
// to a multi-row insert, starting at LastInsertId.
func (r *ItemRepo) AddImages(ctx context.Context, q DBTX, itemID uint64, images []model.ItemImage) ([]model.ItemImage, error) {
    if len(images) == 0 {
        return []model.ItemImage{}, nil
    }
    var sb strings.Builder
    sb.WriteString(`INSERT INTO item_images (item_id, image_url, order_index) VALUES `)
    args := make([]any, 0, len(images)*3)
    for i, img := range images {
        if i > 0 {
            sb.WriteString(",")
        }
        sb.WriteString("(?, ?, ?)")
        args = append(args, itemID, img.ImageURL, img.OrderIndex)
    }
    firstID, err := insertID(ctx, conn(r.db, q), sb.String(), args...)
    if err != nil {
        return nil, err
    }
    out := make([]model.ItemImage, len(images))
    for i, img := range images {
        img.ID = firstID + uint64(i)
        img.ItemID = itemID
        out[i] = img
    }
    return out, nil
}

// GetByID returns the item with its images or ErrNotFound.
func (r *ItemRepo) GetByID(ctx context.Context, q DBTX, id uint64) (*model.Item, error) {
    it, err := queryOne(ctx, conn(r.db, q), scanItem, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
    if err != nil {
        return nil, err
    }
    imgs, err := queryMany(ctx, conn(r.db, q), scanImage,
        `SELECT id, item_id, image_url, order_index FROM item_images WHERE item_id = ? ORDER BY order_index, id`, id)
    if err != nil {
        return nil, err
    }
    it.Images = imgs
    return &it, nil
}

// ListByOwner returns all items of an owner, available or not, ordered by id.
func (r *ItemRepo) ListByOwner(ctx context.Context, q DBTX, ownerID uint64) ([]model.Item, error) {
    items, err := queryMany(ctx, conn(r.db, q), scanItem,
        `SELECT `+itemColumns+` FROM items WHERE owner_id = ? ORDER BY id`, ownerID)
    if err != nil {
        return nil, err
    }
    return items, r.attachImages(ctx, conn(r.db, q), items)
}

// SearchNear returns available items whose coordinates fall inside box,
// edges included, ordered by id.
func (r *ItemRepo) SearchNear(ctx context.Context, q DBTX, box model.BoundingBox) ([]model.Item, error) {
    const sel = `SELECT ` + itemColumns + ` FROM items
        WHERE is_available = TRUE
          AND latitude BETWEEN ? AND ?
          AND longitude BETWEEN ? AND ?
        ORDER BY id`
    items, err := queryMany(ctx, conn(r.db, q), scanItem, sel, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
    if err != nil {
        return nil, err
    }
    return items, r.attachImages(ctx, conn(r.db, q), items)
}

// SetAvailability flips the is_available flag.  ErrNotFound is returned
// when the item does not exist.
func (r *ItemRepo) SetAvailability(ctx context.Context, q DBTX, id uint64, available bool) error {
    // Select first: MySQL reports zero affected rows when the value is unchanged.
    var exists uint64
    if err := conn(r.db, q).QueryRowContext(ctx, `SELECT id FROM items WHERE id = ?`, id).Scan(&exists); err != nil {
        return translate(err)
    }
    _, err := conn(r.db, q).ExecContext(ctx,
        `UPDATE items SET is_available = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, available, id)
    return err
}

// attachImages loads the images of all items with one IN query.
func (r *ItemRepo) attachImages(ctx context.Context, q DBTX, items []model.Item) error {
    if len(items) == 0 {
        return nil
    }
    placeholders := make([]string, len(items))
    args := make([]any, len(items))
    index := make(map[uint64]int, len(items))
    for i, it := range items {
        placeholders[i] = "?"
        args[i] = it.ID
        index[it.ID] = i
        items[i].Images = []model.ItemImage{}
    }
    imgs, err := queryMany(ctx, q, scanImage,
        `SELECT id, item_id, image_url, order_index FROM item_images WHERE item_id IN (`+
            strings.Join(placeholders, ",")+`) ORDER BY item_id, order_index, id`, args...)
    if err != nil {
        return err
    }
    for _, img := range imgs {
        i := index[img.ItemID]
        items[i].Images = append(items[i].Images, img)
    }
    return nil
}
