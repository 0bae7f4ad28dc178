package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/peer-rental/internal/model"
)

// CategoryRepo reads and writes the categories table.
type CategoryRepo struct {
    db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func scanCategory(s scanner) (model.Category, error) {
    var (
        c      model.Category
        parent sql.NullInt64
    )
    if err := s.Scan(&c.ID, &c.Name, &parent); err != nil {
        return c, err
    }
    c.ParentID = uint64Ptr(parent)
    return c, nil
}

// List returns every category ordered by name.
func (r *CategoryRepo) List(ctx context.Context, q DBTX) ([]model.Category, error) {
    return queryMany(ctx, conn(r.db, q), scanCategory, `SELECT id, name, parent_id FROM categories ORDER BY name, id`)
}

// GetByID returns a category or ErrNotFound.
func (r *CategoryRepo) GetByID(ctx context.Context, q DBTX, id uint64) (*model.Category, error) {
    c, err := queryOne(ctx, conn(r.db, q), scanCategory, `SELECT id, name, parent_id FROM categories WHERE id = ?`, id)
    if err != nil {
        return nil, err
    }
    return &c, nil
}

// Create inserts a category.  A duplicate name yields ErrDuplicate.
func (r *CategoryRepo) Create(ctx context.Context, q DBTX, c *model.Category) error {
    id, err := insertID(ctx, conn(r.db, q), `INSERT INTO categories (name, parent_id) VALUES (?, ?)`,
        c.Name, nullUint64(c.ParentID))
    if err != nil {
        return err
    }
    c.ID = id
    return nil
}
