package repository

import (
    "context"
    "database/sql"
    "time"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by the repositories.
// Every store method takes one so the same code runs inside or outside
// a transaction.  A nil DBTX means "use the pool".
type DBTX interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns q, or db when the caller is not inside a transaction.
func conn(db *sql.DB, q DBTX) DBTX {
    if q == nil {
        return db
    }
    return q
}

// Transactor runs a function inside a database transaction.
type Transactor struct {
    DB *sql.DB
}

// NewTransactor returns a Transactor bound to db.
func NewTransactor(db *sql.DB) *Transactor { return &Transactor{DB: db} }

// WithinTx begins a transaction, passes it to fn and commits when fn
// returns nil.  Any error from fn, or a panic, rolls the transaction back.
func (t *Transactor) WithinTx(ctx context.Context, fn func(q DBTX) error) error {
    tx, err := t.DB.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(tx); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
    Scan(dest ...any) error
}

// queryOne runs a single-row query and scans it with scan.
func queryOne[T any](ctx context.Context, q DBTX, scan func(scanner) (T, error), query string, args ...any) (T, error) {
    v, err := scan(q.QueryRowContext(ctx, query, args...))
    if err != nil {
        var zero T
        return zero, translate(err)
    }
    return v, nil
}

// queryMany runs a query and scans every row with scan.  It never
// returns a nil slice on success.
func queryMany[T any](ctx context.Context, q DBTX, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
    rows, err := q.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]T, 0)
    for rows.Next() {
        v, err := scan(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, v)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// insertID executes an INSERT and returns the generated id.
func insertID(ctx context.Context, q DBTX, query string, args ...any) (uint64, error) {
    res, err := q.ExecContext(ctx, query, args...)
    if err != nil {
        return 0, translate(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// execAffected executes a statement and returns ErrNotFound when no
// row was affected.
func execAffected(ctx context.Context, q DBTX, query string, args ...any) error {
    res, err := q.ExecContext(ctx, query, args...)
    if err != nil {
        return translate(err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}

func nullString(p *string) sql.NullString {
    if p == nil {
        return sql.NullString{}
    }
    return sql.NullString{String: *p, Valid: true}
}

func nullInt64(p *int64) sql.NullInt64 {
    if p == nil {
        return sql.NullInt64{}
    }
    return sql.NullInt64{Int64: *p, Valid: true}
}

func nullUint64(p *uint64) sql.NullInt64 {
    if p == nil {
        return sql.NullInt64{}
    }
    return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
    if !ns.Valid {
        return nil
    }
    s := ns.String
    return &s
}

func int64Ptr(ni sql.NullInt64) *int64 {
    if !ni.Valid {
        return nil
    }
    v := ni.Int64
    return &v
}

func uint64Ptr(ni sql.NullInt64) *uint64 {
    if !ni.Valid {
        return nil
    }
    v := uint64(ni.Int64)
    return &v
}

func timePtr(nt sql.NullTime) *time.Time {
    if !nt.Valid {
        return nil
    }
    t := nt.Time
    return &t
}
