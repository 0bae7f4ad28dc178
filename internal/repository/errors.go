// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// service package to distinguish a missing row from a unique key
// violation without inspecting driver errors themselves. Any other error
// returned by a repository is an infrastructure failure.
package repository

import (
    "database/sql"
    "errors"
    "fmt"

    "github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.  It
// wraps sql.ErrNoRows so callers checking either value keep working.
var ErrNotFound = fmt.Errorf("not found: %w", sql.ErrNoRows)

// ErrDuplicate is returned when an insert violates a unique key, such
// as a second conversation for the same item or a second review for
// the same rental.
var ErrDuplicate = errors.New("duplicate key")

// mysqlDuplicateEntry is the server error number for ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// IsDuplicateKey reports whether err is a MySQL duplicate entry error.
func IsDuplicateKey(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
    switch {
    case err == nil:
        return nil
    case errors.Is(err, sql.ErrNoRows):
        return ErrNotFound
    case IsDuplicateKey(err):
        return fmt.Errorf("%w: %v", ErrDuplicate, err)
    default:
        return err
    }
}
