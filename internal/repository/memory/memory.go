// Package memory provides in-process implementations of the storage ports
// for local runs (STORAGE_DRIVER=memory) and tests.  All tables live in a
// single DB guarded by one mutex; a transaction holds the mutex for its
// whole duration and restores a snapshot of every table when it fails.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/peer-rental/internal/model"
	"github.com/iliyamo/peer-rental/internal/repository"
)

// ErrRawSQL is returned by the DBTX methods of a memory transaction handle.
var ErrRawSQL = errors.New("memory: raw SQL is not supported")

type participantKey struct {
	conversationID uint64
	userID         uint64
}

type tables struct {
	users         map[uint64]model.User
	auth          map[uint64]model.UserAuth
	tokens        map[string]model.RefreshToken
	categories    map[uint64]model.Category
	items         map[uint64]model.Item
	conversations map[uint64]model.Conversation
	participants  map[participantKey]model.Participant
	messages      map[uint64]model.Message
	rentals       map[uint64]model.Rental
	reviews       map[uint64]model.Review
	seq           uint64
}

func newTables() tables {
	return tables{
		users:         make(map[uint64]model.User),
		auth:          make(map[uint64]model.UserAuth),
		tokens:        make(map[string]model.RefreshToken),
		categories:    make(map[uint64]model.Category),
		items:         make(map[uint64]model.Item),
		conversations: make(map[uint64]model.Conversation),
		participants:  make(map[participantKey]model.Participant),
		messages:      make(map[uint64]model.Message),
		rentals:       make(map[uint64]model.Rental),
		reviews:       make(map[uint64]model.Review),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copies every table.  Item images are the only slice-valued field
// mutated in place, so they are copied explicitly.
func (t tables) clone() tables {
	items := make(map[uint64]model.Item, len(t.items))
	for k, v := range t.items {
		v.Images = append([]model.ItemImage(nil), v.Images...)
		items[k] = v
	}
	return tables{
		users:         cloneMap(t.users),
		auth:          cloneMap(t.auth),
		tokens:        cloneMap(t.tokens),
		categories:    cloneMap(t.categories),
		items:         items,
		conversations: cloneMap(t.conversations),
		participants:  cloneMap(t.participants),
		messages:      cloneMap(t.messages),
		rentals:       cloneMap(t.rentals),
		reviews:       cloneMap(t.reviews),
		seq:           t.seq,
	}
}

// DB is the in-memory database.  The zero value is not usable; call New.
type DB struct {
	mu  sync.Mutex
	t   tables
	Now func() time.Time
}

// New returns an empty database.
func New() *DB {
	return &DB{t: newTables(), Now: func() time.Time { return time.Now().UTC() }}
}

// txHandle marks store calls made inside WithinTx.  It satisfies
// repository.DBTX so it can flow through the same store signatures as a
// *sql.Tx, but it cannot run SQL.
type txHandle struct{ db *DB }

func (txHandle) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, ErrRawSQL
}

func (txHandle) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, ErrRawSQL
}

func (txHandle) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

// WithinTx runs fn while holding the database lock.  When fn fails or
// panics every table is restored to its state before the call.
func (db *DB) WithinTx(ctx context.Context, fn func(q repository.DBTX) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	snapshot := db.t.clone()
	committed := false
	defer func() {
		if !committed {
			db.t = snapshot
		}
	}()
	if err := fn(txHandle{db: db}); err != nil {
		return err
	}
	committed = true
	return nil
}

// enter acquires the lock unless q is a transaction handle of this
// database, which already holds it.  The returned func releases it.
func (db *DB) enter(q repository.DBTX) func() {
	if h, ok := q.(txHandle); ok && h.db == db {
		return func() {}
	}
	db.mu.Lock()
	return db.mu.Unlock
}

func (db *DB) nextID() uint64 {
	db.t.seq++
	return db.t.seq
}

// Users returns the user store view of db.
func (db *DB) Users() *UserStore { return &UserStore{db: db} }

// Tokens returns the refresh token store view of db.
func (db *DB) Tokens() *TokenStore { return &TokenStore{db: db} }

// Items returns the item store view of db.
func (db *DB) Items() *ItemStore { return &ItemStore{db: db} }

// Categories returns the category store view of db.
func (db *DB) Categories() *CategoryStore { return &CategoryStore{db: db} }

// Conversations returns the conversation store view of db.
func (db *DB) Conversations() *ConversationStore { return &ConversationStore{db: db} }

// Messages returns the message store view of db.
func (db *DB) Messages() *MessageStore { return &MessageStore{db: db} }

// Rentals returns the rental store view of db.
func (db *DB) Rentals() *RentalStore { return &RentalStore{db: db} }

// Reviews returns the review store view of db.
func (db *DB) Reviews() *ReviewStore { return &ReviewStore{db: db} }
