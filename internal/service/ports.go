package service

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/peer-rental/internal/model"
    "github.com/iliyamo/peer-rental/internal/queue"
    "github.com/iliyamo/peer-rental/internal/repository"
    "github.com/iliyamo/peer-rental/internal/repository/memory"
)

// The store interfaces below are implemented by the MySQL repositories
// in internal/repository and by the in-memory store in
// internal/repository/memory.  Every method takes a repository.DBTX:
// nil outside a transaction, the handle given by Transactor.WithinTx
// inside one.

// Transactor runs fn inside a single storage transaction.
type Transactor interface {
    WithinTx(ctx context.Context, fn func(q repository.DBTX) error) error
}

type UserStore interface {
    Create(ctx context.Context, q repository.DBTX, u *model.User) error
    CreateAuth(ctx context.Context, q repository.DBTX, a model.UserAuth) error
    GetAuth(ctx context.Context, q repository.DBTX, userID uint64) (model.UserAuth, error)
    GetByEmail(ctx context.Context, q repository.DBTX, email string) (*model.User, error)
    GetByID(ctx context.Context, q repository.DBTX, id uint64) (*model.User, error)
}

type TokenStore interface {
    Create(ctx context.Context, q repository.DBTX, t *model.RefreshToken) error
    GetActive(ctx context.Context, q repository.DBTX, tokenHash string) (*model.RefreshToken, error)
    Revoke(ctx context.Context, q repository.DBTX, tokenHash string) error
    RevokeAllForUser(ctx context.Context, q repository.DBTX, userID uint64) error
}

type ItemStore interface {
    Create(ctx context.Context, q repository.DBTX, it *model.Item) error
    AddImages(ctx context.Context, q repository.DBTX, itemID uint64, images []model.ItemImage) ([]model.ItemImage, error)
    GetByID(ctx context.Context, q repository.DBTX, id uint64) (*model.Item, error)
    ListByOwner(ctx context.Context, q repository.DBTX, ownerID uint64) ([]model.Item, error)
    SearchNear(ctx context.Context, q repository.DBTX, box model.BoundingBox) ([]model.Item, error)
    SetAvailability(ctx context.Context, q repository.DBTX, id uint64, available bool) error
}

type CategoryStore interface {
    List(ctx context.Context, q repository.DBTX) ([]model.Category, error)
    GetByID(ctx context.Context, q repository.DBTX, id uint64) (*model.Category, error)
    Create(ctx context.Context, q repository.DBTX, c *model.Category) error
}

type ConversationStore interface {
    GetByID(ctx context.Context, q repository.DBTX, id uint64) (*model.Conversation, error)
    GetByItem(ctx context.Context, q repository.DBTX, itemID uint64) (*model.Conversation, error)
    Create(ctx context.Context, q repository.DBTX, itemID uint64) (*model.Conversation, error)
    AddParticipant(ctx context.Context, q repository.DBTX, conversationID, userID uint64) error
    SetParticipantActive(ctx context.Context, q repository.DBTX, conversationID, userID uint64, active bool) error
    IsActiveParticipant(ctx context.Context, q repository.DBTX, conversationID, userID uint64) (bool, error)
    Participants(ctx context.Context, q repository.DBTX, conversationID uint64) ([]model.Participant, error)
    ListForUser(ctx context.Context, q repository.DBTX, userID uint64) ([]model.Conversation, error)
    Touch(ctx context.Context, q repository.DBTX, conversationID uint64, at time.Time) error
}

type MessageStore interface {
    Create(ctx context.Context, q repository.DBTX, m *model.Message) error
    ListByConversation(ctx context.Context, q repository.DBTX, conversationID uint64, limit, offset int) ([]model.Message, error)
    MarkRead(ctx context.Context, q repository.DBTX, conversationID, readerID uint64, at time.Time) (int64, error)
}

type RentalStore interface {
    Create(ctx context.Context, q repository.DBTX, r *model.Rental) error
    GetByID(ctx context.Context, q repository.DBTX, id uint64) (*model.Rental, error)
    GetForUpdate(ctx context.Context, q repository.DBTX, id uint64) (*model.Rental, error)
    UpdateState(ctx context.Context, q repository.DBTX, r *model.Rental) error
    ListForUser(ctx context.Context, q repository.DBTX, userID uint64, statuses ...string) ([]model.Rental, error)
}

type ReviewStore interface {
    Create(ctx context.Context, q repository.DBTX, rv *model.Review) error
    ExistsForRental(ctx context.Context, q repository.DBTX, rentalID uint64) (bool, error)
    ListForRecipient(ctx context.Context, q repository.DBTX, userID uint64) ([]model.Review, error)
    Summary(ctx context.Context, q repository.DBTX, userID uint64) (model.RatingSummary, error)
}

// EventPublisher receives lifecycle events after the owning transaction
// has committed.
type EventPublisher interface {
    PublishRentalConfirmed(ctx context.Context, ev queue.RentalConfirmedEvent) error
}

// Store bundles the storage dependencies of all services.
type Store struct {
    Tx            Transactor
    Users         UserStore
    Tokens        TokenStore
    Items         ItemStore
    Categories    CategoryStore
    Conversations ConversationStore
    Messages      MessageStore
    Rentals       RentalStore
    Reviews       ReviewStore
}

// NewMySQLStore wires the MySQL repositories around db.
func NewMySQLStore(db *sql.DB) Store {
    return Store{
        Tx:            repository.NewTransactor(db),
        Users:         repository.NewUserRepo(db),
        Tokens:        repository.NewTokenRepo(db),
        Items:         repository.NewItemRepo(db),
        Categories:    repository.NewCategoryRepo(db),
        Conversations: repository.NewConversationRepo(db),
        Messages:      repository.NewMessageRepo(db),
        Rentals:       repository.NewRentalRepo(db),
        Reviews:       repository.NewReviewRepo(db),
    }
}

// NewMemoryStore wires the in-memory stores of db.
func NewMemoryStore(db *memory.DB) Store {
    return Store{
        Tx:            db,
        Users:         db.Users(),
        Tokens:        db.Tokens(),
        Items:         db.Items(),
        Categories:    db.Categories(),
        Conversations: db.Conversations(),
        Messages:      db.Messages(),
        Rentals:       db.Rentals(),
        Reviews:       db.Reviews(),
    }
}
