package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/peer-rental/internal/model"
)

// ConversationRepo provides data access to conversations and
// conversation_participants.  The UNIQUE key on conversations.item_id
// guarantees one thread per item; Create reports a lost race as
// ErrDuplicate.
type ConversationRepo struct {
    db *sql.DB
}

// NewConversationRepo returns a new ConversationRepo bound to db.
func NewConversationRepo(db *sql.DB) *ConversationRepo { return &ConversationRepo{db: db} }

func scanConversation(s scanner) (model.Conversation, error) {
    var (
        c      model.Conversation
        itemID sql.NullInt64
    )
    if err := s.Scan(&c.ID, &itemID, &c.CreatedAt, &c.UpdatedAt); err != nil {
        return c, err
    }
    c.ItemID = uint64Ptr(itemID)
    return c, nil
}

func scanParticipant(s scanner) (model.Participant, error) {
    var p model.Participant
    err := s.Scan(&p.ConversationID, &p.UserID, &p.JoinedAt, &p.IsActive)
    return p, err
}

// GetByID returns a conversation or ErrNotFound.
func (r *ConversationRepo) GetByID(ctx context.Context, q DBTX, id uint64) (*model.Conversation, error) {
    c, err := queryOne(ctx, conn(r.db, q), scanConversation,
        `SELECT id, item_id, created_at, updated_at FROM conversations WHERE id = ?`, id)
    if err != nil {
        return nil, err
    }
    return &c, nil
}

// GetByItem returns the conversation attached to itemID or ErrNotFound.
func (r *ConversationRepo) GetByItem(ctx context.Context, q DBTX, itemID uint64) (*model.Conversation, error) {
    c, err := queryOne(ctx, conn(r.db, q), scanConversation,
        `SELECT id, item_id, created_at, updated_at FROM conversations WHERE item_id = ?`, itemID)
    if err != nil {
        return nil, err
    }
    return &c, nil
}

// Create inserts a conversation for itemID.  ErrDuplicate means another
// request created it first.
func (r *ConversationRepo) Create(ctx context.Context, q DBTX, itemID uint64) (*model.Conversation, error) {
    id, err := insertID(ctx, conn(r.db, q), `INSERT INTO conversations (item_id) VALUES (?)`, itemID)
    if err != nil {
        return nil, err
    }
    return r.GetByID(ctx, q, id)
}

// AddParticipant inserts an active membership, reactivating an existing
// inactive one.
func (r *ConversationRepo) AddParticipant(ctx context.Context, q DBTX, conversationID, userID uint64) error {
    _, err := conn(r.db, q).ExecContext(ctx,
        `INSERT INTO conversation_participants (conversation_id, user_id, is_active) VALUES (?, ?, TRUE)
         ON DUPLICATE KEY UPDATE is_active = TRUE`, conversationID, userID)
    return err
}

// SetParticipantActive updates the membership flag.  ErrNotFound is
// returned when the user never joined the conversation.
func (r *ConversationRepo) SetParticipantActive(ctx context.Context, q DBTX, conversationID, userID uint64, active bool) error {
    var exists uint64
    err := conn(r.db, q).QueryRowContext(ctx,
        `SELECT user_id FROM conversation_participants WHERE conversation_id = ? AND user_id = ?`,
        conversationID, userID).Scan(&exists)
    if err != nil {
        return translate(err)
    }
    _, err = conn(r.db, q).ExecContext(ctx,
        `UPDATE conversation_participants SET is_active = ? WHERE conversation_id = ? AND user_id = ?`,
        active, conversationID, userID)
    return err
}

// IsActiveParticipant reports whether userID is an active member.
func (r *ConversationRepo) IsActiveParticipant(ctx context.Context, q DBTX, conversationID, userID uint64) (bool, error) {
    var n int
    err := conn(r.db, q).QueryRowContext(ctx,
        `SELECT COUNT(*) FROM conversation_participants
         WHERE conversation_id = ? AND user_id = ? AND is_active = TRUE`,
        conversationID, userID).Scan(&n)
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// Participants lists the members of a conversation, active or not.
func (r *ConversationRepo) Participants(ctx context.Context, q DBTX, conversationID uint64) ([]model.Participant, error) {
    return queryMany(ctx, conn(r.db, q), scanParticipant,
        `SELECT conversation_id, user_id, joined_at, is_active FROM conversation_participants
         WHERE conversation_id = ? ORDER BY joined_at, user_id`, conversationID)
}

// ListForUser returns the conversations in which userID is an active
// participant, most recently updated first.
func (r *ConversationRepo) ListForUser(ctx context.Context, q DBTX, userID uint64) ([]model.Conversation, error) {
    return queryMany(ctx, conn(r.db, q), scanConversation,
        `SELECT c.id, c.item_id, c.created_at, c.updated_at
         FROM conversations c
         JOIN conversation_participants p ON p.conversation_id = c.id
         WHERE p.user_id = ? AND p.is_active = TRUE
         ORDER BY c.updated_at DESC, c.id DESC`, userID)
}

// Touch sets updated_at of a conversation.
func (r *ConversationRepo) Touch(ctx context.Context, q DBTX, conversationID uint64, at time.Time) error {
    _, err := conn(r.db, q).ExecContext(ctx,
        `UPDATE conversations SET updated_at = ? WHERE id = ?`, at, conversationID)
    return err
}
