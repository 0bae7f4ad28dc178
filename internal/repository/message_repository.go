package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/peer-rental/internal/model"
)

// MessageRepo appends to and reads the messages table.  Messages are
// never updated except for their read state.
type MessageRepo struct {
    db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

const messageColumns = `id, conversation_id, sender_id, message_text, message_type, attachment_url, is_read, read_at, created_at`

func scanMessage(s scanner) (model.Message, error) {
    var (
        m          model.Message
        attachment sql.NullString
        readAt     sql.NullTime
    )
    err := s.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Text, &m.Type, &attachment, &m.IsRead, &readAt, &m.CreatedAt)
    if err != nil {
        return m, err
    }
    m.AttachmentURL = stringPtr(attachment)
    m.ReadAt = timePtr(readAt)
    return m, nil
}

// Create inserts a message and populates ID and CreatedAt.  The caller
// supplies CreatedAt so the conversation can be touched with the same value.
func (r *MessageRepo) Create(ctx context.Context, q DBTX, m *model.Message) error {
    id, err := insertID(ctx, conn(r.db, q),
        `INSERT INTO messages (conversation_id, sender_id, message_text, message_type, attachment_url, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
        m.ConversationID, m.SenderID, m.Text, m.Type, nullString(m.AttachmentURL), m.CreatedAt)
    if err != nil {
        return err
    }
    m.ID = id
    m.IsRead = false
    m.ReadAt = nil
    return nil
}

// ListByConversation returns a page of messages in chronological order.
func (r *MessageRepo) ListByConversation(ctx context.Context, q DBTX, conversationID uint64, limit, offset int) ([]model.Message, error) {
    return queryMany(ctx, conn(r.db, q), scanMessage,
        `SELECT `+messageColumns+` FROM messages WHERE conversation_id = ?
         ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`, conversationID, limit, offset)
}

// MarkRead flags as read every unread message of the conversation not
// sent by readerID and returns how many rows changed.
func (r *MessageRepo) MarkRead(ctx context.Context, q DBTX, conversationID, readerID uint64, at time.Time) (int64, error) {
    res, err := conn(r.db, q).ExecContext(ctx,
        `UPDATE messages SET is_read = TRUE, read_at = ?
         WHERE conversation_id = ? AND sender_id <> ? AND is_read = FALSE`, at, conversationID, readerID)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}
