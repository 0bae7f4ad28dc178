package model

import "time"

// Conversation is the chat thread attached to an item.  There is at most
// one conversation per item.  ItemID becomes nil when the item is deleted
// while the conversation is kept.
//
// Fields:
//  ID        – primary key identifier.
//  ItemID    – item the thread is about (nullable, unique).
//  CreatedAt – creation timestamp.
//  UpdatedAt – time of the last appended message, or creation.
type Conversation struct {
    ID        uint64     // conversations.id
    ItemID    *uint64    // conversations.item_id (nullable)
    CreatedAt time.Time  // conversations.created_at
    UpdatedAt time.Time  // conversations.updated_at
}

// Participant is a user's membership record in a conversation.  The
// composite key is (ConversationID, UserID).  Only active participants
// may read or write messages.
type Participant struct {
    ConversationID uint64    // conversation_participants.conversation_id
    UserID         uint64    // conversation_participants.user_id
    JoinedAt       time.Time // conversation_participants.joined_at
    IsActive       bool      // conversation_participants.is_active
}

// Message types.
const (
    MessageText  = "text"
    MessageImage = "image"
    MessageFile  = "file"
)

// Message is one entry of a conversation's append-only log.
//
// Fields:
//  ID             – primary key identifier.
//  ConversationID – owning conversation.
//  SenderID       – user who sent the message.
//  Text           – message body; may be empty for attachments.
//  Type           – text, image or file.
//  AttachmentURL  – reference to the attachment for image/file messages.
//  IsRead         – whether a recipient has read the message.
//  ReadAt         – when it was read.
//  CreatedAt      – creation timestamp; defines the log order.
type Message struct {
    ID             uint64     // messages.id
    ConversationID uint64     // messages.conversation_id
    SenderID       uint64     // messages.sender_id
    Text           string     // messages.message_text
    Type           string     // messages.message_type
    AttachmentURL  *string    // messages.attachment_url (nullable)
    IsRead         bool       // messages.is_read
    ReadAt         *time.Time // messages.read_at (nullable)
    CreatedAt      time.Time  // messages.created_at
}
