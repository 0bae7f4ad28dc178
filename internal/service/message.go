package service

import (
    "context"
    "strings"
    "time"
    "unicode/utf8"

    "github.com/iliyamo/peer-rental/internal/model"
    "github.com/iliyamo/peer-rental/internal/repository"
)

// Paging bounds for List.
const (
    DefaultMessageLimit = 50
    MaxMessageLimit     = 100
    MaxMessageLength    = 4000
)

// NewMessage is the body of a message to append.  Type defaults to text.
type NewMessage struct {
    Text          string
    Type          string
    AttachmentURL *string
}

// MessageService appends to and pages through conversation logs.  Only
// active participants may do either.
type MessageService struct {
    store Store
    convs *ConversationService
    now   func() time.Time
}

func NewMessageService(store Store, convs *ConversationService) *MessageService {
    return &MessageService{store: store, convs: convs, now: func() time.Time { return time.Now().UTC() }}
}

func (in *NewMessage) validate() error {
    in.Text = strings.TrimSpace(in.Text)
    if in.Type == "" {
        in.Type = model.MessageText
    }
    if utf8.RuneCountInString(in.Text) > MaxMessageLength {
        return invalid("message is too long")
    }
    switch in.Type {
    case model.MessageText:
        if in.Text == "" {
            return invalid("message text is required")
        }
        in.AttachmentURL = nil
    case model.MessageImage, model.MessageFile:
        if in.AttachmentURL == nil || strings.TrimSpace(*in.AttachmentURL) == "" {
            return invalid("attachment_url is required for " + in.Type + " messages")
        }
    default:
        return invalid("message_type must be text, image or file")
    }
    return nil
}

// Append stores a message from senderID and moves the conversation's
// updated_at to the message time.  Both writes commit together.
func (s *MessageService) Append(ctx context.Context, conversationID, senderID uint64, in NewMessage) (*model.Message, error) {
    if err := in.validate(); err != nil {
        return nil, err
    }
    m := &model.Message{
        ConversationID: conversationID,
        SenderID:       senderID,
        Text:           in.Text,
        Type:           in.Type,
        AttachmentURL:  in.AttachmentURL,
        CreatedAt:      s.now(),
    }
    err := s.store.Tx.WithinTx(ctx, func(q repository.DBTX) error {
        if err := s.convs.requireParticipant(ctx, q, conversationID, senderID); err != nil {
            return err
        }
        if err := s.store.Messages.Create(ctx, q, m); err != nil {
            return err
        }
        return s.store.Conversations.Touch(ctx, q, conversationID, m.CreatedAt)
    })
    if err != nil {
        return nil, storeErr(err, "conversation not found")
    }
    return m, nil
}

// List returns messages of the conversation in chronological order.  A
// limit of zero selects the default page size.
func (s *MessageService) List(ctx context.Context, conversationID, userID uint64, limit, offset int) ([]model.Message, error) {
    if limit == 0 {
        limit = DefaultMessageLimit
    }
    if limit < 0 || limit > MaxMessageLimit {
        return nil, invalid("limit must be between 1 and 100")
    }
    if offset < 0 {
        return nil, invalid("offset must not be negative")
    }
    if err := s.convs.requireParticipant(ctx, nil, conversationID, userID); err != nil {
        return nil, err
    }
    msgs, err := s.store.Messages.ListByConversation(ctx, nil, conversationID, limit, offset)
    if err != nil {
        return nil, storeErr(err, "")
    }
    return msgs, nil
}

// MarkRead flags the messages other participants sent as read by userID
// and returns how many changed.
func (s *MessageService) MarkRead(ctx context.Context, conversationID, userID uint64) (int64, error) {
    if err := s.convs.requireParticipant(ctx, nil, conversationID, userID); err != nil {
        return 0, err
    }
    n, err := s.store.Messages.MarkRead(ctx, nil, conversationID, userID, s.now())
    if err != nil {
        return 0, storeErr(err, "")
    }
    return n, nil
}
