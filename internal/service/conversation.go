package service

import (
    "context"
    "errors"

    "github.com/iliyamo/peer-rental/internal/model"
    "github.com/iliyamo/peer-rental/internal/repository"
)

// ConversationService keeps one conversation per item and gates access
// to it by participant membership.
type ConversationService struct {
    store Store
}

func NewConversationService(store Store) *ConversationService {
    return &ConversationService{store: store}
}

// GetOrCreate returns the conversation of itemID, creating it with the
// given participants when none exists.  Participants are attached only on
// creation.  Two concurrent callers always end up with the same
// conversation: the loser of the insert race gets a duplicate key error,
// rolls back and re-reads the winner's row.
func (s *ConversationService) GetOrCreate(ctx context.Context, itemID uint64, participantIDs []uint64) (*model.Conversation, error) {
    conv, _, err := s.getOrCreate(ctx, itemID, participantIDs)
    return conv, err
}

func (s *ConversationService) getOrCreate(ctx context.Context, itemID uint64, participantIDs []uint64) (*model.Conversation, bool, error) {
    var (
        conv    *model.Conversation
        created bool
    )
    err := s.store.Tx.WithinTx(ctx, func(q repository.DBTX) error {
        c, err := s.store.Conversations.GetByItem(ctx, q, itemID)
        if err == nil {
            conv = c
            return nil
        }
        if !errors.Is(err, repository.ErrNotFound) {
            return err
        }
        c, err = s.store.Conversations.Create(ctx, q, itemID)
        if err != nil {
            return err
        }
        for _, uid := range uniqueIDs(participantIDs) {
            if err := s.store.Conversations.AddParticipant(ctx, q, c.ID, uid); err != nil {
                return err
            }
        }
        conv, created = c, true
        return nil
    })
    if errors.Is(err, repository.ErrDuplicate) {
        conv, err = s.store.Conversations.GetByItem(ctx, nil, itemID)
        if err != nil {
            return nil, false, storeErr(err, "conversation not found")
        }
        return conv, false, nil
    }
    if err != nil {
        return nil, false, internal("get or create conversation", err)
    }
    return conv, created, nil
}

// Start opens the conversation about itemID for userID.  A new
// conversation gets the user and the item owner as participants; when the
// conversation already exists the user is (re)joined as an active
// participant.
func (s *ConversationService) Start(ctx context.Context, itemID, userID uint64) (*model.Conversation, error) {
    it, err := s.store.Items.GetByID(ctx, nil, itemID)
    if err != nil {
        return nil, storeErr(err, "item not found")
    }
    conv, created, err := s.getOrCreate(ctx, itemID, []uint64{userID, it.OwnerID})
    if err != nil {
        return nil, err
    }
    if !created {
        if err := s.store.Conversations.AddParticipant(ctx, nil, conv.ID, userID); err != nil {
            return nil, storeErr(err, "conversation not found")
        }
    }
    return conv, nil
}

// ListForUser returns the conversations in which userID is an active
// participant, most recently updated first.
func (s *ConversationService) ListForUser(ctx context.Context, userID uint64) ([]model.Conversation, error) {
    convs, err := s.store.Conversations.ListForUser(ctx, nil, userID)
    if err != nil {
        return nil, storeErr(err, "")
    }
    return convs, nil
}

// AuthorizeParticipant reports whether userID is an active participant.
func (s *ConversationService) AuthorizeParticipant(ctx context.Context, conversationID, userID uint64) (bool, error) {
    ok, err := s.store.Conversations.IsActiveParticipant(ctx, nil, conversationID, userID)
    if err != nil {
        return false, storeErr(err, "")
    }
    return ok, nil
}

// Participants lists the members of a conversation.  The caller must be
// an active participant.
func (s *ConversationService) Participants(ctx context.Context, conversationID, userID uint64) ([]model.Participant, error) {
    if err := s.requireParticipant(ctx, nil, conversationID, userID); err != nil {
        return nil, err
    }
    ps, err := s.store.Conversations.Participants(ctx, nil, conversationID)
    if err != nil {
        return nil, storeErr(err, "")
    }
    return ps, nil
}

// Leave deactivates the membership of userID.  The history is kept and
// the user can rejoin through Start.
func (s *ConversationService) Leave(ctx context.Context, conversationID, userID uint64) error {
    if err := s.requireParticipant(ctx, nil, conversationID, userID); err != nil {
        return err
    }
    if err := s.store.Conversations.SetParticipantActive(ctx, nil, conversationID, userID, false); err != nil {
        return storeErr(err, "conversation not found")
    }
    return nil
}

// requireParticipant returns NotFound for an unknown conversation and
// Forbidden when userID is not an active member.
func (s *ConversationService) requireParticipant(ctx context.Context, q repository.DBTX, conversationID, userID uint64) error {
    if _, err := s.store.Conversations.GetByID(ctx, q, conversationID); err != nil {
        return storeErr(err, "conversation not found")
    }
    ok, err := s.store.Conversations.IsActiveParticipant(ctx, q, conversationID, userID)
    if err != nil {
        return storeErr(err, "")
    }
    if !ok {
        return forbidden("not a participant of this conversation")
    }
    return nil
}

func uniqueIDs(ids []uint64) []uint64 {
    seen := make(map[uint64]bool, len(ids))
    out := make([]uint64, 0, len(ids))
    for _, id := range ids {
        if id == 0 || seen[id] {
            continue
        }
        seen[id] = true
        out = append(out, id)
    }
    return out
}
