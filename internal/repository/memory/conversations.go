package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/peer-rental/internal/model"
	"github.com/iliyamo/peer-rental/internal/repository"
)

// ConversationStore keeps conversations and their participants.  At most
// one conversation exists per item.
type ConversationStore struct{ db *DB }

func (s *ConversationStore) GetByID(ctx context.Context, q repository.DBTX, id uint64) (*model.Conversation, error) {
	defer s.db.enter(q)()
	c, ok := s.db.t.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *ConversationStore) GetByItem(ctx context.Context, q repository.DBTX, itemID uint64) (*model.Conversation, error) {
	defer s.db.enter(q)()
	if c, ok := s.byItem(itemID); ok {
		return &c, nil
	}
	return nil, repository.ErrNotFound
}

func (s *ConversationStore) byItem(itemID uint64) (model.Conversation, bool) {
	for _, c := range s.db.t.conversations {
		if c.ItemID != nil && *c.ItemID == itemID {
			return c, true
		}
	}
	return model.Conversation{}, false
}

func (s *ConversationStore) Create(ctx context.Context, q repository.DBTX, itemID uint64) (*model.Conversation, error) {
	defer s.db.enter(q)()
	if _, ok := s.byItem(itemID); ok {
		return nil, repository.ErrDuplicate
	}
	now := s.db.Now()
	id := itemID
	c := model.Conversation{ID: s.db.nextID(), ItemID: &id, CreatedAt: now, UpdatedAt: now}
	s.db.t.conversations[c.ID] = c
	return &c, nil
}

func (s *ConversationStore) AddParticipant(ctx context.Context, q repository.DBTX, conversationID, userID uint64) error {
	defer s.db.enter(q)()
	if _, ok := s.db.t.conversations[conversationID]; !ok {
		return repository.ErrNotFound
	}
	key := participantKey{conversationID, userID}
	p, ok := s.db.t.participants[key]
	if !ok {
		p = model.Participant{ConversationID: conversationID, UserID: userID, JoinedAt: s.db.Now()}
	}
	p.IsActive = true
	s.db.t.participants[key] = p
	return nil
}

func (s *ConversationStore) SetParticipantActive(ctx context.Context, q repository.DBTX, conversationID, userID uint64, active bool) error {
	defer s.db.enter(q)()
	key := participantKey{conversationID, userID}
	p, ok := s.db.t.participants[key]
	if !ok {
		return repository.ErrNotFound
	}
	p.IsActive = active
	s.db.t.participants[key] = p
	return nil
}

func (s *ConversationStore) IsActiveParticipant(ctx context.Context, q repository.DBTX, conversationID, userID uint64) (bool, error) {
	defer s.db.enter(q)()
	p, ok := s.db.t.participants[participantKey{conversationID, userID}]
	return ok && p.IsActive, nil
}

func (s *ConversationStore) Participants(ctx context.Context, q repository.DBTX, conversationID uint64) ([]model.Participant, error) {
	defer s.db.enter(q)()
	out := make([]model.Participant, 0)
	for k, p := range s.db.t.participants {
		if k.conversationID == conversationID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *ConversationStore) ListForUser(ctx context.Context, q repository.DBTX, userID uint64) ([]model.Conversation, error) {
	defer s.db.enter(q)()
	out := make([]model.Conversation, 0)
	for k, p := range s.db.t.participants {
		if k.userID != userID || !p.IsActive {
			continue
		}
		if c, ok := s.db.t.conversations[k.conversationID]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *ConversationStore) Touch(ctx context.Context, q repository.DBTX, conversationID uint64, at time.Time) error {
	defer s.db.enter(q)()
	c, ok := s.db.t.conversations[conversationID]
	if !ok {
		return repository.ErrNotFound
	}
	c.UpdatedAt = at
	s.db.t.conversations[conversationID] = c
	return nil
}

// MessageStore keeps the append-only message log.
type MessageStore struct{ db *DB }

func (s *MessageStore) Create(ctx context.Context, q repository.DBTX, m *model.Message) error {
	defer s.db.enter(q)()
	if _, ok := s.db.t.conversations[m.ConversationID]; !ok {
		return repository.ErrNotFound
	}
	m.ID = s.db.nextID()
	m.IsRead = false
	m.ReadAt = nil
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.db.Now()
	}
	s.db.t.messages[m.ID] = *m
	return nil
}

func (s *MessageStore) ListByConversation(ctx context.Context, q repository.DBTX, conversationID uint64, limit, offset int) ([]model.Message, error) {
	defer s.db.enter(q)()
	all := make([]model.Message, 0)
	for _, m := range s.db.t.messages {
		if m.ConversationID == conversationID {
			all = append(all, m)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	if offset >= len(all) {
		return []model.Message{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *MessageStore) MarkRead(ctx context.Context, q repository.DBTX, conversationID, readerID uint64, at time.Time) (int64, error) {
	defer s.db.enter(q)()
	var n int64
	for id, m := range s.db.t.messages {
		if m.ConversationID != conversationID || m.SenderID == readerID || m.IsRead {
			continue
		}
		readAt := at
		m.IsRead = true
		m.ReadAt = &readAt
		s.db.t.messages[id] = m
		n++
	}
	return n, nil
}
