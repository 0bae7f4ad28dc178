package memory

import (
	"context"
	"strings"

	"github.com/iliyamo/peer-rental/internal/model"
	"github.com/iliyamo/peer-rental/internal/repository"
)

// UserStore keeps users and credentials.  Email and phone are unique.
type UserStore struct{ db *DB }

func (s *UserStore) Create(ctx context.Context, q repository.DBTX, u *model.User) error {
	defer s.db.enter(q)()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.db.t.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
		if u.Phone != nil && existing.Phone != nil && *u.Phone == *existing.Phone {
			return repository.ErrDuplicate
		}
	}
	now := s.db.Now()
	u.ID = s.db.nextID()
	u.CreatedAt, u.UpdatedAt = now, now
	s.db.t.users[u.ID] = *u
	return nil
}

func (s *UserStore) CreateAuth(ctx context.Context, q repository.DBTX, a model.UserAuth) error {
	defer s.db.enter(q)()
	if _, ok := s.db.t.users[a.UserID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.db.t.auth[a.UserID]; ok {
		return repository.ErrDuplicate
	}
	s.db.t.auth[a.UserID] = a
	return nil
}

func (s *UserStore) GetAuth(ctx context.Context, q repository.DBTX, userID uint64) (model.UserAuth, error) {
	defer s.db.enter(q)()
	a, ok := s.db.t.auth[userID]
	if !ok {
		return model.UserAuth{}, repository.ErrNotFound
	}
	return a, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, q repository.DBTX, email string) (*model.User, error) {
	defer s.db.enter(q)()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.db.t.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) GetByID(ctx context.Context, q repository.DBTX, id uint64) (*model.User, error) {
	defer s.db.enter(q)()
	u, ok := s.db.t.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// TokenStore keeps refresh tokens keyed by hash.
type TokenStore struct{ db *DB }

func (s *TokenStore) Create(ctx context.Context, q repository.DBTX, t *model.RefreshToken) error {
	defer s.db.enter(q)()
	if _, ok := s.db.t.tokens[t.TokenHash]; ok {
		return repository.ErrDuplicate
	}
	t.ID = s.db.nextID()
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.RevokedAt = nil
	t.CreatedAt = s.db.Now()
	s.db.t.tokens[t.TokenHash] = *t
	return nil
}

func (s *TokenStore) GetActive(ctx context.Context, q repository.DBTX, tokenHash string) (*model.RefreshToken, error) {
	defer s.db.enter(q)()
	t, ok := s.db.t.tokens[tokenHash]
	if !ok || t.RevokedAt != nil || !t.ExpiresAt.After(s.db.Now()) {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (s *TokenStore) Revoke(ctx context.Context, q repository.DBTX, tokenHash string) error {
	defer s.db.enter(q)()
	t, ok := s.db.t.tokens[tokenHash]
	if !ok || t.RevokedAt != nil {
		return repository.ErrNotFound
	}
	now := s.db.Now()
	t.RevokedAt = &now
	s.db.t.tokens[tokenHash] = t
	return nil
}

func (s *TokenStore) RevokeAllForUser(ctx context.Context, q repository.DBTX, userID uint64) error {
	defer s.db.enter(q)()
	now := s.db.Now()
	for k, t := range s.db.t.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			s.db.t.tokens[k] = t
		}
	}
	return nil
}
