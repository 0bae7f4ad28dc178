package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/peer-rental/internal/model"
)

// TokenRepo persists refresh tokens.  Only the SHA-256 of the raw token
// is stored, in the unique 'token_hash' column.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

const tokenColumns = "id,user_id,token_hash,expires_at,revoked_at,created_at"

func scanToken(s scanner) (*model.RefreshToken, error) {
	var (
		t         model.RefreshToken
		revokedAt sql.NullTime
	)
	if err := s.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &revokedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.RevokedAt = timePtr(revokedAt)
	return &t, nil
}

// Create inserts a refresh token row and fills in its ID.
func (r *TokenRepo) Create(ctx context.Context, q DBTX, t *model.RefreshToken) error {
	id, err := insertID(ctx, conn(r.DB, q),
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		t.UserID, t.TokenHash, t.ExpiresAt.UTC())
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// GetActive returns the token with tokenHash when it is neither revoked
// nor expired.  Unknown, revoked and expired tokens all yield ErrNotFound.
func (r *TokenRepo) GetActive(ctx context.Context, q DBTX, tokenHash string) (*model.RefreshToken, error) {
	return queryOne(ctx, conn(r.DB, q), scanToken,
		"SELECT "+tokenColumns+" FROM refresh_tokens"+
			" WHERE token_hash=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP() LIMIT 1",
		tokenHash)
}

// Revoke marks one active token as revoked.  ErrNotFound means nothing
// was revoked: the token is unknown or was revoked already.
func (r *TokenRepo) Revoke(ctx context.Context, q DBTX, tokenHash string) error {
	return execAffected(ctx, conn(r.DB, q),
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
}

// RevokeAllForUser revokes all user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, q DBTX, userID uint64) error {
	_, err := conn(r.DB, q).ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
