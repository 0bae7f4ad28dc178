package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/peer-rental/internal/model"
)

// UserRepo persists users and their credentials ('users' and 'user_auth').
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,full_name,phone,role,is_blocked,created_at,updated_at"

func scanUser(s scanner) (*model.User, error) {
	var (
		u     model.User
		phone sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Email, &u.FullName, &phone, &u.Role, &u.IsBlocked, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Phone = stringPtr(phone)
	return &u, nil
}

// Create inserts the user row and fills in its ID and timestamps.  A
// taken email or phone yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, q DBTX, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	id, err := insertID(ctx, conn(r.DB, q),
		"INSERT INTO users (email, full_name, phone, role) VALUES (?,?,?,?)",
		u.Email, u.FullName, nullString(u.Phone), u.Role)
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, q, id)
	if err != nil {
		return err
	}
	*u = *created
	return nil
}

// CreateAuth stores the password hash for an existing user.
func (r *UserRepo) CreateAuth(ctx context.Context, q DBTX, a model.UserAuth) error {
	_, err := conn(r.DB, q).ExecContext(ctx,
		"INSERT INTO user_auth (user_id, password_hash) VALUES (?,?)",
		a.UserID, a.PasswordHash)
	return translate(err)
}

// GetAuth returns the credentials of a user.
func (r *UserRepo) GetAuth(ctx context.Context, q DBTX, userID uint64) (model.UserAuth, error) {
	return queryOne(ctx, conn(r.DB, q), func(s scanner) (model.UserAuth, error) {
		var a model.UserAuth
		err := s.Scan(&a.UserID, &a.PasswordHash)
		return a, err
	}, "SELECT user_id,password_hash FROM user_auth WHERE user_id=? LIMIT 1", userID)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, q DBTX, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return queryOne(ctx, conn(r.DB, q), scanUser,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, q DBTX, id uint64) (*model.User, error) {
	return queryOne(ctx, conn(r.DB, q), scanUser,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}
