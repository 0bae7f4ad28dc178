package service

import (
    "context"
    "errors"
    "net/mail"
    "strings"
    "time"

    "github.com/iliyamo/peer-rental/internal/model"
    "github.com/iliyamo/peer-rental/internal/repository"
    "github.com/iliyamo/peer-rental/internal/utils"
)

// ErrUnauthenticated is returned for bad credentials and refresh tokens.
var ErrUnauthenticated = errors.New("unauthenticated")

// AuthSettings configures token issuance and password hashing.
type AuthSettings struct {
    Secret         string
    AccessTTL      time.Duration
    RefreshTTLDays int
    BcryptCost     int
}

// Session is a freshly issued token pair.
type Session struct {
    User    *model.User
    Access  utils.AccessToken
    Refresh utils.RefreshToken
}

// Registration is the input of AccountService.Register.
type Registration struct {
    Email    string
    Password string
    FullName string
    Phone    *string
}

// AccountService registers users and manages their sessions.
type AccountService struct {
    store Store
    auth  AuthSettings
}

func NewAccountService(store Store, auth AuthSettings) *AccountService {
    return &AccountService{store: store, auth: auth}
}

// Register creates a USER account and its credentials atomically and
// returns a new session.
func (s *AccountService) Register(ctx context.Context, in Registration) (*Session, error) {
    email := strings.ToLower(strings.TrimSpace(in.Email))
    if _, err := mail.ParseAddress(email); err != nil || email == "" {
        return nil, invalid("a valid email is required")
    }
    fullName := strings.TrimSpace(in.FullName)
    if fullName == "" {
        return nil, invalid("full_name is required")
    }
    if err := utils.CheckPassword(in.Password); err != nil {
        return nil, invalid(err.Error())
    }
    hash, err := utils.HashPassword(in.Password, s.auth.BcryptCost)
    if err != nil {
        return nil, internal("hash password", err)
    }

    u := &model.User{Email: email, FullName: fullName, Phone: in.Phone, Role: model.RoleUser}
    err = s.store.Tx.WithinTx(ctx, func(q repository.DBTX) error {
        if err := s.store.Users.Create(ctx, q, u); err != nil {
            return err
        }
        return s.store.Users.CreateAuth(ctx, q, model.UserAuth{UserID: u.ID, PasswordHash: hash})
    })
    if errors.Is(err, repository.ErrDuplicate) {
        return nil, conflict("email or phone already registered")
    }
    if err != nil {
        return nil, internal("create user", err)
    }
    return s.issue(ctx, nil, u)
}

// Login verifies the password and returns a new session.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
    u, err := s.store.Users.GetByEmail(ctx, nil, email)
    if errors.Is(err, repository.ErrNotFound) {
        return nil, ErrUnauthenticated
    }
    if err != nil {
        return nil, internal("load user", err)
    }
    a, err := s.store.Users.GetAuth(ctx, nil, u.ID)
    if errors.Is(err, repository.ErrNotFound) {
        return nil, ErrUnauthenticated
    }
    if err != nil {
        return nil, internal("load credentials", err)
    }
    if !utils.VerifyPassword(a.PasswordHash, password) {
        return nil, ErrUnauthenticated
    }
    if u.IsBlocked {
        return nil, forbidden("account is blocked")
    }
    return s.issue(ctx, nil, u)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued in the same transaction.  A token can be rotated once;
// a concurrent second use finds nothing to revoke and is rejected.
func (s *AccountService) Refresh(ctx context.Context, raw string) (*Session, error) {
    hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
    var sess *Session
    err := s.store.Tx.WithinTx(ctx, func(q repository.DBTX) error {
        tok, err := s.store.Tokens.GetActive(ctx, q, hash)
        if err != nil {
            return err
        }
        if err := s.store.Tokens.Revoke(ctx, q, hash); err != nil {
            return err
        }
        u, err := s.store.Users.GetByID(ctx, q, tok.UserID)
        if err != nil {
            return err
        }
        if u.IsBlocked {
            return forbidden("account is blocked")
        }
        sess, err = s.issue(ctx, q, u)
        return err
    })
    if errors.Is(err, repository.ErrNotFound) {
        return nil, ErrUnauthenticated
    }
    if err != nil {
        return nil, storeErr(err, "")
    }
    return sess, nil
}

// Logout revokes one refresh token when raw is set, otherwise every
// token of userID.
func (s *AccountService) Logout(ctx context.Context, userID uint64, raw string) error {
    raw = strings.TrimSpace(raw)
    if raw != "" {
        err := s.store.Tokens.Revoke(ctx, nil, utils.HashRefreshRaw(raw))
        if errors.Is(err, repository.ErrNotFound) {
            return ErrUnauthenticated
        }
        if err != nil {
            return internal("revoke refresh", err)
        }
        return nil
    }
    if userID == 0 {
        return ErrUnauthenticated
    }
    if err := s.store.Tokens.RevokeAllForUser(ctx, nil, userID); err != nil {
        return internal("revoke refresh", err)
    }
    return nil
}

// GetUser returns a user profile.
func (s *AccountService) GetUser(ctx context.Context, userID uint64) (*model.User, error) {
    u, err := s.store.Users.GetByID(ctx, nil, userID)
    if err != nil {
        return nil, storeErr(err, "user not found")
    }
    return u, nil
}

func (s *AccountService) issue(ctx context.Context, q repository.DBTX, u *model.User) (*Session, error) {
    access, err := utils.NewAccessToken(s.auth.Secret, u.ID, u.Role, s.auth.AccessTTL)
    if err != nil {
        return nil, internal("issue access", err)
    }
    refresh, err := utils.NewRefreshToken(s.auth.RefreshTTLDays)
    if err != nil {
        return nil, internal("issue refresh", err)
    }
    row := &model.RefreshToken{UserID: u.ID, TokenHash: utils.HashRefreshRaw(refresh.Raw), ExpiresAt: refresh.Exp}
    if err := s.store.Tokens.Create(ctx, q, row); err != nil {
        return nil, internal("save refresh", err)
    }
    return &Session{User: u, Access: access, Refresh: refresh}, nil
}
