package model

import "time"

// Roles carried in the access token's "role" claim.  Every registered
// account is a USER and can act both as an owner and as a tenant; ADMIN
// additionally maintains the category tree.
const (
    RoleUser  = "USER"
    RoleAdmin = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table.  The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID        – primary key identifier of the user.
//  Email     – unique, lower-cased email address.
//  FullName  – display name shown next to listings and reviews.
//  Phone     – optional unique phone number.
//  Role      – USER or ADMIN.
//  IsBlocked – blocked accounts cannot log in.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type User struct {
    ID        uint64    // users.id
    Email     string    // users.email
    FullName  string    // users.full_name
    Phone     *string   // users.phone (nullable)
    Role      string    // users.role
    IsBlocked bool      // users.is_blocked
    CreatedAt time.Time // users.created_at
    UpdatedAt time.Time // users.updated_at
}

// UserAuth holds the credentials of a user in the `user_auth` table.  It
// is created in the same transaction as the User row so a user without
// credentials is never observable.
type UserAuth struct {
    UserID       uint64 // user_auth.user_id
    PasswordHash string // user_auth.password_hash (bcrypt)
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
