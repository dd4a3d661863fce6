package model

import "time"

// User represents an application user record as stored in the
// `users` table. Accounts start inactive; an activation token is
// e-mailed at registration and IsActive flips to true once the
// token is consumed. Users referenced by orders are deactivated
// rather than deleted.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – name of the role (CUSTOMER or ADMIN).
//  IsActive     – whether the account has been activated.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// ActivationToken models a row in the `activation_tokens` table.
// The raw token is mailed to the user; only its SHA-256 hash is
// stored. Tokens are single-use and expire.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – account the token activates.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  CreatedAt – timestamp of creation.
type ActivationToken struct {
	ID        uint64    // activation_tokens.id
	UserID    uint64    // activation_tokens.user_id
	TokenHash string    // activation_tokens.token_hash
	ExpiresAt time.Time // activation_tokens.expires_at
	CreatedAt time.Time // activation_tokens.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
