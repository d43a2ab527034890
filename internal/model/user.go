package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// The refresh-token columns implement a single-active-session
// model: exactly one refresh token may be valid for a user at a
// time, and rotation replaces it via a compare-and-swap on the
// stored hash. A hash mismatch on rotation means the presented
// token was revoked by a newer login.
//
// Fields:
//  ID               – primary key identifier of the user.
//  Email            – unique email address.
//  PasswordHash     – bcrypt hashed password.
//  Name             – optional display name shown in the client.
//  Role             – role name (USER or ADMIN).
//  RefreshTokenHash – SHA‑256 hex digest of the current refresh token
//                     (null when logged out everywhere).
//  RefreshExpiresAt – expiry of the current refresh token (null when unset).
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type User struct {
	ID               uint64     // users.id
	Email            string     // users.email
	PasswordHash     string     // users.password_hash
	Name             *string    // users.name (nullable)
	Role             string     // users.role
	RefreshTokenHash *string    // users.refresh_token_hash (nullable)
	RefreshExpiresAt *time.Time // users.refresh_expires_at (nullable)
	CreatedAt        time.Time  // users.created_at
	UpdatedAt        time.Time  // users.updated_at
}
