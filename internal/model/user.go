package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
// A user carries at most one live refresh token at any time: issuing
// a new one overwrites the previous hash and expiry in place.
//
// Fields:
//  ID                    – primary key identifier of the user.
//  FullName              – display name of the user.
//  Email                 – unique, lowercased email address.
//  PasswordHash          – bcrypt hashed password.
//  Role                  – closed role enumeration (see role.go).
//  Phone                 – contact phone number (may be empty).
//  RefreshTokenHash      – SHA‑256 hex digest of the live refresh token (nullable).
//  RefreshTokenExpiresAt – absolute expiry of the live refresh token (nullable).
//  IsActive              – whether the account is active.
//  CreatedAt             – timestamp of creation.
//  UpdatedAt             – timestamp of last update.
type User struct {
	ID                    uint64     // users.id
	FullName              string     // users.full_name
	Email                 string     // users.email
	PasswordHash          string     // users.password_hash
	Role                  Role       // users.role
	Phone                 string     // users.phone
	RefreshTokenHash      *string    // users.refresh_token_hash (nullable)
	RefreshTokenExpiresAt *time.Time // users.refresh_token_expires_at (nullable)
	IsActive              bool       // users.is_active
	CreatedAt             time.Time  // users.created_at
	UpdatedAt             time.Time  // users.updated_at
}
