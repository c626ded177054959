package model

import (
	"database/sql"
	"time"
)

// User represents a row in the `users` table. PasswordHash and
// RefreshTokenHash are derived values that must never be serialized outward;
// handlers build separate response types. RoleID is nullable and the schema
// uses ON DELETE SET NULL, so a user survives deletion of its role.
// RefreshTokenHash is null whenever the user has no active session.
type User struct {
	ID               uint64         // users.id
	Email            string         // users.email (unique)
	FirstName        sql.NullString // users.first_name
	LastName         sql.NullString // users.last_name
	Avatar           sql.NullString // users.avatar (stored filename)
	PasswordHash     string         // users.password_hash
	RefreshTokenHash sql.NullString // users.refresh_token_hash (SHA-256 hex)
	RoleID           sql.NullInt64  // users.role_id (nullable FK to roles.id)
	CreatedAt        time.Time      // users.created_at
	UpdatedAt        time.Time      // users.updated_at
}

// Role is a named permission bundle. Permissions are attached through the
// `role_permission` join table; deleting a role cascades the join rows but
// never the users referencing it.
type Role struct {
	ID          uint64       // roles.id
	Name        string       // roles.name (unique)
	Permissions []Permission // loaded via role_permission when requested
	CreatedAt   time.Time    // roles.created_at
	UpdatedAt   time.Time    // roles.updated_at
}

// Permission is an atomic capability. Name follows the `{verb}_{resource}`
// convention with verb in {view, edit}; this convention is the entire
// authorization mechanism, there is no separate rule engine.
type Permission struct {
	ID        uint64    // permissions.id
	Name      string    // permissions.name
	CreatedAt time.Time // permissions.created_at
}
