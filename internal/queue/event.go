// Package queue defines the audit events exchanged over the message broker
// and the background consumer that records them.
package queue

// Auth event actions.
const (
	ActionRegister = "register"
	ActionLogin    = "login"
	ActionSignOut  = "signout"
)

// AuthEvent is published on every registration, login and sign-out. It
// carries enough for downstream audit logging without querying the primary
// database. Tokens and password material are never part of the payload.
type AuthEvent struct {
	UserID     uint64 `json:"user_id"`
	Email      string `json:"email"`
	Action     string `json:"action"`
	OccurredAt string `json:"occurred_at"`
}
