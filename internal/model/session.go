package model

import "time"

// Session is an issued bearer token. The ID is the opaque token value the
// client presents in the Authorization header.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PasswordResetToken is a one-shot token for the forgot-password flow.
// Only its hash is persisted.
type PasswordResetToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
