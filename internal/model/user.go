// Package model defines the domain models.
package model

import "time"

// User is an account managed by the admin: coordinators, tutors, jury
// members and administrators themselves. Roles are stored in canonical
// prefixed form.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the role-bearing view of an authenticated user, as returned
// by GET /me. Roles are always canonical.
type Identity struct {
	UserID   string
	Username string
	Roles    []string
}

// ProfilePhoto holds a user's stored photo bytes and their mime type.
type ProfilePhoto struct {
	UserID string
	Data   []byte
	Mime   string
}
