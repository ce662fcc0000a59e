package core

import (
	"context"
	"errors"
)

var (
	ErrConflictedUser = errors.New("user already exists")
)

// User is a credential record as held by the credential store.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	// DisplayName is empty when the user has none.
	DisplayName string
}

// PublicUser is the projection of a User that may leave the server.
type PublicUser struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Name     *string `json:"name"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Name:     optional(u.DisplayName),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// UserStore looks up credential records.
// GetUserByUsername returns a nil user and a nil error when no record matches.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}
