package model

import (
	"context"
	"time"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	// GetForUpdate reads the user and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	UpdateProfile(ctx context.Context, id int64, description, avatar string, updatedAt time.Time) (User, error)
}

// User represents a stored user with its password hash.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Description  string
	// Avatar is the avatar file name in the avatar storage, empty when unset.
	Avatar    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID   int64
	Username string
}

// Profile is the user-visible part of a user.
type Profile struct {
	UserID      int64
	Username    string
	Description string
	Avatar      string
}

// ProfileOf builds the Profile view of user.
func ProfileOf(user User) Profile {
	return Profile{
		UserID:      user.ID,
		Username:    user.Username,
		Description: user.Description,
		Avatar:      user.Avatar,
	}
}
