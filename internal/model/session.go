package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionIdleTimeout is the inactivity period after which a session expires.
const DefaultSessionIdleTimeout = 30 * time.Minute

// SessionStore persists authenticated browser sessions.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, id uuid.UUID) (Session, error)
	Touch(ctx context.Context, id uuid.UUID, lastSeenAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteIdleSince(ctx context.Context, before time.Time) (int64, error)
}

// Session associates a client with one authenticated user.
type Session struct {
	ID         uuid.UUID
	UserID     int64
	Username   string
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// Identity returns the identity the session authenticates.
func (s Session) Identity() Identity {
	return Identity{UserID: s.UserID, Username: s.Username}
}
