package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
)

// Session issues and resolves server-side sessions with a sliding idle timeout.
type Session struct {
	sessionStore model.SessionStore
	tokens       model.TokenManager
	idleTimeout  time.Duration
	logger       *logger.Logger
	now          func() time.Time
}

func NewSession(sessionStore model.SessionStore, tokens model.TokenManager, idleTimeout time.Duration, logger *logger.Logger) *Session {
	if idleTimeout <= 0 {
		idleTimeout = model.DefaultSessionIdleTimeout
	}
	return &Session{
		sessionStore: sessionStore,
		tokens:       tokens,
		idleTimeout:  idleTimeout,
		logger:       logger,
		now:          now,
	}
}

func (s *Session) IdleTimeout() time.Duration {
	return s.idleTimeout
}

// Start opens a session for identity and returns the token the client keeps.
func (s *Session) Start(ctx context.Context, identity model.Identity) (string, error) {
	startedAt := s.now()
	session := model.Session{
		ID:         uuid.New(),
		UserID:     identity.UserID,
		Username:   identity.Username,
		CreatedAt:  startedAt,
		LastSeenAt: startedAt,
	}

	if err := s.sessionStore.Create(ctx, session); err != nil {
		s.logger.Error("Session service: failed to create session",
			"user_id", identity.UserID,
			"error", err.Error())
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.tokens.GenerateSessionToken(session)
	if err != nil {
		_ = s.sessionStore.Delete(ctx, session.ID)
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}

	s.logger.Debug("Session service: session started",
		"user_id", identity.UserID,
		"session_id", session.ID)

	return token, nil
}

// Resolve returns the identity behind token and extends the session.
// Invalid, unknown and idle sessions fail with ErrAuth.
func (s *Session) Resolve(ctx context.Context, token string) (model.Identity, error) {
	sessionID, userID, err := s.tokens.ParseSessionToken(token)
	if err != nil {
		s.logger.Debug("Session service: rejected session token",
			"error", err.Error())
		return model.Identity{}, model.ErrAuth
	}

	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Identity{}, model.ErrAuth
		}
		return model.Identity{}, fmt.Errorf("failed to get session: %w", err)
	}
	if session.UserID != userID {
		s.logger.Warn("Session service: token subject does not match session",
			"session_id", sessionID)
		return model.Identity{}, model.ErrAuth
	}

	seenAt := s.now()
	if seenAt.Sub(session.LastSeenAt) > s.idleTimeout {
		if err := s.sessionStore.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("Session service: failed to delete expired session",
				"session_id", sessionID,
				"error", err.Error())
		}
		return model.Identity{}, model.ErrAuth
	}

	if err := s.sessionStore.Touch(ctx, sessionID, seenAt); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Identity{}, model.ErrAuth
		}
		return model.Identity{}, fmt.Errorf("failed to touch session: %w", err)
	}

	return session.Identity(), nil
}

// End deletes the session behind token. Unknown or malformed tokens are ignored.
func (s *Session) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	sessionID, _, err := s.tokens.ParseSessionToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessionStore.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PurgeExpired deletes sessions idle for longer than the timeout.
func (s *Session) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessionStore.DeleteIdleSince(ctx, s.now().Add(-s.idleTimeout))
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("Session service: purged expired sessions",
			"count", n)
	}
	return n, nil
}
