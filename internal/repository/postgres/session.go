package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/vibenotes-server/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{
		db: db,
	}
}

func (r *SessionRepository) Create(ctx context.Context, session model.Session) error {
	const query = `INSERT INTO sessions (id, user_id, username, created_at, last_seen_at)
				   VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.Username, session.CreatedAt, session.LastSeenAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrConflict
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Session, error) {
	const query = `SELECT id, user_id, username, created_at, last_seen_at FROM sessions WHERE id = $1`

	var session model.Session
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.UserID, &session.Username, &session.CreatedAt, &session.LastSeenAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

func (r *SessionRepository) Touch(ctx context.Context, id uuid.UUID, lastSeenAt time.Time) error {
	const query = `UPDATE sessions SET last_seen_at = GREATEST(last_seen_at, $2) WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, lastSeenAt)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	return requireAffected(res)
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM sessions WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// DeleteIdleSince removes sessions last seen before the given instant.
func (r *SessionRepository) DeleteIdleSince(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE last_seen_at < $1`

	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return n, nil
}
