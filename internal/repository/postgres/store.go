package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dtroode/vibenotes-server/internal/model"
)

var _ model.Database = (*Store)(nil)

// Store hands out repositories bound either to the pool or to a transaction.
type Store struct {
	db   *sql.DB
	dbtx DBTX
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:   db,
		dbtx: db,
	}
}

func (s *Store) Users() model.UserStore {
	return NewUserRepository(s.dbtx)
}

func (s *Store) Notes() model.NoteStore {
	return NewNoteRepository(s.dbtx)
}

func (s *Store) Attachments() model.AttachmentStore {
	return NewAttachmentRepository(s.dbtx)
}

func (s *Store) Sessions() model.SessionStore {
	return NewSessionRepository(s.dbtx)
}

// WithinTx runs fn inside a transaction. Repositories passed to fn share it.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos model.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &Store{db: s.db, dbtx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
