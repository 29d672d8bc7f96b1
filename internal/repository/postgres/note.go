package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dtroode/vibenotes-server/internal/model"
)

var _ model.NoteStore = (*NoteRepository)(nil)

const noteColumns = `id, user_id, title, content, created_at, updated_at`

type NoteRepository struct {
	db DBTX
}

func NewNoteRepository(db DBTX) *NoteRepository {
	return &NoteRepository{
		db: db,
	}
}

func (r *NoteRepository) Create(ctx context.Context, note model.Note) (model.Note, error) {
	query := `INSERT INTO notes (user_id, title, content, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + noteColumns

	saved, err := scanNote(r.db.QueryRowContext(ctx, query,
		note.UserID, note.Title, note.Content, note.CreatedAt, note.UpdatedAt,
	))
	if err != nil {
		return model.Note{}, fmt.Errorf("failed to create note: %w", err)
	}

	return saved, nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id int64) (model.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`

	note, err := scanNote(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Note{}, model.ErrNotFound
		}
		return model.Note{}, fmt.Errorf("failed to get note: %w", err)
	}

	return note, nil
}

// GetForUpdate must run inside a transaction to hold the lock.
func (r *NoteRepository) GetForUpdate(ctx context.Context, id int64) (model.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 FOR UPDATE`

	note, err := scanNote(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Note{}, model.ErrNotFound
		}
		return model.Note{}, fmt.Errorf("failed to lock note: %w", err)
	}

	return note, nil
}

// ListByUserID returns the user's notes, most recently updated first.
func (r *NoteRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Note, error) {
	query := `SELECT ` + noteColumns + `
			  FROM notes
			  WHERE user_id = $1
			  ORDER BY updated_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		var note model.Note
		if err := rows.Scan(
			&note.ID, &note.UserID, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}

	return notes, nil
}

// Update stores title and content. updated_at never moves backwards.
func (r *NoteRepository) Update(ctx context.Context, note model.Note) (model.Note, error) {
	query := `UPDATE notes
			  SET title = $2, content = $3, updated_at = GREATEST(updated_at, $4)
			  WHERE id = $1
			  RETURNING ` + noteColumns

	saved, err := scanNote(r.db.QueryRowContext(ctx, query, note.ID, note.Title, note.Content, note.UpdatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Note{}, model.ErrNotFound
		}
		return model.Note{}, fmt.Errorf("failed to update note: %w", err)
	}

	return saved, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM notes WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	return requireAffected(res)
}

func scanNote(row *sql.Row) (model.Note, error) {
	var note model.Note
	err := row.Scan(&note.ID, &note.UserID, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	return note, err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
