package model

import (
	"context"
	"time"
)

// MaxTitleLength is the maximum note title length in characters.
const MaxTitleLength = 200

// NoteStore defines persistence operations for notes.
type NoteStore interface {
	Create(ctx context.Context, note Note) (Note, error)
	GetByID(ctx context.Context, id int64) (Note, error)
	// GetForUpdate reads the note and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, id int64) (Note, error)
	ListByUserID(ctx context.Context, userID int64) ([]Note, error)
	Update(ctx context.Context, note Note) (Note, error)
	Delete(ctx context.Context, id int64) error
}

// Note is a text note owned by a single user.
type Note struct {
	ID        int64
	UserID    int64
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteDetails is a note together with its attachments.
type NoteDetails struct {
	Note
	Attachments []Attachment
}
