package model

import (
	"context"
	"io"
	"time"
)

// AttachmentStore defines persistence operations for note attachments.
type AttachmentStore interface {
	Create(ctx context.Context, attachment Attachment) (Attachment, error)
	GetByID(ctx context.Context, id int64) (Attachment, error)
	ListByNoteID(ctx context.Context, noteID int64) ([]Attachment, error)
	Delete(ctx context.Context, id int64) error
	DeleteByNoteID(ctx context.Context, noteID int64) (int64, error)
}

// Attachment is a file linked to a note. Its owner is the owner of the note.
type Attachment struct {
	ID               int64
	NoteID           int64
	StoredFilename   string
	OriginalFilename string
	Size             int64
	UploadedAt       time.Time
}

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Download is a stored file ready to be sent to a client under Filename.
type Download struct {
	Filename string
	Size     int64
	Content  io.ReadCloser
}
