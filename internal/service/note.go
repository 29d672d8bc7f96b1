package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
)

// Note manages notes and the attachments created together with them.
type Note struct {
	db     model.Database
	files  attachmentFiles
	logger *logger.Logger
	now    func() time.Time
}

func NewNote(db model.Database, storage model.Storage, logger *logger.Logger) *Note {
	return &Note{
		db:     db,
		files:  attachmentFiles{storage: storage, logger: logger},
		logger: logger,
		now:    now,
	}
}

// List returns the user's notes, most recently updated first.
func (s *Note) List(ctx context.Context, userID int64) ([]model.Note, error) {
	notes, err := s.db.Notes().ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// Create stores a note with optional attachments. Files are written first and
// all rows are inserted in one transaction; if it fails the files are removed.
func (s *Note) Create(ctx context.Context, userID int64, title, content string, uploads []model.Upload) (model.NoteDetails, error) {
	title, err := validateTitle(title)
	if err != nil {
		return model.NoteDetails{}, err
	}

	createdAt := s.now()
	pending, err := s.files.store(ctx, uploads, createdAt)
	if err != nil {
		return model.NoteDetails{}, err
	}

	var details model.NoteDetails
	err = s.db.WithinTx(ctx, func(ctx context.Context, repos model.Repositories) error {
		note, err := repos.Notes().Create(ctx, model.Note{
			UserID:    userID,
			Title:     title,
			Content:   content,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		})
		if err != nil {
			return fmt.Errorf("failed to create note: %w", err)
		}

		attachments, err := insertAttachments(ctx, repos, note.ID, pending)
		if err != nil {
			return err
		}

		details = model.NoteDetails{Note: note, Attachments: attachments}
		return nil
	})
	if err != nil {
		s.logger.Error("Note service: failed to create note",
			"user_id", userID,
			"error", err.Error())
		s.files.discard(ctx, pending)
		return model.NoteDetails{}, err
	}

	s.logger.Debug("Note service: note created",
		"user_id", userID,
		"note_id", details.ID,
		"attachments", len(details.Attachments))

	return details, nil
}

// Get returns the note with its attachments.
func (s *Note) Get(ctx context.Context, userID, noteID int64) (model.NoteDetails, error) {
	note, err := loadOwnedNote(ctx, s.db.Notes(), userID, noteID)
	if err != nil {
		return model.NoteDetails{}, err
	}

	attachments, err := s.db.Attachments().ListByNoteID(ctx, note.ID)
	if err != nil {
		return model.NoteDetails{}, fmt.Errorf("failed to list attachments: %w", err)
	}

	return model.NoteDetails{Note: note, Attachments: attachments}, nil
}

// Update replaces title and content, appends new attachments and bumps
// updated_at. created_at is never changed.
func (s *Note) Update(ctx context.Context, userID, noteID int64, title, content string, uploads []model.Upload) (model.NoteDetails, error) {
	note, err := loadOwnedNote(ctx, s.db.Notes(), userID, noteID)
	if err != nil {
		return model.NoteDetails{}, err
	}

	title, err = validateTitle(title)
	if err != nil {
		return model.NoteDetails{}, err
	}

	updatedAt := s.now()
	if !updatedAt.After(note.UpdatedAt) {
		updatedAt = note.UpdatedAt.Add(time.Microsecond)
	}

	pending, err := s.files.store(ctx, uploads, updatedAt)
	if err != nil {
		return model.NoteDetails{}, err
	}

	var details model.NoteDetails
	err = s.db.WithinTx(ctx, func(ctx context.Context, repos model.Repositories) error {
		note.Title = title
		note.Content = content
		note.UpdatedAt = updatedAt

		saved, err := repos.Notes().Update(ctx, note)
		if err != nil {
			return fmt.Errorf("failed to update note: %w", err)
		}

		if _, err := insertAttachments(ctx, repos, saved.ID, pending); err != nil {
			return err
		}

		attachments, err := repos.Attachments().ListByNoteID(ctx, saved.ID)
		if err != nil {
			return fmt.Errorf("failed to list attachments: %w", err)
		}

		details = model.NoteDetails{Note: saved, Attachments: attachments}
		return nil
	})
	if err != nil {
		s.logger.Error("Note service: failed to update note",
			"user_id", userID,
			"note_id", noteID,
			"error", err.Error())
		s.files.discard(ctx, pending)
		return model.NoteDetails{}, err
	}

	return details, nil
}

// Delete removes the note, its attachment rows and their files. The note row
// stays locked while its attachments are listed and removed, so an upload
// racing the delete either lands in that list or fails. Files go first on a
// best-effort basis, then the rows.
func (s *Note) Delete(ctx context.Context, userID, noteID int64) error {
	if _, err := loadOwnedNote(ctx, s.db.Notes(), userID, noteID); err != nil {
		return err
	}

	var removed int
	err := s.db.WithinTx(ctx, func(ctx context.Context, repos model.Repositories) error {
		note, err := repos.Notes().GetForUpdate(ctx, noteID)
		if err != nil {
			return fmt.Errorf("failed to lock note: %w", err)
		}

		attachments, err := repos.Attachments().ListByNoteID(ctx, note.ID)
		if err != nil {
			return fmt.Errorf("failed to list attachments: %w", err)
		}

		for _, a := range attachments {
			if err := s.files.remove(ctx, a); err != nil {
				s.logger.Warn("Note service: failed to delete attachment file",
					"note_id", note.ID,
					"stored_filename", a.StoredFilename,
					"error", err.Error())
			}
		}

		if _, err := repos.Attachments().DeleteByNoteID(ctx, note.ID); err != nil {
			return fmt.Errorf("failed to delete attachments: %w", err)
		}
		if err := repos.Notes().Delete(ctx, note.ID); err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
		removed = len(attachments)
		return nil
	})
	if err != nil {
		s.logger.Error("Note service: failed to delete note",
			"user_id", userID,
			"note_id", noteID,
			"error", err.Error())
		return err
	}

	s.logger.Info("Note service: note deleted",
		"user_id", userID,
		"note_id", noteID,
		"attachments", removed)

	return nil
}
