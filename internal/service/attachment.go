package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/vibenotes-server/internal/access"
	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
)

// Attachment manages files attached to existing notes.
type Attachment struct {
	db     model.Database
	files  attachmentFiles
	logger *logger.Logger
	now    func() time.Time
}

func NewAttachment(db model.Database, storage model.Storage, logger *logger.Logger) *Attachment {
	return &Attachment{
		db:     db,
		files:  attachmentFiles{storage: storage, logger: logger},
		logger: logger,
		now:    now,
	}
}

// Upload attaches files to the note. Uploads without a name or with a
// disallowed extension are skipped and the rest still succeed.
func (s *Attachment) Upload(ctx context.Context, userID, noteID int64, uploads []model.Upload) ([]model.Attachment, error) {
	note, err := loadOwnedNote(ctx, s.db.Notes(), userID, noteID)
	if err != nil {
		return nil, err
	}

	pending, err := s.files.store(ctx, uploads, s.now())
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return []model.Attachment{}, nil
	}

	var created []model.Attachment
	err = s.db.WithinTx(ctx, func(ctx context.Context, repos model.Repositories) error {
		// a concurrent note delete holds this lock until its rows are gone
		if _, err := repos.Notes().GetForUpdate(ctx, note.ID); err != nil {
			return fmt.Errorf("failed to lock note: %w", err)
		}

		var err error
		created, err = insertAttachments(ctx, repos, note.ID, pending)
		return err
	})
	if err != nil {
		s.logger.Error("Attachment service: failed to save attachments",
			"user_id", userID,
			"note_id", noteID,
			"error", err.Error())
		s.files.discard(ctx, pending)
		return nil, err
	}

	s.logger.Debug("Attachment service: files attached",
		"note_id", noteID,
		"count", len(created))

	return created, nil
}

// Download opens the attachment for its owner. The caller closes Content.
func (s *Attachment) Download(ctx context.Context, userID, attachmentID int64) (model.Download, error) {
	attachment, err := s.loadOwned(ctx, userID, attachmentID)
	if err != nil {
		return model.Download{}, err
	}

	content, err := s.files.storage.Download(ctx, attachment.StoredFilename)
	if err != nil {
		if errors.Is(err, model.ErrObjectNotFound) {
			s.logger.Error("Attachment service: file missing for attachment",
				"attachment_id", attachmentID,
				"stored_filename", attachment.StoredFilename)
			return model.Download{}, fmt.Errorf("attachment %d file: %w", attachmentID, model.ErrNotFound)
		}
		return model.Download{}, storageError("failed to open attachment", err)
	}

	return model.Download{
		Filename: attachment.OriginalFilename,
		Size:     attachment.Size,
		Content:  content,
	}, nil
}

// Delete removes the attachment file and then its row. It returns the parent
// note ID.
func (s *Attachment) Delete(ctx context.Context, userID, attachmentID int64) (int64, error) {
	attachment, err := s.loadOwned(ctx, userID, attachmentID)
	if err != nil {
		return 0, err
	}

	if err := s.files.remove(ctx, attachment); err != nil {
		s.logger.Error("Attachment service: failed to delete file",
			"attachment_id", attachmentID,
			"error", err.Error())
		return 0, err
	}

	if err := s.db.Attachments().Delete(ctx, attachment.ID); err != nil {
		return 0, fmt.Errorf("failed to delete attachment: %w", err)
	}

	return attachment.NoteID, nil
}

// loadOwned resolves the attachment and its note, then checks ownership
// through the note.
func (s *Attachment) loadOwned(ctx context.Context, userID, attachmentID int64) (model.Attachment, error) {
	attachment, err := s.db.Attachments().GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Attachment{}, fmt.Errorf("attachment %d: %w", attachmentID, model.ErrNotFound)
		}
		return model.Attachment{}, fmt.Errorf("failed to get attachment: %w", err)
	}

	note, err := s.db.Notes().GetByID(ctx, attachment.NoteID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Attachment{}, fmt.Errorf("attachment %d: %w", attachmentID, model.ErrNotFound)
		}
		return model.Attachment{}, fmt.Errorf("failed to get note: %w", err)
	}

	if err := access.CheckAttachment(userID, attachment, note); err != nil {
		return model.Attachment{}, fmt.Errorf("attachment %d: %w", attachmentID, err)
	}

	return attachment, nil
}
