package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/vibenotes-server/internal/access"
	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
)

// attachmentFiles writes and removes attachment objects on behalf of the
// note and attachment services.
type attachmentFiles struct {
	storage model.Storage
	logger  *logger.Logger
}

// store writes every upload with an allowed extension and returns the rows
// to insert, NoteID left unset. Disallowed or nameless uploads are skipped.
// On a write error the files already written by this call are removed.
func (f attachmentFiles) store(ctx context.Context, uploads []model.Upload, uploadedAt time.Time) ([]model.Attachment, error) {
	pending := make([]model.Attachment, 0, len(uploads))
	for _, upload := range uploads {
		name := cleanFilename(upload.Filename)
		if name == "" || upload.Content == nil {
			continue
		}
		ext, ok := allowedExtension(name, attachmentExtensions)
		if !ok {
			f.logger.Debug("Attachment files: skipping upload with disallowed extension",
				"filename", name)
			continue
		}

		key := uuid.NewString() + "." + ext
		size, err := f.storage.Upload(ctx, key, upload.Content)
		if err != nil {
			f.logger.Error("Attachment files: failed to write file",
				"filename", name,
				"stored_filename", key,
				"error", err.Error())
			f.discard(ctx, pending)
			return nil, storageError("failed to write attachment", err)
		}

		pending = append(pending, model.Attachment{
			StoredFilename:   key,
			OriginalFilename: name,
			Size:             size,
			UploadedAt:       uploadedAt,
		})
	}
	return pending, nil
}

// discard removes the files of attachments whose rows were never committed.
func (f attachmentFiles) discard(ctx context.Context, attachments []model.Attachment) {
	ctx = context.WithoutCancel(ctx)
	for _, a := range attachments {
		if err := f.storage.Delete(ctx, a.StoredFilename); err != nil && !errors.Is(err, model.ErrObjectNotFound) {
			f.logger.Error("Attachment files: failed to remove orphaned file",
				"stored_filename", a.StoredFilename,
				"error", err.Error())
		}
	}
}

// remove deletes the file behind attachment. A missing file is not an error.
func (f attachmentFiles) remove(ctx context.Context, attachment model.Attachment) error {
	err := f.storage.Delete(ctx, attachment.StoredFilename)
	if err != nil && !errors.Is(err, model.ErrObjectNotFound) {
		return storageError("failed to delete attachment file", err)
	}
	return nil
}

// insertAttachments inserts the pending rows for noteID using repos, which
// is expected to be bound to a transaction.
func insertAttachments(ctx context.Context, repos model.Repositories, noteID int64, pending []model.Attachment) ([]model.Attachment, error) {
	created := make([]model.Attachment, 0, len(pending))
	for _, a := range pending {
		a.NoteID = noteID
		saved, err := repos.Attachments().Create(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment: %w", err)
		}
		created = append(created, saved)
	}
	return created, nil
}

// loadOwnedNote resolves the note and then checks that userID owns it.
func loadOwnedNote(ctx context.Context, notes model.NoteStore, userID, noteID int64) (model.Note, error) {
	note, err := notes.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Note{}, fmt.Errorf("note %d: %w", noteID, model.ErrNotFound)
		}
		return model.Note{}, fmt.Errorf("failed to get note: %w", err)
	}
	if err := access.CheckNote(userID, note); err != nil {
		return model.Note{}, fmt.Errorf("note %d: %w", noteID, err)
	}
	return note, nil
}
