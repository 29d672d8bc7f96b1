package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dtroode/vibenotes-server/internal/model"
)

var _ model.AttachmentStore = (*AttachmentRepository)(nil)

const attachmentColumns = `id, note_id, stored_filename, original_filename, size, uploaded_at`

type AttachmentRepository struct {
	db DBTX
}

func NewAttachmentRepository(db DBTX) *AttachmentRepository {
	return &AttachmentRepository{
		db: db,
	}
}

func (r *AttachmentRepository) Create(ctx context.Context, attachment model.Attachment) (model.Attachment, error) {
	query := `INSERT INTO attachments (note_id, stored_filename, original_filename, size, uploaded_at)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + attachmentColumns

	var saved model.Attachment
	err := r.db.QueryRowContext(ctx, query,
		attachment.NoteID, attachment.StoredFilename, attachment.OriginalFilename,
		attachment.Size, attachment.UploadedAt,
	).Scan(
		&saved.ID, &saved.NoteID, &saved.StoredFilename, &saved.OriginalFilename,
		&saved.Size, &saved.UploadedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Attachment{}, model.ErrConflict
		}
		return model.Attachment{}, fmt.Errorf("failed to create attachment: %w", err)
	}

	return saved, nil
}

func (r *AttachmentRepository) GetByID(ctx context.Context, id int64) (model.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE id = $1`

	var attachment model.Attachment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&attachment.ID, &attachment.NoteID, &attachment.StoredFilename, &attachment.OriginalFilename,
		&attachment.Size, &attachment.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Attachment{}, model.ErrNotFound
		}
		return model.Attachment{}, fmt.Errorf("failed to get attachment: %w", err)
	}

	return attachment, nil
}

func (r *AttachmentRepository) ListByNoteID(ctx context.Context, noteID int64) ([]model.Attachment, error) {
	query := `SELECT ` + attachmentColumns + `
			  FROM attachments
			  WHERE note_id = $1
			  ORDER BY uploaded_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	attachments := make([]model.Attachment, 0)
	for rows.Next() {
		var attachment model.Attachment
		if err := rows.Scan(
			&attachment.ID, &attachment.NoteID, &attachment.StoredFilename, &attachment.OriginalFilename,
			&attachment.Size, &attachment.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, attachment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attachments: %w", err)
	}

	return attachments, nil
}

func (r *AttachmentRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM attachments WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	return requireAffected(res)
}

func (r *AttachmentRepository) DeleteByNoteID(ctx context.Context, noteID int64) (int64, error) {
	const query = `DELETE FROM attachments WHERE note_id = $1`

	res, err := r.db.ExecContext(ctx, query, noteID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete note attachments: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return n, nil
}
