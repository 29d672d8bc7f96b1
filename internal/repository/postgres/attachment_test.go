package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/vibenotes-server/internal/model"
)

var attachmentRowColumns = []string{"id", "note_id", "stored_filename", "original_filename", "size", "uploaded_at"}

func TestAttachmentRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	attachment := model.Attachment{
		NoteID:           3,
		StoredFilename:   "0b6f.pdf",
		OriginalFilename: "report.pdf",
		Size:             2048,
		UploadedAt:       now,
	}

	t.Run("success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAttachmentRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO attachments`)).
			WithArgs(int64(3), "0b6f.pdf", "report.pdf", int64(2048), now).
			WillReturnRows(sqlmock.NewRows(attachmentRowColumns).
				AddRow(int64(11), int64(3), "0b6f.pdf", "report.pdf", int64(2048), now))

		saved, err := repo.Create(ctx, attachment)
		require.NoError(t, err)
		assert.Equal(t, int64(11), saved.ID)
		assert.Equal(t, "report.pdf", saved.OriginalFilename)
	})

	t.Run("duplicate stored filename", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAttachmentRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO attachments`)).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		_, err := repo.Create(ctx, attachment)
		assert.ErrorIs(t, err, model.ErrConflict)
	})
}

func TestAttachmentRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttachmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM attachments WHERE id = $1`)).
		WithArgs(int64(4)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 4)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAttachmentRepository_ListByNoteID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttachmentRepository(db)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE note_id = $1`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(attachmentRowColumns).
			AddRow(int64(1), int64(3), "a.txt", "a.txt", int64(1), now).
			AddRow(int64(2), int64(3), "b.png", "b.png", int64(2), now))

	attachments, err := repo.ListByNoteID(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, attachments, 2)
	assert.Equal(t, "b.png", attachments[1].StoredFilename)
}

func TestAttachmentRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAttachmentRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM attachments WHERE id = $1`)).
			WithArgs(int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, 2))
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAttachmentRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM attachments WHERE id = $1`)).
			WithArgs(int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, 2), model.ErrNotFound)
	})
}

func TestAttachmentRepository_DeleteByNoteID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttachmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM attachments WHERE note_id = $1`)).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.DeleteByNoteID(context.Background(), 3)
	require.NoError(t, err)
	assert.Zero(t, n)
}
