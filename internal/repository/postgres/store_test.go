package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/vibenotes-server/internal/model"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestStore_Repositories(t *testing.T) {
	db, _ := newMockDB(t)
	store := NewStore(db)

	assert.IsType(t, &UserRepository{}, store.Users())
	assert.IsType(t, &NoteRepository{}, store.Notes())
	assert.IsType(t, &AttachmentRepository{}, store.Attachments())
	assert.IsType(t, &SessionRepository{}, store.Sessions())
}

func TestStore_WithinTx(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("commits on success", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewStore(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM attachments WHERE note_id = $1`)).
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM notes WHERE id = $1`)).
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithinTx(ctx, func(ctx context.Context, repos model.Repositories) error {
			n, err := repos.Attachments().DeleteByNoteID(ctx, 7)
			if err != nil {
				return err
			}
			assert.Equal(t, int64(2), n)
			return repos.Notes().Delete(ctx, 7)
		})
		require.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewStore(db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO attachments`)).
			WithArgs(int64(7), "a.txt", "notes.txt", int64(3), now).
			WillReturnError(errors.New("db down"))
		mock.ExpectRollback()

		err := store.WithinTx(ctx, func(ctx context.Context, repos model.Repositories) error {
			_, err := repos.Attachments().Create(ctx, model.Attachment{
				NoteID:           7,
				StoredFilename:   "a.txt",
				OriginalFilename: "notes.txt",
				Size:             3,
				UploadedAt:       now,
			})
			return err
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewStore(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = store.WithinTx(ctx, func(context.Context, model.Repositories) error {
				panic("boom")
			})
		})
	})

	t.Run("begin fails", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewStore(db)

		mock.ExpectBegin().WillReturnError(errors.New("no connection"))

		err := store.WithinTx(ctx, func(context.Context, model.Repositories) error {
			t.Fatal("fn must not run")
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin transaction")
	})

	t.Run("commit fails", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewStore(db)

		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		err := store.WithinTx(ctx, func(context.Context, model.Repositories) error {
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to commit transaction")
	})
}
