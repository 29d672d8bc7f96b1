package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/vibenotes-server/internal/mocks"
	"github.com/dtroode/vibenotes-server/internal/model"
	"github.com/dtroode/vibenotes-server/internal/testutil"
)

type noteFixture struct {
	db          *testutil.MemoryDB
	files       *testutil.MemoryStorage
	notes       *Note
	attachments *Attachment
	clock       *fakeClock
	alice       int64
	bob         int64
}

func newNoteFixture(t *testing.T) *noteFixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewMemoryDB()
	files := testutil.NewMemoryStorage()
	clock := newFakeClock()
	log := testutil.MakeNoopLogger()

	alice, err := db.Users().Create(ctx, model.User{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	bob, err := db.Users().Create(ctx, model.User{Username: "bob", PasswordHash: "h"})
	require.NoError(t, err)

	notes := NewNote(db, files, log)
	notes.now = clock.Now
	attachments := NewAttachment(db, files, log)
	attachments.now = clock.Now

	return &noteFixture{
		db:          db,
		files:       files,
		notes:       notes,
		attachments: attachments,
		clock:       clock,
		alice:       alice.ID,
		bob:         bob.ID,
	}
}

func uploadsOf(pairs ...string) []model.Upload {
	uploads := make([]model.Upload, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		uploads = append(uploads, model.Upload{Filename: pairs[i], Content: strings.NewReader(pairs[i+1])})
	}
	return uploads
}

func TestNote_CreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)

	created, err := f.notes.Create(ctx, f.alice, "T", "C", nil)
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := f.notes.Get(ctx, f.alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "C", got.Content)
	assert.True(t, got.CreatedAt.Equal(got.UpdatedAt))
	assert.Empty(t, got.Attachments)

	updated, err := f.notes.Update(ctx, f.alice, created.ID, "T2", "C", nil)
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
}

func TestNote_UpdateWithFrozenClockStillAdvances(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)

	created, err := f.notes.Create(ctx, f.alice, "T", "", nil)
	require.NoError(t, err)

	prev := created.UpdatedAt
	for range 3 {
		updated, err := f.notes.Update(ctx, f.alice, created.ID, "T", "again", nil)
		require.NoError(t, err)
		assert.True(t, updated.UpdatedAt.After(prev))
		prev = updated.UpdatedAt
	}
}

func TestNote_ReadDoesNotBumpUpdatedAt(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)

	created, err := f.notes.Create(ctx, f.alice, "T", "", nil)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	_, err = f.notes.Get(ctx, f.alice, created.ID)
	require.NoError(t, err)
	list, err := f.notes.List(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].UpdatedAt.Equal(created.UpdatedAt))
}

func TestNote_ListOrder(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)

	first, err := f.notes.Create(ctx, f.alice, "first", "", nil)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.notes.Create(ctx, f.alice, "second", "", nil)
	require.NoError(t, err)
	_, err = f.notes.Create(ctx, f.bob, "bob's", "", nil)
	require.NoError(t, err)

	list, err := f.notes.List(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	f.clock.Advance(time.Minute)
	_, err = f.notes.Update(ctx, f.alice, first.ID, "first", "edited", nil)
	require.NoError(t, err)

	list, err = f.notes.List(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestNote_TitleValidation(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)

	for _, title := range []string{"", "   ", strings.Repeat("x", 201)} {
		_, err := f.notes.Create(ctx, f.alice, title, "body", uploadsOf("a.txt", "a"))
		assert.ErrorIs(t, err, model.ErrValidation)
	}
	assert.Empty(t, f.files.Keys(), "no file may be written for an invalid note")

	note, err := f.notes.Create(ctx, f.alice, "ok", "", nil)
	require.NoError(t, err)
	_, err = f.notes.Update(ctx, f.alice, note.ID, "", "", nil)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestNote_CreateWithFiles(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)

	note, err := f.notes.Create(ctx, f.alice, "with files", "", uploadsOf(
		"report.pdf", "pdf-data",
		"virus.exe", "nope",
		"data.CSV", "a,b",
	))
	require.NoError(t, err)
	require.Len(t, note.Attachments, 2)
	assert.Equal(t, "report.pdf", note.Attachments[0].OriginalFilename)
	assert.Equal(t, int64(len("pdf-data")), note.Attachments[0].Size)
	assert.True(t, strings.HasSuffix(note.Attachments[1].StoredFilename, ".csv"))
	assert.Len(t, f.files.Keys(), 2)

	for _, a := range note.Attachments {
		assert.Equal(t, note.ID, a.NoteID)
		ok, _ := f.files.Exists(ctx, a.StoredFilename)
		assert.True(t, ok)
	}
}

func TestNote_CreateRollsBackFilesOnInsertFailure(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)
	f.db.AttachmentCreateErr = testutil.ErrBoom

	_, err := f.notes.Create(ctx, f.alice, "doomed", "", uploadsOf("a.txt", "a", "b.txt", "b"))
	require.Error(t, err)

	assert.Empty(t, f.files.Keys())
	list, err := f.notes.List(ctx, f.alice)
	require.NoError(t, err)
	assert.Empty(t, list, "note row must be rolled back with its attachments")
}

func TestNote_CreateRemovesWrittenFilesWhenLaterWriteFails(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)
	f.files.UploadErr = testutil.ErrBoom
	f.files.UploadErrAfter = 1

	_, err := f.notes.Create(ctx, f.alice, "doomed", "", uploadsOf("a.txt", "a", "b.txt", "b"))
	assert.ErrorIs(t, err, model.ErrStorage)
	assert.Empty(t, f.files.Keys())
	assert.Zero(t, f.db.AttachmentCount())
}

func TestNote_UpdateAppendsFiles(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)

	note, err := f.notes.Create(ctx, f.alice, "n", "", uploadsOf("a.txt", "a"))
	require.NoError(t, err)

	updated, err := f.notes.Update(ctx, f.alice, note.ID, "n", "", uploadsOf("b.png", "b", "c.sh", "c"))
	require.NoError(t, err)
	assert.Len(t, updated.Attachments, 2)
	assert.Len(t, f.files.Keys(), 2)
}

func TestNote_UpdateFailureKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)

	note, err := f.notes.Create(ctx, f.alice, "n", "old", nil)
	require.NoError(t, err)

	f.db.AttachmentCreateErr = testutil.ErrBoom
	f.clock.Advance(time.Minute)
	_, err = f.notes.Update(ctx, f.alice, note.ID, "new", "new", uploadsOf("b.txt", "b"))
	require.Error(t, err)

	got, err := f.notes.Get(ctx, f.alice, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "n", got.Title)
	assert.Equal(t, "old", got.Content)
	assert.True(t, got.UpdatedAt.Equal(note.UpdatedAt))
	assert.Empty(t, f.files.Keys())
}

func TestNote_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)

	note, err := f.notes.Create(ctx, f.alice, "n", "", uploadsOf("a.txt", "a", "b.pdf", "b"))
	require.NoError(t, err)
	keep, err := f.notes.Create(ctx, f.alice, "keep", "", uploadsOf("k.txt", "k"))
	require.NoError(t, err)

	require.NoError(t, f.notes.Delete(ctx, f.alice, note.ID))

	_, err = f.notes.Get(ctx, f.alice, note.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	for _, a := range note.Attachments {
		_, err := f.attachments.Download(ctx, f.alice, a.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
		ok, _ := f.files.Exists(ctx, a.StoredFilename)
		assert.False(t, ok)
	}
	assert.Equal(t, []string{keep.Attachments[0].StoredFilename}, f.files.Keys())
	assert.Equal(t, 1, f.db.AttachmentCount())
}

func TestNote_DeleteToleratesMissingFiles(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)

	note, err := f.notes.Create(ctx, f.alice, "n", "", uploadsOf("a.txt", "a"))
	require.NoError(t, err)
	require.NoError(t, f.files.Delete(ctx, note.Attachments[0].StoredFilename))

	require.NoError(t, f.notes.Delete(ctx, f.alice, note.ID))
	assert.Zero(t, f.db.AttachmentCount())
}

func TestNote_DeleteContinuesWhenFileRemovalFails(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)

	note, err := f.notes.Create(ctx, f.alice, "n", "", uploadsOf("a.txt", "a"))
	require.NoError(t, err)
	f.files.DeleteErr = testutil.ErrBoom

	require.NoError(t, f.notes.Delete(ctx, f.alice, note.ID))
	_, err = f.notes.Get(ctx, f.alice, note.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestNote_DeleteRowFailureKeepsAttachmentRows(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)

	note, err := f.notes.Create(ctx, f.alice, "n", "", uploadsOf("a.txt", "a"))
	require.NoError(t, err)
	f.db.NoteDeleteErr = testutil.ErrBoom

	require.Error(t, f.notes.Delete(ctx, f.alice, note.ID))
	assert.Equal(t, 1, f.db.AttachmentCount(), "attachment rows are removed in the same transaction as the note")
}

// interleavingDB runs hooks around the first transaction so a second
// operation can be slotted in just before it or while it holds the lock.
type interleavingDB struct {
	*testutil.MemoryDB

	mu            sync.Mutex
	calls         int
	beforeFirstTx func()
	inFirstTx     func()
	enteringTx    chan struct{}
}

func (d *interleavingDB) WithinTx(ctx context.Context, fn func(ctx context.Context, repos model.Repositories) error) error {
	d.mu.Lock()
	d.calls++
	first := d.calls == 1
	d.mu.Unlock()

	if !first {
		if d.enteringTx != nil {
			d.enteringTx <- struct{}{}
		}
		return d.MemoryDB.WithinTx(ctx, fn)
	}

	if d.beforeFirstTx != nil {
		d.beforeFirstTx()
	}
	return d.MemoryDB.WithinTx(ctx, func(ctx context.Context, repos model.Repositories) error {
		if d.inFirstTx != nil {
			d.inFirstTx()
		}
		return fn(ctx, repos)
	})
}

func TestNote_DeleteRacingUploadLeavesNoOrphans(t *testing.T) {
	ctx := context.Background()
	log := testutil.MakeNoopLogger()

	setup := func(t *testing.T) (*interleavingDB, *testutil.MemoryStorage, int64, int64) {
		t.Helper()
		mem := testutil.NewMemoryDB()
		files := testutil.NewMemoryStorage()
		user, err := mem.Users().Create(ctx, model.User{Username: "alice", PasswordHash: "h"})
		require.NoError(t, err)
		note, err := NewNote(mem, files, log).Create(ctx, user.ID, "shopping", "", uploadsOf("a.txt", "a"))
		require.NoError(t, err)
		return &interleavingDB{MemoryDB: mem}, files, user.ID, note.ID
	}

	t.Run("upload commits before the delete transaction", func(t *testing.T) {
		db, files, userID, noteID := setup(t)
		notes := NewNote(db, files, log)
		attachments := NewAttachment(db, files, log)

		db.beforeFirstTx = func() {
			_, err := attachments.Upload(ctx, userID, noteID, uploadsOf("list.pdf", "pdf"))
			require.NoError(t, err)
		}

		require.NoError(t, notes.Delete(ctx, userID, noteID))
		assert.Zero(t, db.AttachmentCount())
		assert.Empty(t, files.Keys())
	})

	t.Run("upload waits for the delete and cleans up", func(t *testing.T) {
		db, files, userID, noteID := setup(t)
		notes := NewNote(db, files, log)
		attachments := NewAttachment(db, files, log)
		db.enteringTx = make(chan struct{}, 1)

		uploadErr := make(chan error, 1)
		db.inFirstTx = func() {
			go func() {
				_, err := attachments.Upload(ctx, userID, noteID, uploadsOf("list.pdf", "pdf"))
				uploadErr <- err
			}()
			<-db.enteringTx
		}

		require.NoError(t, notes.Delete(ctx, userID, noteID))
		assert.ErrorIs(t, <-uploadErr, model.ErrNotFound)
		assert.Zero(t, db.AttachmentCount())
		assert.Empty(t, files.Keys())
	})
}

func TestNote_OwnershipChecks(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t)

	note, err := f.notes.Create(ctx, f.alice, "private", "secret", uploadsOf("a.txt", "a"))
	require.NoError(t, err)

	_, err = f.notes.Get(ctx, f.bob, note.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = f.notes.Update(ctx, f.bob, note.ID, "hacked", "", uploadsOf("b.txt", "b"))
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.ErrorIs(t, f.notes.Delete(ctx, f.bob, note.ID), model.ErrForbidden)

	_, err = f.notes.Get(ctx, f.bob, 9999)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NotErrorIs(t, err, model.ErrForbidden)

	got, err := f.notes.Get(ctx, f.alice, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", got.Title)
	assert.Len(t, f.files.Keys(), 1)
}

func TestNote_ForbiddenUpdateTouchesNothing(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewDatabase()
	storage := testutil.NewMemoryStorage()
	svc := NewNote(db, storage, testutil.MakeNoopLogger())

	db.NoteStore.On("GetByID", mock.Anything, int64(5)).Return(model.Note{ID: 5, UserID: 1}, nil)

	_, err := svc.Update(ctx, 2, 5, "title", "", uploadsOf("a.txt", "a"))
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Zero(t, db.TxCalls)
	assert.Empty(t, storage.Keys())
	db.NoteStore.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestNote_StoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewDatabase()
	svc := NewNote(db, testutil.NewMemoryStorage(), testutil.MakeNoopLogger())

	db.NoteStore.On("ListByUserID", mock.Anything, int64(1)).Return(nil, errors.New("db down"))
	db.NoteStore.On("GetByID", mock.Anything, int64(2)).Return(model.Note{}, errors.New("db down"))

	_, err := svc.List(ctx, 1)
	require.Error(t, err)

	_, err = svc.Get(ctx, 1, 2)
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
}
