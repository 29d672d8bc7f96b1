package testutil

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/vibenotes-server/internal/model"
)

// MemoryDB is an in-memory model.Database with the same constraints as the
// Postgres schema: unique usernames, unique stored filenames and cascading
// note deletion. Transactions are serialized and rolled back by snapshot.
type MemoryDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID      int64
	users       map[int64]model.User
	notes       map[int64]model.Note
	attachments map[int64]model.Attachment
	sessions    map[uuid.UUID]model.Session

	// AttachmentCreateErr, when set, fails every attachment insert.
	AttachmentCreateErr error
	// NoteDeleteErr, when set, fails every note delete.
	NoteDeleteErr error
	// UserUpdateErr, when set, fails every profile update.
	UserUpdateErr error
}

var _ model.Database = (*MemoryDB)(nil)

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:       make(map[int64]model.User),
		notes:       make(map[int64]model.Note),
		attachments: make(map[int64]model.Attachment),
		sessions:    make(map[uuid.UUID]model.Session),
	}
}

func (db *MemoryDB) Users() model.UserStore             { return memUsers{db} }
func (db *MemoryDB) Notes() model.NoteStore             { return memNotes{db} }
func (db *MemoryDB) Attachments() model.AttachmentStore { return memAttachments{db} }
func (db *MemoryDB) Sessions() model.SessionStore       { return memSessions{db} }

func (db *MemoryDB) WithinTx(ctx context.Context, fn func(ctx context.Context, repos model.Repositories) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	snapshot := db.snapshot()
	db.mu.Unlock()

	if err := fn(ctx, db); err != nil {
		db.mu.Lock()
		db.restore(snapshot)
		db.mu.Unlock()
		return err
	}
	return nil
}

// AttachmentCount returns the number of attachment rows.
func (db *MemoryDB) AttachmentCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.attachments)
}

// SessionCount returns the number of session rows.
func (db *MemoryDB) SessionCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.sessions)
}

type memSnapshot struct {
	nextID      int64
	users       map[int64]model.User
	notes       map[int64]model.Note
	attachments map[int64]model.Attachment
	sessions    map[uuid.UUID]model.Session
}

func (db *MemoryDB) snapshot() memSnapshot {
	return memSnapshot{
		nextID:      db.nextID,
		users:       maps.Clone(db.users),
		notes:       maps.Clone(db.notes),
		attachments: maps.Clone(db.attachments),
		sessions:    maps.Clone(db.sessions),
	}
}

func (db *MemoryDB) restore(s memSnapshot) {
	db.nextID = s.nextID
	db.users = s.users
	db.notes = s.notes
	db.attachments = s.attachments
	db.sessions = s.sessions
}

func (db *MemoryDB) id() int64 {
	db.nextID++
	return db.nextID
}

type memUsers struct{ db *MemoryDB }

func (r memUsers) Create(_ context.Context, user model.User) (model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Username == user.Username {
			return model.User{}, model.ErrConflict
		}
	}
	user.ID = r.db.id()
	r.db.users[user.ID] = user
	return user, nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

// GetForUpdate needs no lock of its own: transactions are serialized.
func (r memUsers) GetForUpdate(ctx context.Context, id int64) (model.User, error) {
	return r.GetByID(ctx, id)
}

func (r memUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (r memUsers) UpdateProfile(_ context.Context, id int64, description, avatar string, updatedAt time.Time) (model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.UserUpdateErr != nil {
		return model.User{}, r.db.UserUpdateErr
	}
	u, ok := r.db.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	u.Description = description
	u.Avatar = avatar
	u.UpdatedAt = updatedAt
	r.db.users[id] = u
	return u, nil
}

type memNotes struct{ db *MemoryDB }

func (r memNotes) Create(_ context.Context, note model.Note) (model.Note, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[note.UserID]; !ok {
		return model.Note{}, model.ErrNotFound
	}
	note.ID = r.db.id()
	r.db.notes[note.ID] = note
	return note, nil
}

func (r memNotes) GetByID(_ context.Context, id int64) (model.Note, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n, ok := r.db.notes[id]
	if !ok {
		return model.Note{}, model.ErrNotFound
	}
	return n, nil
}

func (r memNotes) GetForUpdate(ctx context.Context, id int64) (model.Note, error) {
	return r.GetByID(ctx, id)
}

func (r memNotes) ListByUserID(_ context.Context, userID int64) ([]model.Note, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	notes := make([]model.Note, 0)
	for _, n := range r.db.notes {
		if n.UserID == userID {
			notes = append(notes, n)
		}
	}
	slices.SortFunc(notes, func(a, b model.Note) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return notes, nil
}

func (r memNotes) Update(_ context.Context, note model.Note) (model.Note, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.notes[note.ID]
	if !ok {
		return model.Note{}, model.ErrNotFound
	}
	stored.Title = note.Title
	stored.Content = note.Content
	if note.UpdatedAt.After(stored.UpdatedAt) {
		stored.UpdatedAt = note.UpdatedAt
	}
	r.db.notes[note.ID] = stored
	return stored, nil
}

func (r memNotes) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.NoteDeleteErr != nil {
		return r.db.NoteDeleteErr
	}
	if _, ok := r.db.notes[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.db.notes, id)
	maps.DeleteFunc(r.db.attachments, func(_ int64, a model.Attachment) bool {
		return a.NoteID == id
	})
	return nil
}

type memAttachments struct{ db *MemoryDB }

func (r memAttachments) Create(_ context.Context, attachment model.Attachment) (model.Attachment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.AttachmentCreateErr != nil {
		return model.Attachment{}, r.db.AttachmentCreateErr
	}
	if _, ok := r.db.notes[attachment.NoteID]; !ok {
		return model.Attachment{}, model.ErrNotFound
	}
	for _, a := range r.db.attachments {
		if a.StoredFilename == attachment.StoredFilename {
			return model.Attachment{}, model.ErrConflict
		}
	}
	attachment.ID = r.db.id()
	r.db.attachments[attachment.ID] = attachment
	return attachment, nil
}

func (r memAttachments) GetByID(_ context.Context, id int64) (model.Attachment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.attachments[id]
	if !ok {
		return model.Attachment{}, model.ErrNotFound
	}
	return a, nil
}

func (r memAttachments) ListByNoteID(_ context.Context, noteID int64) ([]model.Attachment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	list := make([]model.Attachment, 0)
	for _, a := range r.db.attachments {
		if a.NoteID == noteID {
			list = append(list, a)
		}
	}
	slices.SortFunc(list, func(a, b model.Attachment) int { return cmp.Compare(a.ID, b.ID) })
	return list, nil
}

func (r memAttachments) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.attachments[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.db.attachments, id)
	return nil
}

func (r memAttachments) DeleteByNoteID(_ context.Context, noteID int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, a := range r.db.attachments {
		if a.NoteID == noteID {
			delete(r.db.attachments, id)
			n++
		}
	}
	return n, nil
}

type memSessions struct{ db *MemoryDB }

func (r memSessions) Create(_ context.Context, session model.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.sessions[session.ID]; ok {
		return model.ErrConflict
	}
	r.db.sessions[session.ID] = session
	return nil
}

func (r memSessions) GetByID(_ context.Context, id uuid.UUID) (model.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sessions[id]
	if !ok {
		return model.Session{}, model.ErrNotFound
	}
	return s, nil
}

func (r memSessions) Touch(_ context.Context, id uuid.UUID, lastSeenAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sessions[id]
	if !ok {
		return model.ErrNotFound
	}
	if lastSeenAt.After(s.LastSeenAt) {
		s.LastSeenAt = lastSeenAt
	}
	r.db.sessions[id] = s
	return nil
}

func (r memSessions) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, id)
	return nil
}

func (r memSessions) DeleteIdleSince(_ context.Context, before time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, s := range r.db.sessions {
		if s.LastSeenAt.Before(before) {
			delete(r.db.sessions, id)
			n++
		}
	}
	return n, nil
}
