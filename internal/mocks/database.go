package mocks

import (
	"context"

	"github.com/dtroode/vibenotes-server/internal/model"
)

// Database wires the store mocks together. WithinTx calls fn with the same
// mocks unless TxErr is set, in which case fn is not run.
type Database struct {
	UserStore       *UserStore
	NoteStore       *NoteStore
	AttachmentStore *AttachmentStore
	SessionStore    *SessionStore

	TxErr   error
	TxCalls int
}

var _ model.Database = (*Database)(nil)

func NewDatabase() *Database {
	return &Database{
		UserStore:       &UserStore{},
		NoteStore:       &NoteStore{},
		AttachmentStore: &AttachmentStore{},
		SessionStore:    &SessionStore{},
	}
}

func (d *Database) Users() model.UserStore             { return d.UserStore }
func (d *Database) Notes() model.NoteStore             { return d.NoteStore }
func (d *Database) Attachments() model.AttachmentStore { return d.AttachmentStore }
func (d *Database) Sessions() model.SessionStore       { return d.SessionStore }

func (d *Database) WithinTx(ctx context.Context, fn func(ctx context.Context, repos model.Repositories) error) error {
	d.TxCalls++
	if d.TxErr != nil {
		return d.TxErr
	}
	return fn(ctx, d)
}
