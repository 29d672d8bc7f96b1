package model

import "context"

// Repositories gives access to all stores bound to one database handle.
type Repositories interface {
	Users() UserStore
	Notes() NoteStore
	Attachments() AttachmentStore
	Sessions() SessionStore
}

// Transactor runs fn with stores bound to a single transaction.
// The transaction is committed when fn returns nil and rolled back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Database gives access to stores and transactions over one connection pool.
type Database interface {
	Repositories
	Transactor
}
