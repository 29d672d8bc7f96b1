// Package mocks holds testify mocks for the model interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/vibenotes-server/internal/model"
)

type UserStore struct {
	mock.Mock
}

var _ model.UserStore = (*UserStore)(nil)

func (m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetForUpdate(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByUsername(ctx context.Context, username string) (model.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) UpdateProfile(ctx context.Context, id int64, description, avatar string, updatedAt time.Time) (model.User, error) {
	args := m.Called(ctx, id, description, avatar, updatedAt)
	return args.Get(0).(model.User), args.Error(1)
}

type NoteStore struct {
	mock.Mock
}

var _ model.NoteStore = (*NoteStore)(nil)

func (m *NoteStore) Create(ctx context.Context, note model.Note) (model.Note, error) {
	args := m.Called(ctx, note)
	return args.Get(0).(model.Note), args.Error(1)
}

func (m *NoteStore) GetByID(ctx context.Context, id int64) (model.Note, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Note), args.Error(1)
}

func (m *NoteStore) GetForUpdate(ctx context.Context, id int64) (model.Note, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Note), args.Error(1)
}

func (m *NoteStore) ListByUserID(ctx context.Context, userID int64) ([]model.Note, error) {
	args := m.Called(ctx, userID)
	notes, _ := args.Get(0).([]model.Note)
	return notes, args.Error(1)
}

func (m *NoteStore) Update(ctx context.Context, note model.Note) (model.Note, error) {
	args := m.Called(ctx, note)
	return args.Get(0).(model.Note), args.Error(1)
}

func (m *NoteStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type AttachmentStore struct {
	mock.Mock
}

var _ model.AttachmentStore = (*AttachmentStore)(nil)

func (m *AttachmentStore) Create(ctx context.Context, attachment model.Attachment) (model.Attachment, error) {
	args := m.Called(ctx, attachment)
	return args.Get(0).(model.Attachment), args.Error(1)
}

func (m *AttachmentStore) GetByID(ctx context.Context, id int64) (model.Attachment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Attachment), args.Error(1)
}

func (m *AttachmentStore) ListByNoteID(ctx context.Context, noteID int64) ([]model.Attachment, error) {
	args := m.Called(ctx, noteID)
	attachments, _ := args.Get(0).([]model.Attachment)
	return attachments, args.Error(1)
}

func (m *AttachmentStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *AttachmentStore) DeleteByNoteID(ctx context.Context, noteID int64) (int64, error) {
	args := m.Called(ctx, noteID)
	return args.Get(0).(int64), args.Error(1)
}

type SessionStore struct {
	mock.Mock
}

var _ model.SessionStore = (*SessionStore)(nil)

func (m *SessionStore) Create(ctx context.Context, session model.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *SessionStore) GetByID(ctx context.Context, id uuid.UUID) (model.Session, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Session), args.Error(1)
}

func (m *SessionStore) Touch(ctx context.Context, id uuid.UUID, lastSeenAt time.Time) error {
	args := m.Called(ctx, id, lastSeenAt)
	return args.Error(0)
}

func (m *SessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *SessionStore) DeleteIdleSince(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type TokenManager struct {
	mock.Mock
}

var _ model.TokenManager = (*TokenManager)(nil)

func (m *TokenManager) GenerateSessionToken(session model.Session) (string, error) {
	args := m.Called(session)
	return args.String(0), args.Error(1)
}

func (m *TokenManager) ParseSessionToken(token string) (uuid.UUID, int64, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Get(1).(int64), args.Error(2)
}
