package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/vibenotes-server/internal/mocks"
	"github.com/dtroode/vibenotes-server/internal/model"
	"github.com/dtroode/vibenotes-server/internal/testutil"
	"github.com/dtroode/vibenotes-server/internal/token"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newTestSession(db *testutil.MemoryDB, clock *fakeClock) *Session {
	s := NewSession(db.Sessions(), token.NewJWT("test-secret"), 30*time.Minute, testutil.MakeNoopLogger())
	s.now = clock.Now
	return s
}

func TestSession_StartResolveEnd(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewMemoryDB()
	clock := newFakeClock()
	sessions := newTestSession(db, clock)
	alice := model.Identity{UserID: 1, Username: "alice"}

	tok, err := sessions.Start(ctx, alice)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	identity, err := sessions.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, alice, identity)

	require.NoError(t, sessions.End(ctx, tok))
	_, err = sessions.Resolve(ctx, tok)
	assert.ErrorIs(t, err, model.ErrAuth)

	// ending twice is fine
	assert.NoError(t, sessions.End(ctx, tok))
}

func TestSession_IdleTimeout(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewMemoryDB()
	clock := newFakeClock()
	sessions := newTestSession(db, clock)

	tok, err := sessions.Start(ctx, model.Identity{UserID: 1, Username: "alice"})
	require.NoError(t, err)

	// activity slides the expiry forward
	clock.Advance(20 * time.Minute)
	_, err = sessions.Resolve(ctx, tok)
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)
	_, err = sessions.Resolve(ctx, tok)
	require.NoError(t, err)

	clock.Advance(30*time.Minute + time.Second)
	_, err = sessions.Resolve(ctx, tok)
	assert.ErrorIs(t, err, model.ErrAuth)
	assert.Zero(t, db.SessionCount(), "expired session should be deleted")
}

func TestSession_RejectsForeignTokens(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewMemoryDB()
	sessions := newTestSession(db, newFakeClock())

	tok, err := sessions.Start(ctx, model.Identity{UserID: 1, Username: "alice"})
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"empty":        "",
		"tampered":     tok + "x",
		"other secret": mustSessionToken(t, "other-secret", model.Session{ID: uuid.New(), UserID: 1}),
		"unknown id":   mustSessionToken(t, "test-secret", model.Session{ID: uuid.New(), UserID: 1}),
	}

	for name, candidate := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := sessions.Resolve(ctx, candidate)
			assert.ErrorIs(t, err, model.ErrAuth)
		})
	}
}

func TestSession_SubjectMismatch(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewMemoryDB()
	clock := newFakeClock()
	sessions := newTestSession(db, clock)

	id := uuid.New()
	require.NoError(t, db.Sessions().Create(ctx, model.Session{ID: id, UserID: 1, Username: "alice", CreatedAt: clock.Now(), LastSeenAt: clock.Now()}))

	forged := mustSessionToken(t, "test-secret", model.Session{ID: id, UserID: 2})
	_, err := sessions.Resolve(ctx, forged)
	assert.ErrorIs(t, err, model.ErrAuth)
}

func TestSession_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewMemoryDB()
	clock := newFakeClock()
	sessions := newTestSession(db, clock)

	_, err := sessions.Start(ctx, model.Identity{UserID: 1, Username: "alice"})
	require.NoError(t, err)
	clock.Advance(40 * time.Minute)
	fresh, err := sessions.Start(ctx, model.Identity{UserID: 2, Username: "bob"})
	require.NoError(t, err)

	n, err := sessions.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = sessions.Resolve(ctx, fresh)
	assert.NoError(t, err)
}

func TestSession_StoreFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("create fails", func(t *testing.T) {
		store := &mocks.SessionStore{}
		tokens := &mocks.TokenManager{}
		store.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

		s := NewSession(store, tokens, time.Minute, testutil.MakeNoopLogger())
		_, err := s.Start(ctx, model.Identity{UserID: 1})
		require.Error(t, err)
		tokens.AssertNotCalled(t, "GenerateSessionToken", mock.Anything)
	})

	t.Run("signing fails removes the row", func(t *testing.T) {
		store := &mocks.SessionStore{}
		tokens := &mocks.TokenManager{}
		store.On("Create", mock.Anything, mock.Anything).Return(nil)
		store.On("Delete", mock.Anything, mock.Anything).Return(nil)
		tokens.On("GenerateSessionToken", mock.Anything).Return("", errors.New("no key"))

		s := NewSession(store, tokens, time.Minute, testutil.MakeNoopLogger())
		_, err := s.Start(ctx, model.Identity{UserID: 1})
		require.Error(t, err)
		store.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("lookup fails is not an auth error", func(t *testing.T) {
		store := &mocks.SessionStore{}
		tokens := &mocks.TokenManager{}
		id := uuid.New()
		tokens.On("ParseSessionToken", "tok").Return(id, int64(1), nil)
		store.On("GetByID", mock.Anything, id).Return(model.Session{}, errors.New("db down"))

		s := NewSession(store, tokens, time.Minute, testutil.MakeNoopLogger())
		_, err := s.Resolve(ctx, "tok")
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrAuth)
	})
}

func TestNewSession_DefaultTimeout(t *testing.T) {
	s := NewSession(&mocks.SessionStore{}, &mocks.TokenManager{}, 0, testutil.MakeNoopLogger())
	assert.Equal(t, model.DefaultSessionIdleTimeout, s.IdleTimeout())
}

func mustSessionToken(t *testing.T, secret string, session model.Session) string {
	t.Helper()
	tok, err := token.NewJWT(secret).GenerateSessionToken(session)
	require.NoError(t, err)
	return tok
}
