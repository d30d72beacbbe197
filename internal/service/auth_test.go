package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/shenikar/resq_dispatch/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(t *testing.T) (AuthService, *storage.MemoryStore) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	store := storage.NewMemoryStore()
	return NewAuthService(store, "test-secret", clockwork.NewFakeClock(), logger), store
}

func TestLogin_BuildsUserFromEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)

	session, err := svc.Login(context.Background(), "juan.dela_cruz@resq.ph", "secret", models.RoleResponder)

	require.NoError(t, err)
	assert.Equal(t, "Juan Dela Cruz", session.User.Name)
	assert.Equal(t, models.RoleResponder, session.User.Role)
	assert.Contains(t, session.User.ID, "user_")
	assert.Contains(t, session.User.Avatar, "https://ui-avatars.com/api/?name=juan.dela_cruz")
	assert.NotEmpty(t, session.Token)
}

func TestLogin_DefaultsToDispatcher(t *testing.T) {
	svc, _ := newTestAuthService(t)

	session, err := svc.Login(context.Background(), "ops@resq.ph", "x", "")

	require.NoError(t, err)
	assert.Equal(t, models.RoleDispatcher, session.User.Role)
}

func TestLogin_EmptyCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "", "secret", models.RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "a@b.c", "", models.RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSession_RoundTrip(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, "maria@resq.ph", "pw", models.RoleAdmin)
	require.NoError(t, err)

	restored, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session, restored)

	require.NoError(t, svc.Logout(ctx, session.Token))
	_, err = svc.Restore(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.NoError(t, svc.Logout(ctx, "unknown-token"))
}

func TestRestore_CorruptedSessionIsCleared(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, sessionKeyPrefix+"tok", "{broken"))

	_, err := svc.Restore(ctx, "tok")

	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(ctx, sessionKeyPrefix+"tok")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAuthenticate_RejectsForeignSignature(t *testing.T) {
	svc, _ := newTestAuthService(t)
	other := NewAuthService(storage.NewMemoryStore(), "another-secret", clockwork.NewFakeClock(), logrus.New())
	ctx := context.Background()

	session, err := other.Login(ctx, "eve@evil.io", "pw", models.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ops", displayName("ops"))
	assert.Equal(t, "Maria Clara", displayName("maria_clara"))
	assert.Equal(t, "A B C", displayName("a.b.c"))
}
