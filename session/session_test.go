package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-testboard-client/internal/errors"
	"github.com/jrsteele09/go-testboard-client/session"
	"github.com/jrsteele09/go-testboard-client/session/fakebackend"
	"github.com/jrsteele09/go-testboard-client/tokenstore"
	"github.com/jrsteele09/go-testboard-client/tokenstore/filestore"
	"github.com/jrsteele09/go-testboard-client/tokenstore/memstore"
	"github.com/stretchr/testify/require"
)

// spyStore records calls so tests can assert the token-clearing path
type spyStore struct {
	*memstore.MemStore
	sets    []string
	deletes int
}

func newSpyStore() *spyStore {
	return &spyStore{MemStore: memstore.New()}
}

func (s *spyStore) Set(key, value string) error {
	s.sets = append(s.sets, value)
	return s.MemStore.Set(key, value)
}

func (s *spyStore) Delete(key string) error {
	s.deletes++
	return s.MemStore.Delete(key)
}

type testFixture struct {
	store   *spyStore
	backend *fakebackend.FakeBackend
	session *session.Session
}

func setupTestFixture(t *testing.T, options ...session.Option) *testFixture {
	t.Helper()

	backend, err := fakebackend.New()
	require.NoError(t, err)
	store := newSpyStore()

	s, err := session.New(backend, store, options...)
	require.NoError(t, err)

	return &testFixture{store: store, backend: backend, session: s}
}

func (f *testFixture) persist(t *testing.T, token string) {
	t.Helper()
	require.NoError(t, f.store.MemStore.Set(tokenstore.TokenKey, token))
}

func TestNew_RequiresDependencies(t *testing.T) {
	backend, err := fakebackend.New()
	require.NoError(t, err)

	_, err = session.New(nil, memstore.New())
	require.Error(t, err)

	_, err = session.New(backend, nil)
	require.Error(t, err)
}

func TestNew_InitialState(t *testing.T) {
	f := setupTestFixture(t)

	snap := f.session.Snapshot()
	require.Equal(t, session.StateUnknown, snap.State)
	require.False(t, snap.IsAuthenticated)
	require.False(t, snap.IsLoading)
	require.Nil(t, snap.User)
	require.Empty(t, snap.Error)
}

func TestLogin_Admin(t *testing.T) {
	f := setupTestFixture(t)

	err := f.session.Login(context.Background(), session.Credentials{Username: "admin", Password: "admin"})
	require.NoError(t, err)

	snap := f.session.Snapshot()
	require.Equal(t, session.StateAuthenticated, snap.State)
	require.True(t, snap.IsAuthenticated)
	require.False(t, snap.IsLoading)
	require.Empty(t, snap.Error)
	require.Equal(t, &session.Identity{Username: "admin", IsAdmin: true}, snap.User)
	require.Equal(t, []string{fakebackend.AdminToken}, f.store.sets)
	require.Equal(t, fakebackend.AdminToken, f.session.Token())
	require.True(t, f.session.IsAdmin())
}

func TestLogin_User(t *testing.T) {
	f := setupTestFixture(t)

	require.NoError(t, f.session.Login(context.Background(), session.Credentials{Username: "user", Password: "user"}))

	snap := f.session.Snapshot()
	require.True(t, snap.IsAuthenticated)
	require.Equal(t, &session.Identity{Username: "user", IsAdmin: false}, snap.User)
	require.Equal(t, []string{fakebackend.UserToken}, f.store.sets)
	require.False(t, f.session.IsAdmin())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	pairs := []session.Credentials{
		{Username: "wrong", Password: "user"},
		{Username: "admin", Password: "user"},
		{Username: "user", Password: "admin"},
		{Username: "", Password: ""},
		{Username: "ADMIN", Password: "admin"},
	}

	for _, creds := range pairs {
		t.Run(creds.Username+"/"+creds.Password, func(t *testing.T) {
			f := setupTestFixture(t)

			err := f.session.Login(context.Background(), creds)
			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

			snap := f.session.Snapshot()
			require.Equal(t, session.StateUnauthenticated, snap.State)
			require.False(t, snap.IsAuthenticated)
			require.False(t, snap.IsLoading)
			require.Nil(t, snap.User)
			require.Equal(t, "Invalid credentials", snap.Error)
			require.Empty(t, f.store.sets, "a failed login never persists a token")
		})
	}
}

func TestLogin_CancelledContextSettles(t *testing.T) {
	backend, err := fakebackend.New(fakebackend.WithLatency(time.Hour))
	require.NoError(t, err)
	s, err := session.New(backend, memstore.New())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Login(ctx, session.Credentials{Username: "admin", Password: "admin"})
	require.ErrorIs(t, err, context.Canceled)

	snap := s.Snapshot()
	require.False(t, snap.IsLoading)
	require.Equal(t, session.StateUnauthenticated, snap.State)
	require.NotEmpty(t, snap.Error)
	require.NotEqual(t, "Invalid credentials", snap.Error)
}

func TestLogout_FromAnyState(t *testing.T) {
	admin := &session.Identity{Username: "admin", IsAdmin: true}
	states := []struct {
		name  string
		state session.State
		user  *session.Identity
	}{
		{name: "unknown", state: session.StateUnknown},
		{name: "authenticating", state: session.StateAuthenticating},
		{name: "authenticated", state: session.StateAuthenticated, user: admin},
		{name: "unauthenticated", state: session.StateUnauthenticated},
	}

	for _, tt := range states {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t, session.WithInitialState(tt.state, tt.user))
			f.persist(t, fakebackend.AdminToken)

			f.session.Logout()

			snap := f.session.Snapshot()
			require.False(t, snap.IsAuthenticated)
			require.Nil(t, snap.User)
			require.Empty(t, snap.Error)
			require.Equal(t, session.StateUnauthenticated, snap.State)
			require.Empty(t, f.session.Token())
			require.Equal(t, 1, f.store.deletes)
		})
	}
}

func TestLogout_ClearsLoginError(t *testing.T) {
	f := setupTestFixture(t)
	_ = f.session.Login(context.Background(), session.Credentials{Username: "nobody", Password: "x"})
	require.Equal(t, "Invalid credentials", f.session.Snapshot().Error)

	f.session.Logout()
	require.Empty(t, f.session.Snapshot().Error)
}

func TestCheckAuth_NoToken(t *testing.T) {
	f := setupTestFixture(t)

	require.NoError(t, f.session.CheckAuth(context.Background()))

	snap := f.session.Snapshot()
	require.Equal(t, session.StateUnauthenticated, snap.State)
	require.False(t, snap.IsAuthenticated)
	require.Nil(t, snap.User)
	require.Zero(t, f.store.deletes, "no token means the clearing path is never taken")
}

func TestCheckAuth_RestoresKnownTokens(t *testing.T) {
	tests := []struct {
		token string
		want  session.Identity
	}{
		{token: fakebackend.AdminToken, want: session.Identity{Username: "admin", IsAdmin: true}},
		{token: fakebackend.UserToken, want: session.Identity{Username: "user", IsAdmin: false}},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			f := setupTestFixture(t)
			f.persist(t, tt.token)

			require.NoError(t, f.session.CheckAuth(context.Background()))

			snap := f.session.Snapshot()
			require.True(t, snap.IsAuthenticated)
			require.False(t, snap.IsLoading)
			require.Equal(t, &tt.want, snap.User)
			require.Zero(t, f.store.deletes)
		})
	}
}

func TestCheckAuth_UnknownTokenIsCleared(t *testing.T) {
	f := setupTestFixture(t)
	f.persist(t, "invalid-or-unknown-token")

	require.NoError(t, f.session.CheckAuth(context.Background()))

	snap := f.session.Snapshot()
	require.Equal(t, session.StateUnauthenticated, snap.State)
	require.False(t, snap.IsAuthenticated)
	require.Nil(t, snap.User)
	require.Empty(t, snap.Error, "a stale session is not surfaced as an error")
	require.Equal(t, 1, f.store.deletes)
	require.Empty(t, f.session.Token())
}

// flakyBackend fails token resolution with a transport-style error
type flakyBackend struct {
	session.Backend
}

func (flakyBackend) ResolveToken(context.Context, string) (session.Identity, error) {
	return session.Identity{}, errors.New("connection refused")
}

func TestCheckAuth_TransportFailureKeepsToken(t *testing.T) {
	backend, err := fakebackend.New()
	require.NoError(t, err)
	store := newSpyStore()
	require.NoError(t, store.MemStore.Set(tokenstore.TokenKey, fakebackend.AdminToken))

	s, err := session.New(flakyBackend{Backend: backend}, store)
	require.NoError(t, err)

	err = s.CheckAuth(context.Background())
	require.Error(t, err)
	require.Equal(t, session.StateUnknown, s.State(), "restore can be retried")
	require.False(t, s.IsAuthenticated())
	require.False(t, s.Snapshot().IsLoading)
	require.Zero(t, store.deletes)
	require.Equal(t, fakebackend.AdminToken, s.Token())
}

func TestIsAdmin(t *testing.T) {
	f := setupTestFixture(t)
	require.False(t, f.session.IsAdmin(), "no user")

	admin := setupTestFixture(t, session.WithInitialState(session.StateAuthenticated, &session.Identity{Username: "adminUser", IsAdmin: true}))
	require.True(t, admin.session.IsAdmin())

	normal := setupTestFixture(t, session.WithInitialState(session.StateAuthenticated, &session.Identity{Username: "normalUser", IsAdmin: false}))
	require.False(t, normal.session.IsAdmin())
}

// revokingBackend records revoked tokens
type revokingBackend struct {
	*fakebackend.FakeBackend
	revoked []string
}

func (rb *revokingBackend) Revoke(_ context.Context, token string) error {
	rb.revoked = append(rb.revoked, token)
	return nil
}

func TestRevoke_CallsBackendThenLogsOut(t *testing.T) {
	fb, err := fakebackend.New()
	require.NoError(t, err)
	backend := &revokingBackend{FakeBackend: fb}
	store := newSpyStore()
	s, err := session.New(backend, store)
	require.NoError(t, err)

	require.NoError(t, s.Login(context.Background(), session.Credentials{Username: "user", Password: "user"}))
	require.NoError(t, s.Revoke(context.Background()))

	require.Equal(t, []string{fakebackend.UserToken}, backend.revoked)
	require.False(t, s.IsAuthenticated())
	require.Empty(t, s.Token())
}

func TestRevoke_WithoutRevokerIsLocalLogout(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.session.Login(context.Background(), session.Credentials{Username: "admin", Password: "admin"}))

	require.NoError(t, f.session.Revoke(context.Background()))
	require.False(t, f.session.IsAuthenticated())
	require.Equal(t, 1, f.store.deletes)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "unknown", session.StateUnknown.String())
	require.Equal(t, "authenticating", session.StateAuthenticating.String())
	require.Equal(t, "authenticated", session.StateAuthenticated.String())
	require.Equal(t, "unauthenticated", session.StateUnauthenticated.String())
}

func TestLogin_RecoversFromUnreadableTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store, err := filestore.New(path)
	require.NoError(t, err)
	backend, err := fakebackend.New()
	require.NoError(t, err)
	s, err := session.New(backend, store)
	require.NoError(t, err)

	s.Logout()
	require.Empty(t, s.Token())

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	require.NoError(t, s.Login(context.Background(), session.Credentials{Username: "admin", Password: "admin"}))
	snap := s.Snapshot()
	require.Equal(t, session.StateAuthenticated, snap.State)
	require.Empty(t, snap.Error)
	require.Equal(t, fakebackend.AdminToken, s.Token())
}
