package restbackend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-testboard-client/apiclient"
	apperrors "github.com/jrsteele09/go-testboard-client/internal/errors"
	"github.com/jrsteele09/go-testboard-client/session"
	"github.com/jrsteele09/go-testboard-client/session/restbackend"
	"github.com/jrsteele09/go-testboard-client/tokenstore"
	"github.com/jrsteele09/go-testboard-client/tokenstore/memstore"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func mintToken(t *testing.T, sub string, scopes map[string]any, exp time.Time) string {
	t.Helper()
	claims := jwtlib.MapClaims{
		"sub":    sub,
		"scopes": scopes,
		"exp":    exp.Unix(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// fakeAPI is a minimal stand-in for the testboard auth endpoints
type fakeAPI struct {
	t        *testing.T
	accounts map[string]string
	scopes   map[string]map[string]any
	revoked  []string
	meCalls  int
	// meStatus, when set, answers GET /users/me with that status
	meStatus int
}

func (api *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/token":
		require.NoError(api.t, r.ParseForm())
		require.Equal(api.t, "password", r.PostForm.Get("grant_type"))
		username := r.PostForm.Get("username")
		if pw, ok := api.accounts[username]; !ok || pw != r.PostForm.Get("password") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": mintToken(api.t, username, api.scopes[username], fixedNow.Add(time.Hour)),
			"token_type":   "Bearer",
		})
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/users/me":
		api.meCalls++
		if api.meStatus != 0 {
			w.WriteHeader(api.meStatus)
			return
		}
		tok, _, err := jwtlib.NewParser().ParseUnverified(r.Header.Get("Authorization")[len("Bearer "):], jwtlib.MapClaims{})
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		sub, _ := tok.Claims.GetSubject()
		if _, ok := api.accounts[sub]; !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Could not validate credentials"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"username": sub, "scopes": api.scopes[sub]})
	case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/token":
		api.revoked = append(api.revoked, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type testFixture struct {
	api     *fakeAPI
	backend *restbackend.RestBackend
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	api := &fakeAPI{
		t:        t,
		accounts: map[string]string{"admin": "admin", "tester": "pass"},
		scopes: map[string]map[string]any{
			"admin":  {"*": "admin"},
			"tester": {"*": "user"},
		},
	}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	client, err := apiclient.New(server.URL+"/api/v1", apiclient.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	backend, err := restbackend.New(client,
		restbackend.WithHTTPClient(server.Client()),
		restbackend.WithNowTime(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return &testFixture{api: api, backend: backend}
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := restbackend.New(nil)
	require.Error(t, err)
}

func TestResolveCredentials(t *testing.T) {
	f := setupTestFixture(t)

	identity, token, err := f.backend.ResolveCredentials(context.Background(), session.Credentials{Username: "admin", Password: "admin"})
	require.NoError(t, err)
	require.Equal(t, session.Identity{Username: "admin", IsAdmin: true}, identity)
	require.NotEmpty(t, token)

	identity, _, err = f.backend.ResolveCredentials(context.Background(), session.Credentials{Username: "tester", Password: "pass"})
	require.NoError(t, err)
	require.Equal(t, session.Identity{Username: "tester", IsAdmin: false}, identity)
}

func TestResolveCredentials_Rejected(t *testing.T) {
	f := setupTestFixture(t)

	_, token, err := f.backend.ResolveCredentials(context.Background(), session.Credentials{Username: "admin", Password: "wrong"})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	require.Empty(t, token)
}

func TestResolveToken(t *testing.T) {
	f := setupTestFixture(t)

	token := mintToken(t, "admin", map[string]any{"*": "admin"}, fixedNow.Add(time.Minute))
	identity, err := f.backend.ResolveToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, session.Identity{Username: "admin", IsAdmin: true}, identity)
	require.Equal(t, 1, f.api.meCalls)
}

func TestResolveToken_NoWhoAmIEndpointUsesClaims(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusMethodNotAllowed} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			f := setupTestFixture(t)
			f.api.meStatus = status

			token := mintToken(t, "tester", map[string]any{"*": "user"}, fixedNow.Add(time.Minute))
			identity, err := f.backend.ResolveToken(context.Background(), token)
			require.NoError(t, err)
			require.Equal(t, session.Identity{Username: "tester"}, identity)
			require.Equal(t, 1, f.api.meCalls)

			expired := mintToken(t, "tester", nil, fixedNow.Add(-time.Minute))
			_, err = f.backend.ResolveToken(context.Background(), expired)
			require.ErrorIs(t, err, apperrors.ErrTokenExpired)
		})
	}
}

func TestResolveToken_WhoAmIServerErrorIsReturned(t *testing.T) {
	f := setupTestFixture(t)
	f.api.meStatus = http.StatusInternalServerError

	token := mintToken(t, "admin", map[string]any{"*": "admin"}, fixedNow.Add(time.Minute))
	_, err := f.backend.ResolveToken(context.Background(), token)
	apiErr, ok := apiclient.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestResolveToken_ExpiredIsRejectedLocally(t *testing.T) {
	f := setupTestFixture(t)

	token := mintToken(t, "admin", map[string]any{"*": "admin"}, fixedNow.Add(-time.Minute))
	_, err := f.backend.ResolveToken(context.Background(), token)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)
	require.Zero(t, f.api.meCalls)
}

func TestResolveToken_NotAJWT(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.backend.ResolveToken(context.Background(), "mock-admin-jwt-token")
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestResolveToken_UnknownSubject(t *testing.T) {
	f := setupTestFixture(t)

	token := mintToken(t, "deleted-user", nil, fixedNow.Add(time.Minute))
	_, err := f.backend.ResolveToken(context.Background(), token)
	require.Error(t, err)

	apiErr, ok := apiclient.AsAPIError(err)
	require.True(t, ok)
	require.True(t, apiErr.IsUnauthorized())
}

func TestSessionIntegration_LoginRestoreRevoke(t *testing.T) {
	f := setupTestFixture(t)
	store := memstore.New()

	s, err := session.New(f.backend, store)
	require.NoError(t, err)
	require.NoError(t, s.Login(context.Background(), session.Credentials{Username: "admin", Password: "admin"}))
	require.True(t, s.IsAdmin())

	restored, err := session.New(f.backend, store)
	require.NoError(t, err)
	require.NoError(t, restored.CheckAuth(context.Background()))
	require.True(t, restored.IsAuthenticated())

	token := restored.Token()
	require.NoError(t, restored.Revoke(context.Background()))
	require.Equal(t, []string{"Bearer " + token}, f.api.revoked)

	_, err = store.Get(tokenstore.TokenKey)
	require.ErrorIs(t, err, apperrors.ErrNoToken)
}

func TestSessionIntegration_StaleTokenCleared(t *testing.T) {
	f := setupTestFixture(t)
	store := memstore.New()
	require.NoError(t, store.Set(tokenstore.TokenKey, mintToken(t, "deleted-user", nil, fixedNow.Add(time.Minute))))

	s, err := session.New(f.backend, store)
	require.NoError(t, err)
	require.NoError(t, s.CheckAuth(context.Background()))
	require.False(t, s.IsAuthenticated())
	require.Empty(t, s.Token())
}
