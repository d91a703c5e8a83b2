package oidcbackend_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-testboard-client/internal/errors"
	"github.com/jrsteele09/go-testboard-client/session"
	"github.com/jrsteele09/go-testboard-client/session/oidcbackend"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	clientID = "testboard"
	keyID    = "test-key"
)

type testFixture struct {
	key    *rsa.PrivateKey
	issuer string
	server *httptest.Server
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	f := &testFixture{key: key}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                f.issuer,
			"authorization_endpoint":                f.issuer + "/authorize",
			"token_endpoint":                        f.issuer + "/token",
			"jwks_uri":                              f.issuer + "/jwks",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"kid": keyID,
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}}})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		username := r.PostForm.Get("username")
		if r.PostForm.Get("password") != username+"-pw" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		claims := jwtlib.MapClaims{"preferred_username": username}
		if username == "lead" {
			claims["roles"] = []string{"tester", "admin"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "opaque",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     f.sign(t, "sub-"+username, time.Now().Add(time.Hour), claims),
		})
	})

	f.server = httptest.NewServer(mux)
	f.issuer = f.server.URL
	t.Cleanup(f.server.Close)
	return f
}

func (f *testFixture) sign(t *testing.T, sub string, exp time.Time, extra jwtlib.MapClaims) string {
	t.Helper()
	claims := jwtlib.MapClaims{
		"iss": f.issuer,
		"aud": clientID,
		"sub": sub,
		"iat": time.Now().Add(-time.Minute).Unix(),
		"exp": exp.Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims)
	tok.Header["kid"] = keyID
	signed, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func (f *testFixture) staticBackend(t *testing.T) *oidcbackend.OIDCBackend {
	t.Helper()
	verifier := oidc.NewVerifier(f.issuer, &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&f.key.PublicKey}}, &oidc.Config{ClientID: clientID})
	backend, err := oidcbackend.NewWithVerifier(verifier, &oauth2.Config{
		ClientID: clientID,
		Endpoint: oauth2.Endpoint{TokenURL: f.issuer + "/token", AuthStyle: oauth2.AuthStyleInParams},
	}, oidcbackend.WithHTTPClient(f.server.Client()))
	require.NoError(t, err)
	return backend
}

func TestNew_Validation(t *testing.T) {
	_, err := oidcbackend.New(context.Background(), "", clientID, "")
	require.Error(t, err)
	_, err = oidcbackend.New(context.Background(), "http://issuer", "", "")
	require.Error(t, err)
	_, err = oidcbackend.NewWithVerifier(nil, &oauth2.Config{})
	require.Error(t, err)
}

func TestNew_DiscoveryLoginAndRestore(t *testing.T) {
	f := setupTestFixture(t)

	backend, err := oidcbackend.New(context.Background(), f.issuer, clientID, "secret", oidcbackend.WithHTTPClient(f.server.Client()))
	require.NoError(t, err)

	identity, token, err := backend.ResolveCredentials(context.Background(), session.Credentials{Username: "lead", Password: "lead-pw"})
	require.NoError(t, err)
	require.Equal(t, session.Identity{Username: "lead", IsAdmin: true}, identity)

	restored, err := backend.ResolveToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, identity, restored)
}

func TestResolveCredentials_Rejected(t *testing.T) {
	f := setupTestFixture(t)
	backend := f.staticBackend(t)

	_, token, err := backend.ResolveCredentials(context.Background(), session.Credentials{Username: "lead", Password: "nope"})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	require.Empty(t, token)
}

func TestResolveToken_Claims(t *testing.T) {
	f := setupTestFixture(t)
	backend := f.staticBackend(t)

	tests := []struct {
		name  string
		extra jwtlib.MapClaims
		want  session.Identity
	}{
		{name: "subject fallback", extra: nil, want: session.Identity{Username: "sub-1"}},
		{name: "preferred username", extra: jwtlib.MapClaims{"preferred_username": "qa"}, want: session.Identity{Username: "qa"}},
		{name: "is_admin claim", extra: jwtlib.MapClaims{"preferred_username": "boss", "is_admin": true}, want: session.Identity{Username: "boss", IsAdmin: true}},
		{name: "admin role", extra: jwtlib.MapClaims{"roles": []string{"admin"}}, want: session.Identity{Username: "sub-1", IsAdmin: true}},
		{name: "other roles", extra: jwtlib.MapClaims{"roles": []string{"viewer"}}, want: session.Identity{Username: "sub-1"}},
		{name: "roles as string", extra: jwtlib.MapClaims{"roles": "viewer admin"}, want: session.Identity{Username: "sub-1", IsAdmin: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := backend.ResolveToken(context.Background(), f.sign(t, "sub-1", time.Now().Add(time.Hour), tt.extra))
			require.NoError(t, err)
			require.Equal(t, tt.want, identity)
		})
	}
}

func TestResolveToken_Rejections(t *testing.T) {
	f := setupTestFixture(t)
	backend := f.staticBackend(t)

	_, err := backend.ResolveToken(context.Background(), f.sign(t, "sub-1", time.Now().Add(-time.Minute), nil))
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)

	_, err = backend.ResolveToken(context.Background(), "mock-admin-jwt-token")
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	forged := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, jwtlib.MapClaims{
		"iss": f.issuer, "aud": clientID, "sub": "sub-1", "exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := forged.SignedString(other)
	require.NoError(t, err)
	_, err = backend.ResolveToken(context.Background(), signed)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
