package oidcbackend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/coreos/go-oidc/v3/oidc"
	apperrors "github.com/jrsteele09/go-testboard-client/internal/errors"
	"github.com/jrsteele09/go-testboard-client/internal/utils"
	"github.com/jrsteele09/go-testboard-client/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const adminRole = "admin"

var _ session.Backend = (*OIDCBackend)(nil)

// OIDCBackend logs in against an OpenID Connect provider with the password
// grant and persists the returned ID token. Restores verify that token's
// signature, issuer, audience and expiry.
type OIDCBackend struct {
	oauth      *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
}

// Option defines a function type to modify the OIDCBackend instance.
type Option func(*OIDCBackend)

// WithHTTPClient sets the client used for discovery and the token endpoint.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(ob *OIDCBackend) {
		ob.httpClient = httpClient
	}
}

// New discovers the provider at issuer.
func New(ctx context.Context, issuer, clientID, clientSecret string, options ...Option) (*OIDCBackend, error) {
	if issuer == "" {
		return nil, errors.New("[oidcbackend.New] issuer is required")
	}
	if clientID == "" {
		return nil, errors.New("[oidcbackend.New] client id is required")
	}

	ob := &OIDCBackend{httpClient: http.DefaultClient}
	for _, opt := range options {
		opt(ob)
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, ob.httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	ob.oauth = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	ob.verifier = provider.Verifier(&oidc.Config{ClientID: clientID})
	return ob, nil
}

// NewWithVerifier builds a backend from an already configured verifier and
// token endpoint (primarily for testing).
func NewWithVerifier(verifier *oidc.IDTokenVerifier, oauthConfig *oauth2.Config, options ...Option) (*OIDCBackend, error) {
	if verifier == nil {
		return nil, errors.New("[oidcbackend.NewWithVerifier] verifier is required")
	}
	if oauthConfig == nil {
		return nil, errors.New("[oidcbackend.NewWithVerifier] oauth config is required")
	}

	ob := &OIDCBackend{oauth: oauthConfig, verifier: verifier, httpClient: http.DefaultClient}
	for _, opt := range options {
		opt(ob)
	}
	return ob, nil
}

func (ob *OIDCBackend) ResolveCredentials(ctx context.Context, credentials session.Credentials) (session.Identity, string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, ob.httpClient)
	oauth2Token, err := ob.oauth.PasswordCredentialsToken(ctx, credentials.Username, credentials.Password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil &&
			retrieveErr.Response.StatusCode >= http.StatusBadRequest && retrieveErr.Response.StatusCode < http.StatusInternalServerError {
			return session.Identity{}, "", apperrors.ErrInvalidCredentials
		}
		return session.Identity{}, "", apperrors.Wrapf(err, "[OIDCBackend.ResolveCredentials] token request")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return session.Identity{}, "", errors.New("[OIDCBackend.ResolveCredentials] no ID token in response")
	}

	identity, err := ob.ResolveToken(ctx, rawIDToken)
	if err != nil {
		return session.Identity{}, "", err
	}
	return identity, rawIDToken, nil
}

func (ob *OIDCBackend) ResolveToken(ctx context.Context, rawIDToken string) (session.Identity, error) {
	idToken, err := ob.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		var expired *oidc.TokenExpiredError
		if errors.As(err, &expired) {
			return session.Identity{}, apperrors.ErrTokenExpired
		}
		log.Debug().Err(err).Msg("ID token verification failed")
		return session.Identity{}, apperrors.Wrapf(apperrors.ErrInvalidToken, "[OIDCBackend.ResolveToken] %v", err)
	}

	var claims struct {
		PreferredUsername string `json:"preferred_username"`
		IsAdmin           bool   `json:"is_admin"`
		Roles             any    `json:"roles"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return session.Identity{}, apperrors.Wrapf(apperrors.ErrInvalidToken, "[OIDCBackend.ResolveToken] claims: %v", err)
	}

	username := claims.PreferredUsername
	if username == "" {
		username = idToken.Subject
	}
	return session.Identity{
		Username: username,
		IsAdmin:  claims.IsAdmin || slices.Contains(utils.Strings(claims.Roles), adminRole),
	}, nil
}
