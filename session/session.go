package session

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-testboard-client/internal/errors"
	"github.com/jrsteele09/go-testboard-client/tokenstore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// InvalidCredentialsMessage is the error shown after a rejected login.
const InvalidCredentialsMessage = "Invalid credentials"

// State is the position of a Session in its authentication lifecycle.
type State int

const (
	StateUnknown         State = iota // not yet checked against the persisted token
	StateAuthenticating               // login or restore in flight
	StateAuthenticated                // user and token valid
	StateUnauthenticated              // logged out or token rejected
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "invalid"
}

// Identity is the user a token resolves to.
type Identity struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

type Credentials struct {
	Username string
	Password string
}

// Snapshot is a copy of the session state at one point in time.
type Snapshot struct {
	State           State
	User            *Identity
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// Backend resolves credentials and tokens to identities. Implementations
// return errors.ErrInvalidCredentials (internal/errors) for rejected
// credentials and errors.ErrInvalidToken or errors.ErrTokenExpired for
// tokens that must be discarded.
type Backend interface {
	ResolveCredentials(ctx context.Context, credentials Credentials) (Identity, string, error)
	ResolveToken(ctx context.Context, token string) (Identity, error)
}

// Revoker is implemented by backends that can invalidate a token server side.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
}

// Session holds the authenticated identity and is the only writer of the
// persisted token.
type Session struct {
	backend Backend
	store   tokenstore.Store

	mu      sync.RWMutex
	state   State
	user    *Identity
	loading bool
	err     string
}

// Option defines a function type to modify the Session instance.
type Option func(*Session)

// WithInitialState seeds the state (primarily for testing).
func WithInitialState(state State, user *Identity) Option {
	return func(s *Session) {
		s.state = state
		if user != nil {
			u := *user
			s.user = &u
		}
	}
}

func New(backend Backend, store tokenstore.Store, options ...Option) (*Session, error) {
	if backend == nil {
		return nil, errors.New("[session.New] backend is required")
	}
	if store == nil {
		return nil, errors.New("[session.New] token store is required")
	}

	s := &Session{
		backend: backend,
		store:   store,
		state:   StateUnknown,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login resolves the credentials and, on success, persists the token. The
// error message is recorded on the session as well as returned.
func (s *Session) Login(ctx context.Context, credentials Credentials) error {
	s.begin()
	defer s.settle()

	identity, token, err := s.backend.ResolveCredentials(ctx, credentials)
	if err != nil {
		s.fail(loginMessage(err))
		log.Debug().Err(err).Str("username", credentials.Username).Msg("Login rejected")
		return errors.Wrap(err, "[Session.Login] ResolveCredentials")
	}

	if err := s.store.Set(tokenstore.TokenKey, token); err != nil {
		s.fail("Failed to persist session")
		log.Err(err).Msg("Failed to persist token")
		return errors.Wrap(err, "[Session.Login] store.Set")
	}

	s.mu.Lock()
	s.user = &identity
	s.state = StateAuthenticated
	s.err = ""
	s.mu.Unlock()
	return nil
}

// Logout clears the persisted token and the identity. It never calls the
// backend.
func (s *Session) Logout() {
	if err := s.store.Delete(tokenstore.TokenKey); err != nil {
		log.Err(err).Msg("Failed to remove persisted token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.state = StateUnauthenticated
	s.err = ""
}

// Revoke asks the backend to invalidate the token, when it can, and then
// logs out locally whatever the outcome.
func (s *Session) Revoke(ctx context.Context) error {
	defer s.Logout()

	revoker, ok := s.backend.(Revoker)
	if !ok {
		return nil
	}
	token := s.Token()
	if token == "" {
		return nil
	}
	if err := revoker.Revoke(ctx, token); err != nil {
		return errors.Wrap(err, "[Session.Revoke]")
	}
	return nil
}

// CheckAuth restores the session from the persisted token. Without a token
// the session settles as unauthenticated and storage is left alone. A token
// the backend rejects is removed. Other failures (network, cancelled
// context) leave the token in place, return the session to StateUnknown so
// a later restore retries, and are returned.
func (s *Session) CheckAuth(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		s.mu.Lock()
		s.user = nil
		s.state = StateUnauthenticated
		s.mu.Unlock()
		return nil
	}

	s.begin()
	defer s.settle()

	identity, err := s.backend.ResolveToken(ctx, token)
	if err != nil {
		if isStale(err) {
			log.Debug().Err(err).Msg("Persisted token rejected, logging out")
			s.Logout()
			return nil
		}
		s.mu.Lock()
		s.user = nil
		s.state = StateUnknown
		s.mu.Unlock()
		return errors.Wrap(err, "[Session.CheckAuth] ResolveToken")
	}

	s.mu.Lock()
	s.user = &identity
	s.state = StateAuthenticated
	s.err = ""
	s.mu.Unlock()
	return nil
}

// Token returns the persisted token or "" when there is none. It implements
// apiclient.TokenSource.
func (s *Session) Token() string {
	token, err := s.store.Get(tokenstore.TokenKey)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNoToken) {
			log.Err(err).Msg("Failed to read persisted token")
		}
		return ""
	}
	return token
}

// HasPersistedToken reports whether a token is available for restore.
func (s *Session) HasPersistedToken() bool {
	return s.Token() != ""
}

// IsAdmin is false when no user is present.
func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsAdmin
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateAuthenticated && s.user != nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		State:           s.state,
		IsAuthenticated: s.state == StateAuthenticated && s.user != nil,
		IsLoading:       s.loading,
		Error:           s.err,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticating
	s.loading = true
	s.err = ""
}

func (s *Session) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if s.state == StateAuthenticating {
		s.state = StateUnauthenticated
	}
}

func (s *Session) fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.state = StateUnauthenticated
	s.err = message
}

func loginMessage(err error) string {
	if errors.Is(err, apperrors.ErrInvalidCredentials) {
		return InvalidCredentialsMessage
	}
	return apperrors.Message(err, "Login failed")
}

func isStale(err error) bool {
	if errors.Is(err, apperrors.ErrInvalidToken) || errors.Is(err, apperrors.ErrTokenExpired) {
		return true
	}
	var unauthorized interface{ IsUnauthorized() bool }
	return errors.As(err, &unauthorized) && unauthorized.IsUnauthorized()
}
