package fakebackend

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-testboard-client/internal/errors"
	"github.com/jrsteele09/go-testboard-client/session"
	"golang.org/x/crypto/bcrypt"
)

const (
	AdminToken = "mock-admin-jwt-token"
	UserToken  = "mock-user-jwt-token"
)

var _ session.Backend = (*FakeBackend)(nil)

type account struct {
	passwordHash []byte
	identity     session.Identity
	token        string
}

// FakeBackend recognises the two built-in accounts admin/admin and
// user/user and the tokens it hands out for them.
type FakeBackend struct {
	accounts map[string]account // username -> account
	tokens   map[string]session.Identity
	latency  time.Duration
	lock     sync.RWMutex
}

// Option defines a function type to modify the FakeBackend instance.
type Option func(*FakeBackend)

// WithLatency delays every call, as a remote backend would.
func WithLatency(latency time.Duration) Option {
	return func(fb *FakeBackend) {
		fb.latency = latency
	}
}

func New(options ...Option) (*FakeBackend, error) {
	fb := &FakeBackend{
		accounts: make(map[string]account),
		tokens:   make(map[string]session.Identity),
	}
	for _, opt := range options {
		opt(fb)
	}
	if err := fb.AddAccount("admin", "admin", AdminToken, true); err != nil {
		return nil, err
	}
	if err := fb.AddAccount("user", "user", UserToken, false); err != nil {
		return nil, err
	}
	return fb, nil
}

// AddAccount registers another username/password pair and its token.
func (fb *FakeBackend) AddAccount(username, password, token string, isAdmin bool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return apperrors.Wrapf(err, "[FakeBackend.AddAccount] hash %s", username)
	}
	identity := session.Identity{Username: username, IsAdmin: isAdmin}

	fb.lock.Lock()
	defer fb.lock.Unlock()
	fb.accounts[username] = account{passwordHash: hash, identity: identity, token: token}
	fb.tokens[token] = identity
	return nil
}

func (fb *FakeBackend) ResolveCredentials(ctx context.Context, credentials session.Credentials) (session.Identity, string, error) {
	if err := fb.wait(ctx); err != nil {
		return session.Identity{}, "", err
	}

	fb.lock.RLock()
	acc, ok := fb.accounts[credentials.Username]
	fb.lock.RUnlock()
	if !ok {
		return session.Identity{}, "", apperrors.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(credentials.Password)) != nil {
		return session.Identity{}, "", apperrors.ErrInvalidCredentials
	}
	return acc.identity, acc.token, nil
}

func (fb *FakeBackend) ResolveToken(ctx context.Context, token string) (session.Identity, error) {
	if err := fb.wait(ctx); err != nil {
		return session.Identity{}, err
	}

	fb.lock.RLock()
	defer fb.lock.RUnlock()
	identity, ok := fb.tokens[token]
	if !ok {
		return session.Identity{}, apperrors.ErrInvalidToken
	}
	return identity, nil
}

func (fb *FakeBackend) wait(ctx context.Context) error {
	if fb.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(fb.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
