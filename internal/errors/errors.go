package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials is returned by a backend that rejected a login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoToken means the token store holds no session token.
	ErrNoToken = errors.New("no token")
	// ErrInvalidToken and ErrTokenExpired mark a persisted token that must
	// be discarded.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	ErrNotFound = errors.New("not found")
)

// Wrapf adds context in front of err and keeps it unwrappable.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Message is the text recorded on a store after a failure: the error's own
// message, or fallback when there is none.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
