package errors_test

import (
	"errors"
	"testing"

	apperrors "github.com/jrsteele09/go-testboard-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapf(t *testing.T) {
	require.NoError(t, apperrors.Wrapf(nil, "context"))

	err := apperrors.Wrapf(apperrors.ErrNotFound, "[Store.Fetch] route %q", "users")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.EqualError(t, err, `[Store.Fetch] route "users": not found`)
}

func TestMessage(t *testing.T) {
	require.Equal(t, "fallback", apperrors.Message(nil, "fallback"))
	require.Equal(t, "fallback", apperrors.Message(errors.New("  "), "fallback"))
	require.Equal(t, "boom", apperrors.Message(errors.New("boom"), "fallback"))
}
