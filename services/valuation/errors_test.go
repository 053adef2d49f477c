package valuation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := newError(KindBlocked, "results", errors.New("challenge still present"))
	require.Equal(t, KindBlocked, KindOf(err))

	wrapped := fmt.Errorf("evaluating: %w", err)
	require.Equal(t, KindBlocked, KindOf(wrapped))

	require.Equal(t, KindInternal, KindOf(errors.New("anything else")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("context deadline exceeded")
	err := newError(KindDeadline, "deadline", cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "deadline")
}

func TestPublicMessageHidesInternals(t *testing.T) {
	err := errorf(KindElementNotFound, "search_input",
		"no visible match among locators [id, name]: %v", "cdp session detail")

	msg := PublicMessage(err)
	require.NotEmpty(t, msg)
	require.NotContains(t, msg, "cdp")
	require.NotContains(t, msg, "locators")

	// every kind has a caller-safe message
	for kind := range publicMessages {
		require.NotEmpty(t, publicMessages[kind], string(kind))
	}
}
