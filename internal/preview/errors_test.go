package preview

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("fetch dir: %w", &Error{Kind: RateLimited, Status: 403})

	require.Equal(t, RateLimited, KindOf(wrapped))
	require.Equal(t, GenericFailure, KindOf(errors.New("plain")))
	require.Equal(t, NoAccess, KindOf(NewError(NoAccess, nil)))
}

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &Error{Kind: GenericFailure, Status: 502, Err: cause}

	require.ErrorIs(t, err, cause)
	require.Equal(t, "DEFAULT (HTTP 502): connection reset", err.Error())
	require.Equal(t, "RATE_LIMIT", (&Error{Kind: RateLimited}).Error())
}

func TestMessage_EveryKindHasText(t *testing.T) {
	for _, kind := range []ErrorKind{GenericFailure, NoCredential, RateLimited, NoAccess, RenderTimeout, RenderFailure, EmptyResult} {
		require.NotEmpty(t, Message(kind), kind.String())
	}
	require.Equal(t, Message(GenericFailure), Message(ErrorKind(99)))
	require.Equal(t, "API rate limit exceeded. Please wait a moment before trying again.", Message(RateLimited))
}
