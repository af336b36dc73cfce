package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseContextOutlivesDispatchContext(t *testing.T) {
	dispatchCtx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, dispatchCtx.Err())

	closeCtx, closeCancel := closeContext()
	defer closeCancel()

	// release runs after the dispatch context is already dead; the close
	// calls must still be able to reach the browser
	assert.NoError(t, closeCtx.Err())

	deadline, ok := closeCtx.Deadline()
	require.True(t, ok, "release must not wait forever on an unresponsive browser")
	assert.LessOrEqual(t, time.Until(deadline), releaseTimeout)
}

func TestWithToken(t *testing.T) {
	authed, err := withToken("ws://browser.example.com/devtools", "secret-key")
	require.NoError(t, err)
	assert.Equal(t, "ws://browser.example.com/devtools?token=secret-key", authed)
}

func TestWithTokenPreservesExistingQuery(t *testing.T) {
	authed, err := withToken("ws://browser.example.com/devtools?session=abc", "k")
	require.NoError(t, err)
	assert.Contains(t, authed, "session=abc")
	assert.Contains(t, authed, "token=k")
}

func TestWithTokenInvalidURL(t *testing.T) {
	_, err := withToken("://not-a-url", "k")
	assert.Error(t, err)
}
