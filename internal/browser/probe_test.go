package browser

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage resolves configured selectors after a delay and blocks forever
// on everything else until the context is cancelled.
type fakePage struct {
	mu         sync.Mutex
	resolve    map[string]time.Duration
	screenshot []byte
	shotErr    error
	navigated  []string
	clicked    []string
	waitCtxs   map[string]context.Context
}

func newFakePage() *fakePage {
	return &fakePage{
		resolve:  make(map[string]time.Duration),
		waitCtxs: make(map[string]context.Context),
	}
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakePage) WaitVisible(ctx context.Context, selector string) error {
	f.mu.Lock()
	delay, ok := f.resolve[selector]
	f.waitCtxs[selector] = ctx
	f.mu.Unlock()

	if !ok {
		<-ctx.Done()
		return ctx.Err()
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakePage) Click(ctx context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicked = append(f.clicked, selector)
	return nil
}

func (f *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	return f.screenshot, f.shotErr
}

func TestProbeAuthenticated(t *testing.T) {
	page := newFakePage()
	page.resolve[composeSelector] = 5 * time.Millisecond

	state, err := NewProber().Probe(context.Background(), page, time.Second)

	require.NoError(t, err)
	assert.Equal(t, AuthStatusAuthenticated, state.Status)
	assert.Nil(t, state.QRImage)
}

func TestProbeNeedsScanCapturesScreenshot(t *testing.T) {
	page := newFakePage()
	page.resolve[qrSelector] = 5 * time.Millisecond
	page.screenshot = []byte("qr-png")

	state, err := NewProber().Probe(context.Background(), page, time.Second)

	require.NoError(t, err)
	assert.Equal(t, AuthStatusNeedsScan, state.Status)
	assert.Equal(t, []byte("qr-png"), state.QRImage)
}

func TestProbeTimeoutIsIndeterminate(t *testing.T) {
	page := newFakePage()

	start := time.Now()
	state, err := NewProber().Probe(context.Background(), page, 30*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, AuthStatusIndeterminate, state.Status)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestProbeFirstToResolveWins(t *testing.T) {
	page := newFakePage()
	page.resolve[composeSelector] = 5 * time.Millisecond
	page.resolve[qrSelector] = 200 * time.Millisecond

	state, err := NewProber().Probe(context.Background(), page, time.Second)

	require.NoError(t, err)
	assert.Equal(t, AuthStatusAuthenticated, state.Status)
}

func TestProbeCancelsLosingWait(t *testing.T) {
	page := newFakePage()
	page.resolve[composeSelector] = time.Millisecond

	_, err := NewProber().Probe(context.Background(), page, time.Second)
	require.NoError(t, err)

	// the QR wait shares the race context, which is cancelled once the
	// compose wait wins
	var qrCtx context.Context
	require.Eventually(t, func() bool {
		page.mu.Lock()
		defer page.mu.Unlock()
		qrCtx = page.waitCtxs[qrSelector]
		return qrCtx != nil
	}, time.Second, time.Millisecond)

	select {
	case <-qrCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("losing wait was not cancelled")
	}
}

func TestProbeParentCancellation(t *testing.T) {
	page := newFakePage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProber().Probe(ctx, page, time.Second)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestProbeScreenshotFailure(t *testing.T) {
	page := newFakePage()
	page.resolve[qrSelector] = time.Millisecond
	page.shotErr = errors.New("page gone")

	_, err := NewProber().Probe(context.Background(), page, time.Second)
	assert.Error(t, err)
}
