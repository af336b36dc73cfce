package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// Config holds browser session configuration
type Config struct {
	// ControlURL is the DevTools websocket of a remote browser service.
	// Empty means launch a local Chrome bound to ProfileDir.
	ControlURL string
	// APIKey authenticates against the remote browser service. Appended as
	// a token query parameter on the control URL when set.
	APIKey string
	// ProfileDir is the durable user-data directory that persists the
	// WhatsApp Web login between dispatch attempts.
	ProfileDir string
	Headless   bool
	// NoSandbox disables the Chrome kernel sandbox. Required in container
	// environments that lack the privileges the sandbox needs.
	NoSandbox      bool
	AcquireTimeout time.Duration
}

// SessionManager grants scoped, exclusively-owned access to one live
// browser/page pairing per dispatch attempt.
type SessionManager interface {
	// WithSession acquires a session, runs fn against its page, and
	// releases the session on every exit path, including panics in fn.
	WithSession(ctx context.Context, fn func(ctx context.Context, page Page) error) error
	// Profile identifies the browser profile this manager is bound to.
	Profile() string
}

// Manager implements SessionManager on go-rod. The profile directory is a
// singleton shared resource; a mutex keeps concurrent callers from
// disturbing each other's navigation state.
type Manager struct {
	cfg    Config
	logger *slog.Logger
	mu     sync.Mutex
}

func NewManager(cfg Config, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger}
}

func (m *Manager) Profile() string {
	return m.cfg.ProfileDir
}

// releaseTimeout bounds the close calls issued during session release.
const releaseTimeout = 5 * time.Second

// closeContext returns a short-lived context detached from the dispatch
// context. Release runs through it so the close calls still reach the
// browser after the dispatch context was cancelled or its acquire timeout
// expired, which are exactly the paths where release matters most.
func closeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), releaseTimeout)
}

// WithSession acquires one browser/page pairing, runs fn, and guarantees
// release. A leaked session is a resource leak in the remote browser pool,
// so release happens on the error and panic paths too. The acquire timeout
// covers only connect and page creation; fn runs against the caller's
// context.
func (m *Manager) WithSession(ctx context.Context, fn func(ctx context.Context, page Page) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acquireCtx, cancel := context.WithTimeout(ctx, m.cfg.AcquireTimeout)
	defer cancel()

	browser, release, err := m.connect(acquireCtx)
	if err != nil {
		return fmt.Errorf("acquire session: %w", err)
	}
	defer release()

	page, err := browser.Context(acquireCtx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	defer func() {
		closeCtx, closeCancel := closeContext()
		defer closeCancel()
		_ = page.Context(closeCtx).Close()
	}()

	return fn(ctx, &rodPage{page: page.Context(ctx)})
}

// connect attaches to the remote browser when a control URL is configured,
// otherwise launches a local Chrome bound to the profile directory.
func (m *Manager) connect(ctx context.Context) (*rod.Browser, func(), error) {
	controlURL := m.cfg.ControlURL
	var launch *launcher.Launcher

	if controlURL == "" {
		launch = launcher.New().
			Headless(m.cfg.Headless).
			UserDataDir(m.cfg.ProfileDir)
		if m.cfg.NoSandbox {
			launch = launch.Set(flags.NoSandbox).Set("disable-setuid-sandbox")
		}

		launched, err := launch.Context(ctx).Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = launched
	} else if m.cfg.APIKey != "" {
		authed, err := withToken(controlURL, m.cfg.APIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("control url: %w", err)
		}
		controlURL = authed
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		if launch != nil {
			launch.Kill()
		}
		return nil, nil, fmt.Errorf("connect to browser: %w", err)
	}

	// Release must not run on the acquire context: by the time it fires
	// that context may be cancelled or expired, and a Close issued through
	// it would fail and leak the remote session.
	release := func() {
		closeCtx, cancel := closeContext()
		defer cancel()
		if err := browser.Context(closeCtx).Close(); err != nil {
			m.logger.Warn("browser close failed", "error", err)
		}
		if launch != nil {
			launch.Kill()
		}
	}
	return browser, release, nil
}

func withToken(controlURL, token string) (string, error) {
	u, err := url.Parse(controlURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
