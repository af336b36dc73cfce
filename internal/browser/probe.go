package browser

import (
	"context"
	"time"
)

// AuthStatus classifies the login state of the WhatsApp Web client
type AuthStatus string

const (
	AuthStatusAuthenticated AuthStatus = "authenticated"
	AuthStatusNeedsScan     AuthStatus = "needs_scan"
	// AuthStatusIndeterminate means neither UI state appeared within the
	// probe timeout. It must not be treated as authenticated.
	AuthStatusIndeterminate AuthStatus = "indeterminate"
)

// AuthState is the probe result. QRImage is set only for AuthStatusNeedsScan.
type AuthState struct {
	Status  AuthStatus
	QRImage []byte
}

// WhatsApp Web exposes exactly one of these elements depending on whether
// the session is linked.
const (
	composeSelector = `div[aria-label="Type a message"]`
	qrSelector      = `canvas[aria-label="Scan this QR code"]`
	// SendSelector is the compose view's send control, clicked after a
	// successful probe.
	SendSelector = `button[aria-label="Send"]`
)

// AuthProber classifies the authentication state of a live page
type AuthProber interface {
	Probe(ctx context.Context, page Page, timeout time.Duration) (AuthState, error)
}

// Prober races the two mutually exclusive UI states of the WhatsApp Web
// client against a shared deadline. Racing avoids guessing a fixed order
// and bounds worst-case latency to the timeout regardless of which state
// holds.
type Prober struct {
	compose string
	qr      string
}

func NewProber() *Prober {
	return &Prober{compose: composeSelector, qr: qrSelector}
}

// Probe waits for whichever of the compose box or the QR canvas appears
// first. The losing wait is cancelled through the shared context rather
// than left running against a page that is about to close. A QR hit
// captures a full-page screenshot for the operator to scan.
func (p *Prober) Probe(ctx context.Context, page Page, timeout time.Duration) (AuthState, error) {
	raceCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(chan AuthStatus, 2)
	wait := func(selector string, status AuthStatus) {
		if err := page.WaitVisible(raceCtx, selector); err == nil {
			results <- status
		}
	}
	go wait(p.compose, AuthStatusAuthenticated)
	go wait(p.qr, AuthStatusNeedsScan)

	select {
	case status := <-results:
		cancel()
		if status == AuthStatusNeedsScan {
			// Screenshot on the parent context: the race deadline may
			// already be nearly spent.
			img, err := page.Screenshot(ctx)
			if err != nil {
				return AuthState{}, err
			}
			return AuthState{Status: AuthStatusNeedsScan, QRImage: img}, nil
		}
		return AuthState{Status: AuthStatusAuthenticated}, nil
	case <-raceCtx.Done():
		if err := ctx.Err(); err != nil {
			return AuthState{}, err
		}
		return AuthState{Status: AuthStatusIndeterminate}, nil
	}
}
