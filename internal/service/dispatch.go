package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kaisan-events/registration-service/internal/browser"
	"github.com/kaisan-events/registration-service/internal/config"
	"github.com/kaisan-events/registration-service/internal/domain"
	"github.com/kaisan-events/registration-service/internal/phone"
	"github.com/kaisan-events/registration-service/internal/template"
)

// chatURL is the WhatsApp Web click-to-chat deep link: it opens a compose
// view pre-filled with the message, bypassing contact search.
const chatURL = "https://web.whatsapp.com/send?phone=%s&text=%s"

const loginURL = "https://web.whatsapp.com"

// nameFallback is substituted when a registrant has no usable name
const nameFallback = "Attendee"

// RateLimiter bounds dispatch starts per profile
type RateLimiter interface {
	Allow(ctx context.Context, profile string) (bool, error)
}

// ProfileLocker serializes dispatch attempts per profile across process
// instances. May be nil for single-instance deployments.
type ProfileLocker interface {
	Lock(ctx context.Context, profile string) (func(), error)
}

// DispatchService orchestrates one reminder dispatch end to end:
// registrant lookup, phone normalization, template rendering, session
// acquisition, authentication probing, and the send action.
type DispatchService struct {
	registrants domain.RegistrantRepository
	dispatchLog domain.DispatchLogRepository
	catalog     *template.Catalog
	sessions    browser.SessionManager
	prober      browser.AuthProber
	limiter     RateLimiter
	locker      ProfileLocker
	logger      *slog.Logger
	cfg         config.DispatchConfig

	statusBroadcast func(attempt *domain.DispatchAttempt)

	// profileLocks serializes in-process dispatch attempts per profile
	// path. The shared browser profile is the mechanism that persists
	// authentication, which makes it a singleton resource: two concurrent
	// sessions against it would disturb each other's navigation state.
	mu           sync.Mutex
	profileLocks map[string]*sync.Mutex
}

// NewDispatchService creates a new DispatchService
func NewDispatchService(
	registrants domain.RegistrantRepository,
	dispatchLog domain.DispatchLogRepository,
	catalog *template.Catalog,
	sessions browser.SessionManager,
	prober browser.AuthProber,
	limiter RateLimiter,
	locker ProfileLocker,
	logger *slog.Logger,
	cfg config.DispatchConfig,
) *DispatchService {
	return &DispatchService{
		registrants:  registrants,
		dispatchLog:  dispatchLog,
		catalog:      catalog,
		sessions:     sessions,
		prober:       prober,
		limiter:      limiter,
		locker:       locker,
		logger:       logger,
		cfg:          cfg,
		profileLocks: make(map[string]*sync.Mutex),
	}
}

// SetStatusBroadcast sets the function to broadcast attempt updates
func (s *DispatchService) SetStatusBroadcast(fn func(attempt *domain.DispatchAttempt)) {
	s.statusBroadcast = fn
}

// Dispatch performs one dispatch attempt and produces exactly one outcome.
// It never panics outward: any unexpected failure surfaces as a transient
// outcome with the session released.
func (s *DispatchService) Dispatch(ctx context.Context, req domain.DispatchRequest) (outcome domain.DispatchOutcome) {
	start := time.Now()
	canonical := ""

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during dispatch",
				"registrant_id", req.RegistrantID,
				"kind", req.Kind,
				"panic", r,
			)
			outcome = domain.TransientOutcome(fmt.Sprintf("internal error: %v", r))
		}
		s.record(req, canonical, outcome, time.Since(start))
	}()

	// Cheap checks first: nothing below this block may run before the
	// registrant and template are resolved, so no session is consumed on
	// requests that can never succeed.
	reg, err := s.registrants.GetByID(ctx, req.RegistrantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PermanentOutcome(domain.ReasonNotFound)
		}
		return domain.TransientOutcome("registrant lookup failed: " + err.Error())
	}

	name := reg.DisplayName()
	if name == "" {
		name = nameFallback
	}

	canonical = phone.Normalize(reg.ContactPhone(), s.cfg.DefaultCountryCode)
	if canonical == "" {
		return domain.PermanentOutcome(domain.ReasonInvalidPhone)
	}

	msg, err := s.catalog.Resolve(req.Kind)
	if err != nil {
		return domain.PermanentOutcome(domain.ReasonInvalidKind)
	}
	body := msg.Render(name)

	profile := s.sessions.Profile()
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, profile)
		if err != nil {
			s.logger.Warn("rate limit check failed", "error", err)
		} else if !allowed {
			return domain.TransientOutcome(domain.ErrRateLimitExceeded.Error())
		}
	}

	unlock, err := s.lockProfile(ctx, profile)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.TransientOutcome(domain.ReasonCancelled)
		}
		return domain.TransientOutcome("profile lock: " + err.Error())
	}
	defer unlock()

	var state browser.AuthState
	err = s.sessions.WithSession(ctx, func(ctx context.Context, page browser.Page) error {
		target := fmt.Sprintf(chatURL, canonical, url.QueryEscape(body))
		if err := page.Navigate(ctx, target); err != nil {
			return fmt.Errorf("navigate: %w", err)
		}

		probed, err := s.prober.Probe(ctx, page, s.cfg.ProbeTimeout)
		if err != nil {
			return fmt.Errorf("probe: %w", err)
		}
		state = probed
		if state.Status != browser.AuthStatusAuthenticated {
			return nil
		}

		if err := page.Click(ctx, browser.SendSelector); err != nil {
			return fmt.Errorf("send: %w", err)
		}

		// The web client gives no synchronous send confirmation; the
		// settle delay lets the transmission register before the session
		// closes. Best effort, not a delivery guarantee.
		select {
		case <-time.After(s.cfg.SettleDelay):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.TransientOutcome(domain.ReasonCancelled)
		}
		return domain.TransientOutcome(err.Error())
	}

	switch state.Status {
	case browser.AuthStatusNeedsScan:
		// Recoverable, not a failure: the operator scans the QR and the
		// caller retries the same request.
		return domain.AuthRequiredOutcome(state.QRImage)
	case browser.AuthStatusIndeterminate:
		return domain.TransientOutcome(domain.ReasonLoadTimeout)
	}

	return domain.SentOutcome()
}

// CheckLogin probes the profile's authentication state without sending
// anything.
func (s *DispatchService) CheckLogin(ctx context.Context) (browser.AuthState, error) {
	unlock, err := s.lockProfile(ctx, s.sessions.Profile())
	if err != nil {
		return browser.AuthState{}, err
	}
	defer unlock()

	var state browser.AuthState
	err = s.sessions.WithSession(ctx, func(ctx context.Context, page browser.Page) error {
		if err := page.Navigate(ctx, loginURL); err != nil {
			return fmt.Errorf("navigate: %w", err)
		}
		probed, err := s.prober.Probe(ctx, page, s.cfg.ProbeTimeout)
		if err != nil {
			return err
		}
		state = probed
		return nil
	})
	if err != nil {
		return browser.AuthState{}, err
	}
	return state, nil
}

// ListAttempts lists dispatch audit entries
func (s *DispatchService) ListAttempts(ctx context.Context, filter domain.DispatchLogFilter) (*domain.DispatchLogResult, error) {
	return s.dispatchLog.List(ctx, filter)
}

// lockProfile serializes dispatch attempts: the in-process mutex first,
// then the distributed lock when one is configured.
func (s *DispatchService) lockProfile(ctx context.Context, profile string) (func(), error) {
	s.mu.Lock()
	lock, ok := s.profileLocks[profile]
	if !ok {
		lock = &sync.Mutex{}
		s.profileLocks[profile] = lock
	}
	s.mu.Unlock()

	lock.Lock()

	if s.locker == nil {
		return lock.Unlock, nil
	}

	release, err := s.locker.Lock(ctx, profile)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	return func() {
		release()
		lock.Unlock()
	}, nil
}

// record persists the attempt to the audit log and broadcasts it. Failures
// here never change the outcome already produced.
func (s *DispatchService) record(req domain.DispatchRequest, canonical string, outcome domain.DispatchOutcome, elapsed time.Duration) {
	attempt := &domain.DispatchAttempt{
		ID:           uuid.New(),
		RegistrantID: req.RegistrantID,
		Kind:         req.Kind,
		Phone:        canonical,
		Status:       outcome.Status,
		Reason:       outcome.Reason,
		DurationMS:   elapsed.Milliseconds(),
		CreatedAt:    time.Now().UTC(),
	}

	// Detached context: the audit record should survive request
	// cancellation.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.dispatchLog.Create(ctx, attempt); err != nil {
		s.logger.Error("failed to record dispatch attempt",
			"registrant_id", req.RegistrantID,
			"error", err,
		)
	}

	if s.statusBroadcast != nil {
		s.statusBroadcast(attempt)
	}

	logFn := s.logger.Info
	if outcome.Status == domain.OutcomeTransient || outcome.Status == domain.OutcomePermanent {
		logFn = s.logger.Warn
	}
	logFn("dispatch attempt finished",
		"registrant_id", req.RegistrantID,
		"kind", req.Kind,
		"status", outcome.Status,
		"reason", outcome.Reason,
		"duration_ms", attempt.DurationMS,
	)
}
