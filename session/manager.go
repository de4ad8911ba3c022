package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SatishMiral/chrome-extension-backend/config"
	"github.com/SatishMiral/chrome-extension-backend/metrics"
	"github.com/SatishMiral/chrome-extension-backend/models"
)

// Manager holds the single shared browser session. It is safe for
// concurrent use.
//
// State machine:
//
//	unstarted --EnsureSession--> starting --ok--> live
//	starting  --attempts exhausted--> unstarted
//	live      --process gone (IsAlive)--> unstarted
//
// A request that holds a page context while the browser dies fails its
// in-flight operation; it is not migrated to the replacement session.
type Manager struct {
	launcher Launcher
	cfg      config.SessionConfig
	maxPages int
	slots    chan struct{} // nil when maxPages == 0

	mu      sync.RWMutex
	state   State
	current *Session

	active   atomic.Int32
	launches atomic.Int64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a Manager. No browser is launched until Start or
// EnsureSession is called. maxPages caps concurrent page contexts (0 = no cap).
func NewManager(launcher Launcher, cfg config.SessionConfig, maxPages int) *Manager {
	if cfg.WatchdogInterval <= 0 {
		cfg.WatchdogInterval = 60 * time.Second
	}
	if cfg.LaunchRetryDelay < 0 {
		cfg.LaunchRetryDelay = 0
	}
	m := &Manager{
		launcher: launcher,
		cfg:      cfg,
		maxPages: maxPages,
		state:    StateUnstarted,
	}
	if maxPages > 0 {
		m.slots = make(chan struct{}, maxPages)
	}
	return m
}

// Start launches the browser in the background and starts the watchdog.
// It returns immediately; until the launch succeeds, AcquirePageContext
// reports the session as unavailable.
func (m *Manager) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		if err := m.EnsureSession(runCtx); err != nil && runCtx.Err() == nil {
			slog.Error("initial browser launch failed, watchdog will retry",
				"error", err,
				"retryIn", m.cfg.WatchdogInterval,
			)
		}
	}()
	go func() {
		defer m.wg.Done()
		m.watchdog(runCtx)
	}()
}

// EnsureSession launches a browser if there is no live session. Attempts are
// separated by LaunchRetryDelay and bounded by MaxLaunchAttempts (0 = until
// ctx is done). If another launch is already in progress it returns nil
// without waiting.
func (m *Manager) EnsureSession(ctx context.Context) error {
	if m.IsAlive() {
		return nil
	}

	m.mu.Lock()
	if m.state == StateStarting {
		m.mu.Unlock()
		return nil
	}
	m.state = StateStarting
	m.mu.Unlock()

	browser, attempts, err := m.launchWithRetry(ctx)
	if err != nil {
		m.mu.Lock()
		m.state = StateUnstarted
		m.mu.Unlock()
		return models.NewScrapeError(
			models.ErrCodeLaunch,
			fmt.Sprintf("browser launch failed after %d attempt(s)", attempts),
			errors.Join(models.ErrLaunch, err),
		)
	}

	m.mu.Lock()
	m.current = &Session{Browser: browser, CreatedAt: time.Now()}
	m.state = StateLive
	m.mu.Unlock()
	metrics.BrowserLive.Set(1)

	slog.Info("browser session live", "pid", browser.PID(), "attempts", attempts)
	return nil
}

// launchWithRetry runs the shared retry policy. It returns the number of
// attempts made.
func (m *Manager) launchWithRetry(ctx context.Context) (Browser, int, error) {
	var lastErr error
	attempt := 0
	for m.cfg.MaxLaunchAttempts <= 0 || attempt < m.cfg.MaxLaunchAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, attempt, errors.Join(lastErr, ctx.Err())
			case <-time.After(m.cfg.LaunchRetryDelay):
			}
		}
		attempt++
		m.launches.Add(1)

		browser, err := m.launcher.Launch(ctx)
		if err == nil {
			metrics.BrowserLaunchesTotal.WithLabelValues("success").Inc()
			return browser, attempt, nil
		}

		metrics.BrowserLaunchesTotal.WithLabelValues("failure").Inc()
		lastErr = err
		slog.Error("browser launch failed",
			"attempt", attempt,
			"maxAttempts", m.cfg.MaxLaunchAttempts,
			"error", err,
		)
	}
	return nil, attempt, lastErr
}

// IsAlive reports whether a session exists and its browser process is still
// running. A dead session is dropped so the next EnsureSession replaces it.
func (m *Manager) IsAlive() bool {
	m.mu.RLock()
	s := m.current
	m.mu.RUnlock()

	if s == nil {
		return false
	}
	if s.Browser.Alive() {
		return true
	}

	dropped := false
	m.mu.Lock()
	if m.current == s {
		m.current = nil
		m.state = StateUnstarted
		dropped = true
	}
	m.mu.Unlock()

	if dropped {
		metrics.BrowserLive.Set(0)
		slog.Error("browser process is gone, session dropped",
			"pid", s.Browser.PID(),
			"age", time.Since(s.CreatedAt).Round(time.Second).String(),
		)
		// Reap whatever is left of the old process.
		_ = s.Browser.Close()
	}
	return false
}

// AcquirePageContext returns a new isolated page context on the live
// session. It fails with SESSION_UNAVAILABLE without touching the browser
// when no live session exists. The caller must Close the context.
func (m *Manager) AcquirePageContext(ctx context.Context) (*PageContext, error) {
	if !m.IsAlive() {
		return nil, models.NewScrapeError(
			models.ErrCodeSessionUnavailable,
			"browser session is not available",
			models.ErrSessionUnavailable,
		)
	}

	if m.slots != nil {
		select {
		case m.slots <- struct{}{}:
		case <-ctx.Done():
			return nil, models.NewScrapeError(
				models.ErrCodeSessionUnavailable,
				"no free page context before deadline",
				errors.Join(models.ErrSessionUnavailable, ctx.Err()),
			)
		}
	}
	releaseSlot := func() {
		if m.slots != nil {
			<-m.slots
		}
	}

	m.mu.RLock()
	s := m.current
	m.mu.RUnlock()
	if s == nil {
		releaseSlot()
		return nil, models.NewScrapeError(
			models.ErrCodeSessionUnavailable,
			"browser session was dropped",
			models.ErrSessionUnavailable,
		)
	}

	pc, err := s.Browser.NewPageContext(ctx)
	if err != nil {
		releaseSlot()
		return nil, models.NewScrapeError(models.ErrCodeInternal, "failed to open page context", err)
	}

	m.active.Add(1)
	metrics.PageContextsActive.Inc()
	pc.onRelease(func() {
		m.active.Add(-1)
		metrics.PageContextsActive.Dec()
		releaseSlot()
	})
	return pc, nil
}

// Stats returns a snapshot of the session state.
func (m *Manager) Stats() models.SessionStats {
	m.mu.RLock()
	s := m.current
	state := m.state
	m.mu.RUnlock()

	stats := models.SessionStats{
		State:       string(state),
		ActivePages: int(m.active.Load()),
		MaxPages:    m.maxPages,
		Launches:    m.launches.Load(),
	}
	if s != nil {
		created := s.CreatedAt
		stats.CreatedAt = &created
		stats.BrowserPID = s.Browser.PID()
	}
	return stats
}

// Close stops the watchdog and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (m *Manager) Close() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()

	m.mu.Lock()
	s := m.current
	m.current = nil
	m.state = StateUnstarted
	m.mu.Unlock()

	if s != nil {
		slog.Info("session manager shutting down: closing browser", "pid", s.Browser.PID())
		if err := s.Browser.Close(); err != nil {
			slog.Warn("browser close failed", "error", err)
		}
	}
	metrics.BrowserLive.Set(0)
}

// watchdog relaunches the browser whenever a tick finds it dead.
func (m *Manager) watchdog(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.WatchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.IsAlive() {
				continue
			}
			slog.Warn("watchdog: browser not alive, relaunching")
			if err := m.EnsureSession(ctx); err != nil && ctx.Err() == nil {
				slog.Error("watchdog: relaunch failed", "error", err)
			}
		}
	}
}
