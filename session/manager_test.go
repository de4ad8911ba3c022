package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SatishMiral/chrome-extension-backend/config"
	"github.com/SatishMiral/chrome-extension-backend/models"
)

type fakeBrowser struct {
	alive  atomic.Bool
	pages  atomic.Int32
	closed atomic.Bool
	pid    int
}

func newFakeBrowser(pid int) *fakeBrowser {
	b := &fakeBrowser{pid: pid}
	b.alive.Store(true)
	return b
}

func (b *fakeBrowser) Alive() bool { return b.alive.Load() }
func (b *fakeBrowser) PID() int    { return b.pid }

func (b *fakeBrowser) NewPageContext(ctx context.Context) (*PageContext, error) {
	b.pages.Add(1)
	return NewPageContext(nil, func() error { return nil }), nil
}

func (b *fakeBrowser) Close() error {
	b.closed.Store(true)
	b.alive.Store(false)
	return nil
}

// fakeLauncher fails the first `failures` launches, then succeeds.
type fakeLauncher struct {
	failures int32
	calls    atomic.Int32
	browsers chan *fakeBrowser
}

func newFakeLauncher(failures int32) *fakeLauncher {
	return &fakeLauncher{failures: failures, browsers: make(chan *fakeBrowser, 16)}
}

func (l *fakeLauncher) Launch(ctx context.Context) (Browser, error) {
	n := l.calls.Add(1)
	if n <= l.failures {
		return nil, errors.New("chromium: no usable sandbox")
	}
	b := newFakeBrowser(1000 + int(n))
	l.browsers <- b
	return b, nil
}

func testSessionConfig(attempts int) config.SessionConfig {
	return config.SessionConfig{
		MaxLaunchAttempts: attempts,
		LaunchRetryDelay:  time.Millisecond,
		WatchdogInterval:  10 * time.Millisecond,
	}
}

func TestEnsureSession_LaunchesOnce(t *testing.T) {
	l := newFakeLauncher(0)
	m := NewManager(l, testSessionConfig(3), 0)

	if err := m.EnsureSession(context.Background()); err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if !m.IsAlive() {
		t.Fatal("session should be alive after a successful launch")
	}
	if err := m.EnsureSession(context.Background()); err != nil {
		t.Fatalf("second EnsureSession: %v", err)
	}
	if got := l.calls.Load(); got != 1 {
		t.Errorf("launcher called %d times, want 1", got)
	}
	if m.Stats().State != string(StateLive) {
		t.Errorf("state = %s, want live", m.Stats().State)
	}
}

func TestEnsureSession_RetriesUntilSuccess(t *testing.T) {
	l := newFakeLauncher(2)
	m := NewManager(l, testSessionConfig(3), 0)

	if err := m.EnsureSession(context.Background()); err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if got := l.calls.Load(); got != 3 {
		t.Errorf("launcher called %d times, want 3", got)
	}
}

func TestEnsureSession_BoundedAttempts(t *testing.T) {
	l := newFakeLauncher(100)
	m := NewManager(l, testSessionConfig(3), 0)

	err := m.EnsureSession(context.Background())
	if err == nil {
		t.Fatal("expected a launch error")
	}
	if !errors.Is(err, models.ErrLaunch) {
		t.Errorf("error should wrap ErrLaunch: %v", err)
	}
	if models.CodeOf(err) != models.ErrCodeLaunch {
		t.Errorf("code = %s, want %s", models.CodeOf(err), models.ErrCodeLaunch)
	}
	if got := l.calls.Load(); got != 3 {
		t.Errorf("launcher called %d times, want 3", got)
	}
	if m.Stats().State != string(StateUnstarted) {
		t.Errorf("state = %s, want unstarted", m.Stats().State)
	}
}

func TestEnsureSession_UnboundedStopsOnCancel(t *testing.T) {
	l := newFakeLauncher(1 << 30)
	m := NewManager(l, testSessionConfig(0), 0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := m.EnsureSession(ctx)
	if !errors.Is(err, models.ErrLaunch) {
		t.Fatalf("expected launch error, got %v", err)
	}
	if l.calls.Load() < 2 {
		t.Errorf("unbounded policy should retry, got %d calls", l.calls.Load())
	}
}

func TestAcquirePageContext_NoSessionDoesNotTouchBrowser(t *testing.T) {
	l := newFakeLauncher(0)
	m := NewManager(l, testSessionConfig(1), 0)

	_, err := m.AcquirePageContext(context.Background())
	if !errors.Is(err, models.ErrSessionUnavailable) {
		t.Fatalf("expected ErrSessionUnavailable, got %v", err)
	}
	if l.calls.Load() != 0 {
		t.Error("acquiring a page must not launch a browser")
	}
}

func TestAcquirePageContext_DeadBrowser(t *testing.T) {
	l := newFakeLauncher(0)
	m := NewManager(l, testSessionConfig(1), 0)
	if err := m.EnsureSession(context.Background()); err != nil {
		t.Fatal(err)
	}
	b := <-l.browsers
	b.alive.Store(false)

	_, err := m.AcquirePageContext(context.Background())
	if !errors.Is(err, models.ErrSessionUnavailable) {
		t.Fatalf("expected ErrSessionUnavailable, got %v", err)
	}
	if b.pages.Load() != 0 {
		t.Error("no page should be opened on a dead browser")
	}
	if !b.closed.Load() {
		t.Error("dead browser should be reaped")
	}
	if m.Stats().State != string(StateUnstarted) {
		t.Errorf("state = %s, want unstarted", m.Stats().State)
	}
}

func TestIsAlive_BusyBrowserKept(t *testing.T) {
	l := newFakeLauncher(0)
	m := NewManager(l, testSessionConfig(1), 0)
	if err := m.EnsureSession(context.Background()); err != nil {
		t.Fatal(err)
	}
	b := <-l.browsers

	inFlight, err := m.AcquirePageContext(context.Background())
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer inFlight.Close()

	for i := 0; i < 5; i++ {
		if !m.IsAlive() {
			t.Fatalf("check %d: running browser reported dead", i)
		}
	}
	pc, err := m.AcquirePageContext(context.Background())
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	pc.Close()

	if b.closed.Load() {
		t.Error("running browser must not be closed")
	}
	if l.calls.Load() != 1 {
		t.Errorf("launches = %d, want 1", l.calls.Load())
	}
}

func TestAcquirePageContext_ConcurrencyCap(t *testing.T) {
	l := newFakeLauncher(0)
	m := NewManager(l, testSessionConfig(1), 1)
	if err := m.EnsureSession(context.Background()); err != nil {
		t.Fatal(err)
	}

	pc, err := m.AcquirePageContext(context.Background())
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if m.Stats().ActivePages != 1 {
		t.Errorf("active pages = %d, want 1", m.Stats().ActivePages)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.AcquirePageContext(ctx); !errors.Is(err, models.ErrSessionUnavailable) {
		t.Fatalf("second acquire should time out waiting for a slot, got %v", err)
	}

	_ = pc.Close()
	_ = pc.Close() // idempotent

	if m.Stats().ActivePages != 0 {
		t.Errorf("active pages = %d after release, want 0", m.Stats().ActivePages)
	}
	pc2, err := m.AcquirePageContext(context.Background())
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	_ = pc2.Close()
}

func TestWatchdog_RelaunchesCrashedBrowser(t *testing.T) {
	l := newFakeLauncher(0)
	m := NewManager(l, testSessionConfig(3), 0)
	m.Start(context.Background())
	defer m.Close()

	first := <-l.browsers
	first.alive.Store(false)

	select {
	case second := <-l.browsers:
		if second == first {
			t.Fatal("watchdog should launch a new browser")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog did not relaunch the browser")
	}

	deadline := time.Now().Add(time.Second)
	for !m.IsAlive() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !m.IsAlive() {
		t.Error("session should be live after relaunch")
	}
}

func TestStart_BootFailureRecoveredByWatchdog(t *testing.T) {
	// Boot exhausts its attempts; the watchdog's next cycle succeeds.
	l := newFakeLauncher(3)
	m := NewManager(l, testSessionConfig(3), 0)
	m.Start(context.Background())
	defer m.Close()

	select {
	case <-l.browsers:
	case <-time.After(2 * time.Second):
		t.Fatal("browser never launched")
	}
}

func TestClose_KillsBrowser(t *testing.T) {
	l := newFakeLauncher(0)
	m := NewManager(l, testSessionConfig(1), 0)
	m.Start(context.Background())

	b := <-l.browsers
	deadline := time.Now().Add(time.Second)
	for !m.IsAlive() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	m.Close()

	if !b.closed.Load() {
		t.Error("Close should terminate the browser")
	}
	if m.IsAlive() {
		t.Error("no session should remain after Close")
	}
}
