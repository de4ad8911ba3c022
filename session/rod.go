package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/SatishMiral/chrome-extension-backend/config"
)

// RodLauncher launches a local Chromium through go-rod.
type RodLauncher struct {
	cfg config.BrowserConfig
}

// NewRodLauncher creates a RodLauncher.
func NewRodLauncher(cfg config.BrowserConfig) *RodLauncher {
	return &RodLauncher{cfg: cfg}
}

// Launch starts Chromium and connects to it over CDP.
func (r *RodLauncher) Launch(ctx context.Context) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := launcher.New().
		Headless(r.cfg.Headless).
		NoSandbox(r.cfg.NoSandbox)

	if r.cfg.BrowserBin != "" {
		l = l.Bin(r.cfg.BrowserBin)
	}
	if r.cfg.NoSandbox {
		l.Set(flags.Flag("disable-setuid-sandbox"))
	}
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	slog.Info("browser launched", "controlURL", controlURL, "pid", l.PID())
	return &rodBrowser{browser: browser, launcher: l, pid: l.PID()}, nil
}

// rodBrowser is a Browser backed by a launched Chromium process.
type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	pid      int
}

func (b *rodBrowser) PID() int { return b.pid }

// Alive reports whether the Chromium process still exists. A slow CDP
// connection does not count as death.
func (b *rodBrowser) Alive() bool {
	return processRunning(b.pid)
}

// NewPageContext opens an incognito browser context holding a single page.
func (b *rodBrowser) NewPageContext(ctx context.Context) (*PageContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	incognito, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("create incognito context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	return NewPageContext(page, func() error {
		return errors.Join(page.Close(), incognito.Close())
	}), nil
}

func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	return err
}

// processRunning sends signal 0 to pid.
func processRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
