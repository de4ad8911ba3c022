package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/SatishMiral/chrome-extension-backend/config"
	"github.com/SatishMiral/chrome-extension-backend/session"
)

// Tab is one isolated browser page private to a single comparison.
type Tab interface {
	// BlockResources installs the request filter. It must be called before
	// the first Navigate.
	BlockResources(types []string) error

	// Navigate loads url and returns once DOMContentLoaded has fired or ctx
	// is done.
	Navigate(ctx context.Context, url string) error

	// HTML returns the current rendered document.
	HTML(ctx context.Context) (string, error)

	// Close tears down the page and its browsing context.
	Close() error
}

// TabSource hands out tabs.
type TabSource interface {
	Acquire(ctx context.Context) (Tab, error)
}

// TabSourceFunc adapts a function to TabSource.
type TabSourceFunc func(ctx context.Context) (Tab, error)

func (f TabSourceFunc) Acquire(ctx context.Context) (Tab, error) { return f(ctx) }

// BrowserTabs returns a TabSource backed by the session manager's browser.
// Session errors pass through unchanged.
func BrowserTabs(m *session.Manager, cfg config.ScraperConfig) TabSource {
	return TabSourceFunc(func(ctx context.Context) (Tab, error) {
		pc, err := m.AcquirePageContext(ctx)
		if err != nil {
			return nil, err
		}
		t := &rodTab{pc: pc, page: pc.Page}
		if cfg.AcceptLanguage != "" && t.page != nil {
			_ = proto.NetworkSetExtraHTTPHeaders{
				Headers: toHeadersMap(map[string]string{"Accept-Language": cfg.AcceptLanguage}),
			}.Call(t.page)
		}
		return t, nil
	})
}

type rodTab struct {
	pc     *session.PageContext
	page   *rod.Page
	router *rod.HijackRouter
}

func (t *rodTab) BlockResources(types []string) error {
	if t.page == nil {
		return errors.New("tab has no page")
	}
	t.router = setupHijack(t.page, types)
	return nil
}

func (t *rodTab) Navigate(ctx context.Context, url string) error {
	if t.page == nil {
		return errors.New("tab has no page")
	}
	p := t.page.Context(ctx)

	// The waiter must be registered before Navigate or the event can be missed.
	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	wait()

	// wait returns silently when ctx ends before the event.
	return ctx.Err()
}

func (t *rodTab) HTML(ctx context.Context) (string, error) {
	if t.page == nil {
		return "", errors.New("tab has no page")
	}
	return t.page.Context(ctx).HTML()
}

// Close stops the request filter and disposes the page context. It uses the
// page without a request context so teardown works after a timeout.
func (t *rodTab) Close() error {
	var stopErr error
	if t.router != nil {
		stopErr = t.router.Stop()
		t.router = nil
	}
	return errors.Join(stopErr, t.pc.Close())
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
