// Package session owns the shared browser process: it launches it, notices
// when it dies, relaunches it, and hands out one isolated page context per
// request.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
)

// State is the lifecycle state of the Manager.
type State string

const (
	StateUnstarted State = "unstarted"
	StateStarting  State = "starting"
	StateLive      State = "live"
)

// Launcher starts a browser process.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Browser is a running browser process.
type Browser interface {
	// Alive reports whether the underlying process is still running.
	Alive() bool

	// PID returns the browser process id, or 0 if unknown.
	PID() int

	// NewPageContext opens an isolated browsing context with one page.
	NewPageContext(ctx context.Context) (*PageContext, error)

	// Close terminates the browser process.
	Close() error
}

// Session is one launched browser. A Session is never mutated; the Manager
// replaces it when the browser dies.
type Session struct {
	Browser   Browser
	CreatedAt time.Time
}

// PageContext is an isolated browsing context private to one request.
// Close must be called on every exit path; it is safe to call more than once.
type PageContext struct {
	// Page is nil for contexts produced by test browsers.
	Page *rod.Page

	dispose func() error
	release []func()
	once    sync.Once
}

// NewPageContext wraps page. dispose is called once on Close to tear down
// the browsing context.
func NewPageContext(page *rod.Page, dispose func() error) *PageContext {
	return &PageContext{Page: page, dispose: dispose}
}

// onRelease registers fn to run after the context is disposed.
func (pc *PageContext) onRelease(fn func()) {
	pc.release = append(pc.release, fn)
}

// Close disposes the browsing context and releases its concurrency slot.
func (pc *PageContext) Close() error {
	var err error
	pc.once.Do(func() {
		if pc.dispose != nil {
			err = pc.dispose()
		}
		for _, fn := range pc.release {
			fn()
		}
	})
	return err
}
