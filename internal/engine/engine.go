// Package engine defines the rendering-engine facade the window drives,
// plus an embedded implementation good enough for headless hosts: script
// execution through the goja context and navigation through the HTTP page
// fetcher. A real browser engine slots in behind the same interface.
package engine

import (
	"context"
	"errors"
)

// ErrNavigationBlocked reports a navigation denied by the host's
// interception hook.
var ErrNavigationBlocked = errors.New("navigation blocked")

// Engine is the operation surface the window expects from a rendering
// engine. Implementations are owner-loop confined; none of these methods
// are called concurrently.
type Engine interface {
	// ExecuteScript runs script source in the page context.
	ExecuteScript(script string) error
	// Navigate loads url, firing load and title notifications.
	Navigate(ctx context.Context, url string) error
	// Reload repeats the last successful navigation.
	Reload(ctx context.Context) error
	// GoBack and GoForward move through the session history.
	GoBack(ctx context.Context) error
	GoForward(ctx context.Context) error
	// CanGoBack and CanGoForward report history availability.
	CanGoBack() bool
	CanGoForward() bool
	// Stop abandons the in-flight load, if any.
	Stop() error
	// SetZoom sets the page zoom factor (1.0 = 100%).
	SetZoom(factor float64) error
	// OpenDevTools opens the inspector, docked or in its own window.
	OpenDevTools(docked bool) error
	CloseDevTools() error
	// Print sends the page to the print pipeline.
	Print() error
	// Find searches the page and returns the match count.
	Find(text string) (int, error)
	// StopFind clears the active search.
	StopFind() error
	// CaptureScreenshot renders the current page to PNG bytes.
	CaptureScreenshot() ([]byte, error)
	// Close releases engine resources.
	Close() error
}

// Events are the notifications an engine raises toward its window. Any
// field may be nil.
type Events struct {
	// OnNavigationRequest is consulted before every navigation; returning
	// false blocks it. Nil means allow.
	OnNavigationRequest func(url string) bool
	OnLoadStart         func(url string)
	OnLoadEnd           func(url string, status int)
	OnTitleChanged      func(title string)
	OnFindResult        func(matches int)
}
