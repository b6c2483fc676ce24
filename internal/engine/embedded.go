package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"go.uber.org/zap"

	"github.com/bamboo-ui/bamboo/internal/fetch"
	"github.com/bamboo-ui/bamboo/internal/logging"
	"github.com/bamboo-ui/bamboo/internal/script"
	"github.com/bamboo-ui/bamboo/internal/style"
)

const (
	defaultViewportWidth  = 1024
	defaultViewportHeight = 768
)

// EmbeddedOptions configures an embedded engine.
type EmbeddedOptions struct {
	// Script executes page script. Required.
	Script *script.Context
	// Fetcher loads pages for Navigate. Nil disables navigation.
	Fetcher *fetch.Client
	Events  Events
	// Background supplies the fill color for screenshots; nil means white.
	Background func() style.Color
	Width     int
	Height    int
	Log       *logging.Logger
}

// Embedded is the in-process engine: goja for script, HTTP fetch for
// navigation, and a solid-color viewport render for screenshots.
type Embedded struct {
	script     *script.Context
	fetcher    *fetch.Client
	events     Events
	background func() style.Color
	log        *logging.Logger

	width, height  int
	zoom           float64
	devtools       bool
	devtoolsDocked bool
	page           *fetch.Page
	// Session history; historyPos indexes the current entry, -1 when
	// nothing has loaded yet.
	history    []string
	historyPos int
	lastURL    string
	findText   string
	closed     bool
}

var _ Engine = (*Embedded)(nil)

// NewEmbedded creates an embedded engine.
func NewEmbedded(opts EmbeddedOptions) (*Embedded, error) {
	if opts.Script == nil {
		return nil, errors.New("engine: script context is required")
	}
	log := opts.Log
	if log == nil {
		log = logging.NewNop()
	}
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = defaultViewportWidth
	}
	if h <= 0 {
		h = defaultViewportHeight
	}
	return &Embedded{
		script:     opts.Script,
		fetcher:    opts.Fetcher,
		events:     opts.Events,
		background: opts.Background,
		log:        log,
		width:      w,
		height:     h,
		zoom:       1.0,
		historyPos: -1,
	}, nil
}

func (e *Embedded) ExecuteScript(src string) error {
	if e.closed {
		return errors.New("engine closed")
	}
	return e.script.Evaluate(src)
}

func (e *Embedded) Navigate(ctx context.Context, url string) error {
	if err := e.load(ctx, url); err != nil {
		return err
	}
	// A fresh navigation truncates the forward history.
	e.history = append(e.history[:e.historyPos+1], url)
	e.historyPos = len(e.history) - 1
	return nil
}

// load fetches url and fires the load notifications without touching the
// session history.
func (e *Embedded) load(ctx context.Context, url string) error {
	if e.closed {
		return errors.New("engine closed")
	}
	if e.fetcher == nil {
		return errors.ErrUnsupported
	}
	if e.events.OnNavigationRequest != nil && !e.events.OnNavigationRequest(url) {
		return fmt.Errorf("%w: %s", ErrNavigationBlocked, url)
	}

	if e.events.OnLoadStart != nil {
		e.events.OnLoadStart(url)
	}
	page, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		e.log.Warn("navigation failed", zap.String("url", url), zap.Error(err))
		return err
	}
	e.page = page
	e.lastURL = url
	e.findText = ""

	if e.events.OnTitleChanged != nil {
		e.events.OnTitleChanged(page.Title)
	}
	if e.events.OnLoadEnd != nil {
		e.events.OnLoadEnd(url, page.StatusCode)
	}
	return nil
}

func (e *Embedded) Reload(ctx context.Context) error {
	if e.lastURL == "" {
		return errors.New("nothing to reload")
	}
	return e.load(ctx, e.lastURL)
}

func (e *Embedded) CanGoBack() bool { return e.historyPos > 0 }

func (e *Embedded) CanGoForward() bool {
	return e.historyPos >= 0 && e.historyPos < len(e.history)-1
}

func (e *Embedded) GoBack(ctx context.Context) error {
	if !e.CanGoBack() {
		return errors.New("no back history")
	}
	if err := e.load(ctx, e.history[e.historyPos-1]); err != nil {
		return err
	}
	e.historyPos--
	return nil
}

func (e *Embedded) GoForward(ctx context.Context) error {
	if !e.CanGoForward() {
		return errors.New("no forward history")
	}
	if err := e.load(ctx, e.history[e.historyPos+1]); err != nil {
		return err
	}
	e.historyPos++
	return nil
}

// Stop is a no-op: embedded loads are synchronous, so by the time Stop can
// run on the owner loop there is nothing in flight.
func (e *Embedded) Stop() error { return nil }

func (e *Embedded) SetZoom(factor float64) error {
	if factor <= 0 {
		return fmt.Errorf("invalid zoom factor %v", factor)
	}
	e.zoom = factor
	return nil
}

// Zoom returns the current zoom factor.
func (e *Embedded) Zoom() float64 { return e.zoom }

// Page returns the last loaded page, or nil.
func (e *Embedded) Page() *fetch.Page { return e.page }

func (e *Embedded) OpenDevTools(docked bool) error {
	e.devtools = true
	e.devtoolsDocked = docked
	return nil
}

func (e *Embedded) CloseDevTools() error {
	e.devtools = false
	return nil
}

// DevToolsOpen reports whether the inspector flag is set.
func (e *Embedded) DevToolsOpen() bool { return e.devtools }

// DevToolsDocked reports how the inspector was last opened.
func (e *Embedded) DevToolsDocked() bool { return e.devtoolsDocked }

// Print has no output pipeline in the embedded engine.
func (e *Embedded) Print() error { return errors.ErrUnsupported }

func (e *Embedded) Find(text string) (int, error) {
	if e.page == nil {
		return 0, errors.New("no page loaded")
	}
	e.findText = text
	matches := e.page.Find(text)
	if e.events.OnFindResult != nil {
		e.events.OnFindResult(matches)
	}
	return matches, nil
}

func (e *Embedded) StopFind() error {
	e.findText = ""
	return nil
}

// CaptureScreenshot renders the viewport as a solid sheet of the current
// background color. The embedded engine has no compositor, so this stands
// in for a real pixel capture.
func (e *Embedded) CaptureScreenshot() ([]byte, error) {
	if e.closed {
		return nil, errors.New("engine closed")
	}
	bg := style.White()
	if e.background != nil {
		bg = e.background()
	}

	img := image.NewRGBA(image.Rect(0, 0, e.width, e.height))
	fill := color.RGBA{R: bg.R, G: bg.G, B: bg.B, A: bg.A}
	for y := 0; y < e.height; y++ {
		for x := 0; x < e.width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Embedded) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.page = nil
	return nil
}
