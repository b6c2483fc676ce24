// Package window ties one window's script context, bridge channel, style
// reconciler and engine together behind a single owner-loop-confined
// entity.
package window

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/bamboo-ui/bamboo/internal/bridge"
	"github.com/bamboo-ui/bamboo/internal/bus"
	"github.com/bamboo-ui/bamboo/internal/engine"
	"github.com/bamboo-ui/bamboo/internal/fetch"
	"github.com/bamboo-ui/bamboo/internal/logging"
	"github.com/bamboo-ui/bamboo/internal/monitoring"
	"github.com/bamboo-ui/bamboo/internal/platform"
	"github.com/bamboo-ui/bamboo/internal/script"
	"github.com/bamboo-ui/bamboo/internal/shared/id"
	"github.com/bamboo-ui/bamboo/internal/style"
	"github.com/bamboo-ui/bamboo/internal/wire"
)

// Version is exposed to page script as window.bamboo.version.
const Version = "1.0.0"

// zoomStep is the per-level zoom multiplier.
const zoomStep = 1.2

// Hooks are host-side notifications. Any field may be nil.
type Hooks struct {
	OnTitleChanged func(title string)
	OnLoadEnd      func(url string, status int)
	OnConsole      func(level, message string)
	OnFindResult   func(matches int)
	OnFocusChanged func(focused bool)
	OnClose        func()
}

// Options configures a window.
type Options struct {
	Title    string
	Style    style.Model
	Provider platform.Provider
	// Fetcher backs the embedded engine's navigation. Nil disables it.
	Fetcher *fetch.Client
	// Post schedules work onto the owner loop. Nil runs work inline,
	// which is only safe single-threaded.
	Post  func(fn func())
	Hooks Hooks
	// EvalTimeout bounds remote evaluations; zero means the bridge default.
	EvalTimeout time.Duration
	Platform    string
	Width       int
	Height      int
	Log         *logging.Logger
	Metrics     *monitoring.Metrics
}

// Window is one browser window: script context, bridge, style state and
// engine. All methods must be called from the owner loop.
type Window struct {
	id      id.WindowID
	log     *logging.Logger
	metrics *monitoring.Metrics
	post    func(fn func())
	hooks   Hooks

	script     *script.Context
	engine     engine.Engine
	channel    *bridge.Channel
	registry   *bridge.Registry
	events     *bus.Bus
	reconciler *style.Reconciler
	provider   platform.Provider

	title          string
	zoomLevel      int
	focused        bool
	navigationHook func(url string) bool
	closed         bool
}

// New builds a window, applies its initial style and registers the
// built-in functions.
func New(opts Options) (*Window, error) {
	log := opts.Log
	if log == nil {
		log = logging.NewNop()
	}
	provider := opts.Provider
	if provider == nil {
		provider = platform.Noop{}
	}
	post := opts.Post
	if post == nil {
		post = func(fn func()) { fn() }
	}

	w := &Window{
		id:       id.NewWindowID(),
		metrics:  opts.Metrics,
		post:     post,
		hooks:    opts.Hooks,
		title:    opts.Title,
		provider: provider,
	}
	w.log = log.WithWindow(string(w.id))

	scriptCtx, err := script.NewContext(script.Options{
		Outbound: func(raw []byte) {
			w.post(func() { w.dispatch(raw) })
		},
		OnConsole:   w.notifyConsole,
		Post:        w.post,
		CallTimeout: opts.EvalTimeout,
		Version:     Version,
		Platform:    opts.Platform,
		Log:         w.log,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	w.script = scriptCtx

	w.events = bus.New(w.log)
	w.registry = bridge.NewRegistry(w.log)
	w.channel = bridge.NewChannel(bridge.Options{
		Port:        scriptCtx,
		Bus:         w.events,
		Registry:    w.registry,
		Sink:        w,
		Post:        w.post,
		EvalTimeout: opts.EvalTimeout,
		Log:         w.log,
		Metrics:     opts.Metrics,
	})

	w.reconciler = style.NewReconciler(provider, opts.Style, w.log, opts.Metrics)

	eng, err := engine.NewEmbedded(engine.EmbeddedOptions{
		Script:  scriptCtx,
		Fetcher: opts.Fetcher,
		Width:   opts.Width,
		Height:  opts.Height,
		Log:     w.log,
		Background: func() style.Color {
			return w.reconciler.Model().BackgroundColor
		},
		Events: engine.Events{
			OnNavigationRequest: func(url string) bool {
				if w.navigationHook == nil {
					return true
				}
				return w.navigationHook(url)
			},
			OnLoadStart: func(url string) {
				w.channel.SendEvent("loadStart", map[string]string{"url": url})
			},
			OnLoadEnd:      w.notifyLoadEnd,
			OnTitleChanged: w.setTitleInternal,
			OnFindResult:   w.notifyFindResult,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	w.engine = eng

	w.registry.Register(wire.CallScreenshot, func([]json.RawMessage) (any, error) {
		data, err := w.engine.CaptureScreenshot()
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.EncodeToString(data), nil
	})

	w.reconciler.Apply(opts.Style)
	if opts.Style.DevTools {
		w.engine.OpenDevTools(opts.Style.DevToolsDocked)
	}
	if opts.Title != "" {
		w.applyTitle(opts.Title)
	}
	return w, nil
}

// ID returns the window's identifier.
func (w *Window) ID() id.WindowID { return w.id }

// Title returns the current window title.
func (w *Window) Title() string { return w.title }

// Style returns a copy of the current style model.
func (w *Window) Style() style.Model { return w.reconciler.Model() }

// Closed reports whether Close has run.
func (w *Window) Closed() bool { return w.closed }

// Subscribe registers a native handler for a script-published event.
func (w *Window) Subscribe(event string, handler bus.Handler) bus.Unsubscribe {
	return w.events.Subscribe(event, handler)
}

// BindFunction exposes a native function to script via bamboo.call.
func (w *Window) BindFunction(name string, handler bridge.Handler) {
	w.registry.Register(name, handler)
}

// UnbindFunction removes a script-callable function.
func (w *Window) UnbindFunction(name string) {
	w.registry.Unregister(name)
}

// SendEvent publishes an event to script-side listeners.
func (w *Window) SendEvent(name string, payload any) error {
	if w.closed {
		return ErrInvalidState
	}
	return w.channel.SendEvent(name, payload)
}

// ExecuteScript runs script source without result correlation.
func (w *Window) ExecuteScript(src string) error {
	if w.closed {
		return ErrInvalidState
	}
	return w.engine.ExecuteScript(src)
}

// Eval evaluates script and delivers its scalar result. done runs exactly
// once on the owner loop; a script exception arrives wrapped in
// ErrScriptException.
func (w *Window) Eval(src string, done func(value any, err error)) {
	if w.closed {
		done(nil, ErrInvalidState)
		return
	}
	w.channel.EvalRemote(src, func(value json.RawMessage, err error) {
		if err != nil {
			var remote *bridge.RemoteError
			if errors.As(err, &remote) {
				err = fmt.Errorf("%w: %s", ErrScriptException, remote.Message)
			}
			done(nil, err)
			return
		}
		done(wire.Scalar(value), nil)
	})
}

// Navigate loads url through the engine, honoring the navigation hook.
func (w *Window) Navigate(ctx context.Context, url string) error {
	if w.closed {
		return ErrInvalidState
	}
	return w.engine.Navigate(ctx, url)
}

// Reload repeats the last navigation.
func (w *Window) Reload(ctx context.Context) error {
	if w.closed {
		return ErrInvalidState
	}
	return w.engine.Reload(ctx)
}

// Back returns to the previous session-history entry.
func (w *Window) Back(ctx context.Context) error {
	if w.closed {
		return ErrInvalidState
	}
	return w.engine.GoBack(ctx)
}

// Forward advances to the next session-history entry.
func (w *Window) Forward(ctx context.Context) error {
	if w.closed {
		return ErrInvalidState
	}
	return w.engine.GoForward(ctx)
}

// CanGoBack reports whether Back has somewhere to go.
func (w *Window) CanGoBack() bool { return !w.closed && w.engine.CanGoBack() }

// CanGoForward reports whether Forward has somewhere to go.
func (w *Window) CanGoForward() bool { return !w.closed && w.engine.CanGoForward() }

// StopLoading abandons the in-flight load, if any.
func (w *Window) StopLoading() error {
	if w.closed {
		return ErrInvalidState
	}
	return w.engine.Stop()
}

// SetNavigationHook installs the allow/deny predicate consulted before
// every navigation. Nil restores the default (allow).
func (w *Window) SetNavigationHook(hook func(url string) bool) {
	w.navigationHook = hook
}

// ApplyStyle replaces the whole style model.
func (w *Window) ApplyStyle(m style.Model) {
	if w.closed {
		return
	}
	w.reconciler.Apply(m)
	w.notifyStyleChanged()
}

// PatchStyle merges a partial update into the current model and applies
// the result, emitting one style-change event.
func (w *Window) PatchStyle(patch style.Patch) {
	if w.closed {
		return
	}
	merged := w.reconciler.Model().Merge(patch)
	w.reconciler.Apply(merged)
	w.notifyStyleChanged()
}

// SetDragRegions replaces the drag-region set wholesale.
func (w *Window) SetDragRegions(regions []style.DragRegion) {
	if w.closed {
		return
	}
	w.reconciler.SetDragRegions(regions)
}

// SetTitle updates the native window title and notifies the host.
func (w *Window) SetTitle(title string) {
	if w.closed {
		return
	}
	w.applyTitle(title)
}

// Focus raises the native window and records focus state.
func (w *Window) Focus() {
	if w.closed {
		return
	}
	if err := w.provider.Focus(); err != nil && !errors.Is(err, style.ErrUnsupported) {
		w.log.Warn("focus failed", zap.Error(err))
	}
	w.NotifyFocus(true)
}

// NotifyFocus records a focus transition reported by the host and
// forwards it to script and hooks.
func (w *Window) NotifyFocus(focused bool) {
	if w.closed || w.focused == focused {
		return
	}
	w.focused = focused
	event := "blur"
	if focused {
		event = "focus"
	}
	w.channel.SendEvent(event, nil)
	if w.hooks.OnFocusChanged != nil {
		w.hooks.OnFocusChanged(focused)
	}
}

// Focused reports the last recorded focus state.
func (w *Window) Focused() bool { return w.focused }

// ZoomIn raises the zoom one step.
func (w *Window) ZoomIn() { w.setZoomLevel(w.zoomLevel + 1) }

// ZoomOut lowers the zoom one step.
func (w *Window) ZoomOut() { w.setZoomLevel(w.zoomLevel - 1) }

// ResetZoom restores 100%.
func (w *Window) ResetZoom() { w.setZoomLevel(0) }

// ZoomFactor returns the current zoom factor.
func (w *Window) ZoomFactor() float64 {
	return math.Pow(zoomStep, float64(w.zoomLevel))
}

// Find searches the loaded page and reports the match count.
func (w *Window) Find(text string) (int, error) {
	if w.closed {
		return 0, ErrInvalidState
	}
	return w.engine.Find(text)
}

// StopFind clears the active search.
func (w *Window) StopFind() error {
	if w.closed {
		return ErrInvalidState
	}
	return w.engine.StopFind()
}

// CaptureScreenshot renders the page and returns it base64-encoded.
func (w *Window) CaptureScreenshot() (string, error) {
	if w.closed {
		return "", ErrInvalidState
	}
	data, err := w.engine.CaptureScreenshot()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DispatchRaw feeds one raw wire message into the bridge, as if it came
// from the page. Used by hosts that transport messages themselves.
func (w *Window) DispatchRaw(raw []byte) {
	if w.closed {
		return
	}
	w.channel.Dispatch(raw)
}

// Close tears the window down: pending evaluations are rejected, script
// state dropped, the native window closed. Idempotent.
func (w *Window) Close() {
	if w.closed {
		return
	}
	w.closed = true

	w.channel.Close()
	w.engine.Close()
	w.script.Close()
	w.events.Clear()

	if err := w.provider.Close(); err != nil && !errors.Is(err, style.ErrUnsupported) {
		w.log.Warn("native close failed", zap.Error(err))
	}
	if w.hooks.OnClose != nil {
		w.hooks.OnClose()
	}
	w.log.Debug("window closed")
}

// HandleStyleRequest implements the bridge sink for setStyle messages.
func (w *Window) HandleStyleRequest(patch style.Patch) {
	w.PatchStyle(patch)
}

// HandleDragRegions implements the bridge sink for setDragRegions.
func (w *Window) HandleDragRegions(regions []style.DragRegion) {
	w.SetDragRegions(regions)
}

func (w *Window) dispatch(raw []byte) {
	if w.closed {
		return
	}
	w.channel.Dispatch(raw)
}

func (w *Window) setZoomLevel(level int) {
	if w.closed {
		return
	}
	w.zoomLevel = level
	if err := w.engine.SetZoom(w.ZoomFactor()); err != nil {
		w.log.Warn("zoom change failed", zap.Error(err))
	}
}

func (w *Window) applyTitle(title string) {
	w.title = title
	if err := w.provider.SetTitle(title); err != nil && !errors.Is(err, style.ErrUnsupported) {
		w.log.Warn("title change failed", zap.Error(err))
	}
	if w.hooks.OnTitleChanged != nil {
		w.hooks.OnTitleChanged(title)
	}
}

// setTitleInternal handles engine-driven title changes (document titles).
func (w *Window) setTitleInternal(title string) {
	if w.closed || title == "" {
		return
	}
	w.applyTitle(title)
	w.channel.SendEvent("titleChanged", map[string]string{"title": title})
}

func (w *Window) notifyLoadEnd(url string, status int) {
	w.channel.SendEvent("loadEnd", map[string]any{"url": url, "status": status})
	// Chrome CSS belongs to the page, so it is re-announced after every
	// load wipes the document.
	w.notifyStyleChanged()
	if w.hooks.OnLoadEnd != nil {
		w.hooks.OnLoadEnd(url, status)
	}
}

func (w *Window) notifyFindResult(matches int) {
	w.channel.SendEvent("findResult", map[string]int{"matches": matches})
	if w.hooks.OnFindResult != nil {
		w.hooks.OnFindResult(matches)
	}
}

func (w *Window) notifyConsole(level, message string) {
	w.log.Debug("console", zap.String("level", level), zap.String("message", message))
	if w.hooks.OnConsole != nil {
		w.hooks.OnConsole(level, message)
	}
}

// notifyStyleChanged publishes the applied model and its chrome CSS to
// script subscribers.
func (w *Window) notifyStyleChanged() {
	m := w.reconciler.Model()
	w.channel.SendEvent(wire.EventStyleChanged, map[string]any{
		"style": m,
		"css":   style.BuildChromeCSS(m),
	})
}
