// Package app owns the host lifecycle: configuration, the owner loop,
// window bookkeeping and the optional debug server.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bamboo-ui/bamboo/internal/config"
	"github.com/bamboo-ui/bamboo/internal/debugserver"
	"github.com/bamboo-ui/bamboo/internal/logging"
	"github.com/bamboo-ui/bamboo/internal/monitoring"
	"github.com/bamboo-ui/bamboo/internal/shared/id"
	"github.com/bamboo-ui/bamboo/internal/window"
)

var (
	// ErrInitFailed reports that host initialization could not complete.
	ErrInitFailed = errors.New("initialization failed")
	// ErrAlreadyRunning rejects a second Run on the same app.
	ErrAlreadyRunning = errors.New("app already running")
	// ErrInvalidArguments rejects malformed configuration.
	ErrInvalidArguments = errors.New("invalid arguments")
	// ErrVersionMismatch reports a host built against an incompatible
	// bridge generation.
	ErrVersionMismatch = errors.New("version mismatch")
)

// App is one host process: a single owner loop, any number of windows,
// and the shared ambient services.
type App struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *monitoring.Metrics
	loop    *Loop
	debug   *debugserver.Server

	mu      sync.Mutex
	windows map[id.WindowID]*window.Window
	running bool
	quit    bool
}

// New validates cfg and assembles the host. The app's declared version
// must share a major with the bridge version the binary carries.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidArguments)
	}
	if cfg.Bridge.EvalTimeout < 0 {
		return nil, fmt.Errorf("%w: negative eval timeout", ErrInvalidArguments)
	}
	if err := checkVersion(cfg.App.Version); err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: logger: %v", ErrInitFailed, err)
	}

	a := &App{
		cfg:     cfg,
		log:     log.Named("app"),
		metrics: monitoring.NewMetrics(),
		loop:    NewLoop(),
		windows: make(map[id.WindowID]*window.Window),
	}
	if cfg.Debug.Enabled {
		a.debug = debugserver.New(cfg.Debug, a, a.metrics, log)
	}
	return a, nil
}

// checkVersion accepts dotted-numeric versions whose major matches the
// bridge's.
func checkVersion(v string) error {
	if v == "" {
		return nil
	}
	major, ok := majorOf(v)
	if !ok {
		return fmt.Errorf("%w: unparsable app version %q", ErrInvalidArguments, v)
	}
	bridgeMajor, _ := majorOf(window.Version)
	if major != bridgeMajor {
		return fmt.Errorf("%w: app version %s against bridge %s",
			ErrVersionMismatch, v, window.Version)
	}
	return nil
}

func majorOf(v string) (int, bool) {
	head, _, _ := strings.Cut(v, ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0, false
	}
	return major, true
}

// Loop returns the owner loop for posting custom work.
func (a *App) Loop() *Loop { return a.loop }

// Metrics returns the app's metrics collector.
func (a *App) Metrics() *monitoring.Metrics { return a.metrics }

// CreateWindow builds a window bound to the app's owner loop. Hooks the
// caller supplies keep working; the app chains its own bookkeeping onto
// them.
func (a *App) CreateWindow(opts window.Options) (*window.Window, error) {
	a.mu.Lock()
	if a.quit {
		a.mu.Unlock()
		return nil, window.ErrInvalidState
	}
	a.mu.Unlock()

	opts.Post = a.loop.Post
	opts.Log = a.log
	opts.Metrics = a.metrics
	opts.Platform = runtime.GOOS
	if opts.EvalTimeout == 0 {
		opts.EvalTimeout = a.cfg.Bridge.EvalTimeout
	}

	var w *window.Window
	opts.Hooks = a.chainHooks(&w, opts.Hooks)

	w, err := window.New(opts)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.windows[w.ID()] = w
	a.mu.Unlock()
	a.log.Info("window created", zap.String("window_id", string(w.ID())))
	return w, nil
}

// chainHooks layers app bookkeeping and debug-tap broadcasting onto the
// caller's window hooks.
func (a *App) chainHooks(w **window.Window, user window.Hooks) window.Hooks {
	winID := func() string {
		if *w == nil {
			return ""
		}
		return string((*w).ID())
	}
	return window.Hooks{
		OnTitleChanged: func(title string) {
			a.broadcast(winID(), "titleChanged", title)
			if user.OnTitleChanged != nil {
				user.OnTitleChanged(title)
			}
		},
		OnLoadEnd: func(url string, status int) {
			a.broadcast(winID(), "loadEnd", map[string]any{"url": url, "status": status})
			if user.OnLoadEnd != nil {
				user.OnLoadEnd(url, status)
			}
		},
		OnConsole: func(level, message string) {
			a.broadcast(winID(), "console", map[string]string{"level": level, "message": message})
			if user.OnConsole != nil {
				user.OnConsole(level, message)
			}
		},
		OnFindResult:   user.OnFindResult,
		OnFocusChanged: user.OnFocusChanged,
		OnClose: func() {
			wid := winID()
			if wid != "" {
				a.mu.Lock()
				delete(a.windows, id.WindowID(wid))
				a.mu.Unlock()
			}
			a.broadcast(wid, "closed", nil)
			if user.OnClose != nil {
				user.OnClose()
			}
		},
	}
}

func (a *App) broadcast(windowID, kind string, payload any) {
	if a.debug != nil {
		a.debug.Broadcast(windowID, kind, payload)
	}
}

// Run starts the debug server (if enabled) and blocks in the owner loop
// until Quit.
func (a *App) Run() error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	a.running = true
	a.mu.Unlock()

	if a.debug != nil {
		a.debug.Start()
	}
	a.log.Info("app running",
		zap.String("name", a.cfg.App.Name),
		zap.String("version", a.cfg.App.Version))

	a.loop.Run()

	if a.debug != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.debug.Stop(ctx); err != nil {
			a.log.Warn("debug server shutdown", zap.Error(err))
		}
	}
	a.log.Info("app stopped")
	return nil
}

// Quit closes every window on the loop, then stops the loop. Pending
// evaluations in each window are rejected by the close.
func (a *App) Quit() {
	a.mu.Lock()
	if a.quit {
		a.mu.Unlock()
		return
	}
	a.quit = true
	a.mu.Unlock()

	a.loop.Post(func() {
		a.mu.Lock()
		open := make([]*window.Window, 0, len(a.windows))
		for _, w := range a.windows {
			open = append(open, w)
		}
		a.mu.Unlock()
		for _, w := range open {
			w.Close()
		}
	})
	a.loop.Quit()
}

// DebugWindows snapshots window state on the owner loop for the debug
// server's inspection endpoints.
func (a *App) DebugWindows() []debugserver.WindowInfo {
	done := make(chan []debugserver.WindowInfo, 1)
	a.loop.Post(func() {
		a.mu.Lock()
		open := make([]*window.Window, 0, len(a.windows))
		for _, w := range a.windows {
			open = append(open, w)
		}
		a.mu.Unlock()

		infos := make([]debugserver.WindowInfo, 0, len(open))
		for _, w := range open {
			infos = append(infos, debugserver.WindowInfo{
				ID:     string(w.ID()),
				Title:  w.Title(),
				Closed: w.Closed(),
				Style:  w.Style(),
			})
		}
		done <- infos
	})

	select {
	case infos := <-done:
		return infos
	case <-time.After(time.Second):
		// Loop gone or stalled; report nothing rather than racing it.
		return nil
	}
}
