// Package debugserver exposes a local HTTP surface for inspecting a
// running bamboo host: health, metrics, window and style state, plus a
// websocket tap streaming bridge traffic.
package debugserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bamboo-ui/bamboo/internal/config"
	"github.com/bamboo-ui/bamboo/internal/logging"
	"github.com/bamboo-ui/bamboo/internal/monitoring"
	"github.com/bamboo-ui/bamboo/internal/style"
)

// WindowInfo is the inspection snapshot of one window.
type WindowInfo struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Closed bool        `json:"closed"`
	Style  style.Model `json:"style"`
}

// Source supplies window snapshots on demand. Implementations must be
// safe to call from HTTP handler goroutines.
type Source interface {
	DebugWindows() []WindowInfo
}

// TapEvent is one bridge-traffic record streamed to websocket clients.
type TapEvent struct {
	Window  string `json:"window"`
	Kind    string `json:"kind"`
	Payload any    `json:"payload,omitempty"`
	Time    string `json:"time"`
}

// Server is the debug HTTP server.
type Server struct {
	cfg     config.DebugConfig
	log     *logging.Logger
	metrics *monitoring.Metrics
	source  Source

	httpSrv  *http.Server
	upgrader websocket.Upgrader

	tapMu sync.Mutex
	taps  map[*websocket.Conn]struct{}
}

// New builds the server. source may be nil, in which case the window
// endpoints report an empty list.
func New(cfg config.DebugConfig, source Source, metrics *monitoring.Metrics, log *logging.Logger) *Server {
	if log == nil {
		log = logging.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		log:     log.Named("debug"),
		metrics: metrics,
		source:  source,
		taps:    make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			// Local-only inspection surface; browsers on any origin may
			// attach.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(s.rateLimit())

	router.GET("/health", s.handleHealth)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(
			promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	}
	router.GET("/windows", s.handleWindows)
	router.GET("/windows/:id/style", s.handleWindowStyle)
	router.GET("/events", s.handleEventTap)

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the underlying router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("debug server listening", zap.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("debug server failed", zap.Error(err))
		}
	}()
}

// Stop shuts the server down and disconnects all taps.
func (s *Server) Stop(ctx context.Context) error {
	s.tapMu.Lock()
	for conn := range s.taps {
		conn.Close()
		delete(s.taps, conn)
	}
	s.trackTaps()
	s.tapMu.Unlock()
	return s.httpSrv.Shutdown(ctx)
}

// Broadcast streams one bridge-traffic record to every attached tap.
// Safe from any goroutine.
func (s *Server) Broadcast(windowID, kind string, payload any) {
	event := TapEvent{
		Window:  windowID,
		Kind:    kind,
		Payload: payload,
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
	}

	s.tapMu.Lock()
	defer s.tapMu.Unlock()
	for conn := range s.taps {
		if err := conn.WriteJSON(event); err != nil {
			conn.Close()
			delete(s.taps, conn)
			s.trackTaps()
		}
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.Burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleWindows(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"windows": s.windows()})
}

func (s *Server) handleWindowStyle(c *gin.Context) {
	want := c.Param("id")
	for _, info := range s.windows() {
		if info.ID == want {
			c.JSON(http.StatusOK, info.Style)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown window"})
}

func (s *Server) handleEventTap(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("event tap upgrade failed", zap.Error(err))
		return
	}

	s.tapMu.Lock()
	s.taps[conn] = struct{}{}
	s.trackTaps()
	s.tapMu.Unlock()

	// Reader loop exists only to observe the close.
	go func() {
		defer func() {
			s.tapMu.Lock()
			delete(s.taps, conn)
			s.trackTaps()
			s.tapMu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// trackTaps mirrors the tap count into metrics; callers hold tapMu.
func (s *Server) trackTaps() {
	if s.metrics != nil {
		s.metrics.DebugConnections.Set(float64(len(s.taps)))
	}
}

func (s *Server) windows() []WindowInfo {
	if s.source == nil {
		return []WindowInfo{}
	}
	return s.source.DebugWindows()
}
