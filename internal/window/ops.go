package window

import (
	"encoding/json"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/bamboo-ui/bamboo/internal/style"
	"github.com/bamboo-ui/bamboo/internal/wire"
)

// HandleWindowOp implements the bridge sink for windowOp messages. Ops
// carrying the wrong value shape, or value-bearing ops with no value, are
// no-ops; unknown ops are ignored.
func (w *Window) HandleWindowOp(op string, value json.RawMessage) {
	if w.closed {
		return
	}
	switch op {
	case wire.OpMinimize:
		w.controlOp(op, w.provider.Minimize)
	case wire.OpMaximize:
		w.controlOp(op, w.provider.Maximize)
	case wire.OpRestore:
		w.controlOp(op, w.provider.Restore)
	case wire.OpClose:
		w.Close()
	case wire.OpSetTitle:
		if title, ok := wire.Scalar(value).(string); ok {
			w.SetTitle(title)
		}
	case wire.OpAlwaysOnTop:
		if onTop, ok := wire.Scalar(value).(bool); ok {
			w.reconciler.SetAlwaysOnTop(onTop)
		}
	case wire.OpFullscreen:
		if on, ok := wire.Scalar(value).(bool); ok {
			w.controlOp(op, func() error { return w.provider.SetFullscreen(on) })
		}
	case wire.OpZoom:
		if factor, ok := wire.Scalar(value).(float64); ok && factor > 0 {
			w.setZoomFactor(factor)
		}
	case wire.OpDevTools:
		// The value is the docked flag; absent means undocked.
		docked, _ := wire.Scalar(value).(bool)
		if err := w.engine.OpenDevTools(docked); err != nil {
			w.log.Warn("devtools open failed", zap.Error(err))
		}
	case wire.OpCloseDevTools:
		if err := w.engine.CloseDevTools(); err != nil {
			w.log.Warn("devtools close failed", zap.Error(err))
		}
	case wire.OpPrint:
		if err := w.engine.Print(); err != nil && !errors.Is(err, errors.ErrUnsupported) {
			w.log.Warn("print failed", zap.Error(err))
		}
	default:
		w.log.Debug("ignoring unknown window op", zap.String("op", op))
	}
}

func (w *Window) controlOp(op string, fn func() error) {
	w.metrics.RecordPlatformOp(op)
	if err := fn(); err != nil && !errors.Is(err, style.ErrUnsupported) {
		w.log.Warn("window op failed", zap.String("op", op), zap.Error(err))
	}
}

// setZoomFactor applies an absolute zoom factor, snapping the level to the
// nearest step so ZoomIn/ZoomOut continue from it.
func (w *Window) setZoomFactor(factor float64) {
	if err := w.engine.SetZoom(factor); err != nil {
		w.log.Warn("zoom change failed", zap.Error(err))
		return
	}
	w.zoomLevel = nearestZoomLevel(factor)
}

func nearestZoomLevel(factor float64) int {
	return int(math.Round(math.Log(factor) / math.Log(zoomStep)))
}
