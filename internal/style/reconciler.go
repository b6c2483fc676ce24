package style

import (
	"errors"
	"slices"

	"github.com/bamboo-ui/bamboo/internal/logging"
	"github.com/bamboo-ui/bamboo/internal/monitoring"
	"go.uber.org/zap"
)

// ErrUnsupported is returned by a capability provider when the current
// platform cannot express an operation. The reconciler treats it as a
// silent no-op: per-platform feature gaps are expected, not failures.
var ErrUnsupported = errors.New("operation not supported on this platform")

// Capability is the per-platform operation set the reconciler dispatches
// to. Implementations hold only a weak reference to the native window and
// must tolerate redundant calls with unchanged values.
type Capability interface {
	ApplyChromeMode(mode ChromeMode, titlebar Titlebar, resizable bool) error
	SetTransparency(transparent bool, opacity float64) error
	SetVibrancy(v Vibrancy) error
	SetMaterial(m Material) error
	SetBackgroundColor(c Color) error
	SetShadow(s Shadow) error
	SetCornerRadius(radius int) error
	SetResizable(resizable bool) error
	SetAlwaysOnTop(onTop bool) error
	SetSkipTaskbar(skip bool) error
	SetDragRegions(regions []DragRegion) error
}

// Reconciler owns the authoritative style model for one window and
// converges native window state toward it through a Capability provider.
//
// Apply replaces the whole model and walks a fixed operation order; the
// order matters because later operations (corner radius on a frameless
// window) depend on structural state set by earlier ones (chrome mode).
type Reconciler struct {
	provider Capability
	log      *logging.Logger
	metrics  *monitoring.Metrics

	model   Model
	applied bool
}

// NewReconciler creates a reconciler holding the initial model. The model
// is not applied until the first Apply call, so callers control when the
// window is first styled.
func NewReconciler(provider Capability, initial Model, log *logging.Logger, metrics *monitoring.Metrics) *Reconciler {
	if log == nil {
		log = logging.NewNop()
	}
	return &Reconciler{
		provider: provider,
		log:      log,
		metrics:  metrics,
		model:    initial.Clone(),
	}
}

// Model returns a copy of the current authoritative model.
func (r *Reconciler) Model() Model {
	return r.model.Clone()
}

// Apply atomically replaces the stored model and invokes the provider's
// operations in fixed order. Operations whose input fields are unchanged
// from the previous applied model are skipped, so re-applying an identical
// model performs no platform work.
func (r *Reconciler) Apply(next Model) {
	prev := r.model
	first := !r.applied
	r.model = next.Clone()
	r.applied = true
	r.metrics.RecordStyleApply()

	if first || chromeInputChanged(prev, next) {
		r.invoke("chrome", func() error {
			return r.provider.ApplyChromeMode(next.ChromeMode, next.Titlebar, next.Resizable)
		})
	}
	if first || prev.Transparent != next.Transparent || prev.BackgroundOpacity != next.BackgroundOpacity {
		r.invoke("transparency", func() error {
			return r.provider.SetTransparency(next.Transparent, next.BackgroundOpacity)
		})
	}
	if first || prev.MacosVibrancy != next.MacosVibrancy {
		r.invoke("vibrancy", func() error { return r.provider.SetVibrancy(next.MacosVibrancy) })
	}
	if first || prev.WindowsMaterial != next.WindowsMaterial {
		r.invoke("material", func() error { return r.provider.SetMaterial(next.WindowsMaterial) })
	}
	if first || prev.BackgroundColor != next.BackgroundColor {
		r.invoke("background", func() error { return r.provider.SetBackgroundColor(next.BackgroundColor) })
	}
	if first || prev.Shadow != next.Shadow {
		r.invoke("shadow", func() error { return r.provider.SetShadow(next.Shadow) })
	}
	if first || prev.CornerRadius != next.CornerRadius {
		r.invoke("cornerRadius", func() error { return r.provider.SetCornerRadius(next.CornerRadius) })
	}
	if first || prev.Resizable != next.Resizable {
		r.invoke("resizable", func() error { return r.provider.SetResizable(next.Resizable) })
	}
	if first || prev.AlwaysOnTop != next.AlwaysOnTop {
		r.invoke("alwaysOnTop", func() error { return r.provider.SetAlwaysOnTop(next.AlwaysOnTop) })
	}
	if first || prev.SkipTaskbar != next.SkipTaskbar {
		r.invoke("skipTaskbar", func() error { return r.provider.SetSkipTaskbar(next.SkipTaskbar) })
	}
	if first || !slices.Equal(prev.DragRegions, next.DragRegions) {
		r.invoke("dragRegions", func() error { return r.provider.SetDragRegions(next.DragRegions) })
	}
}

// Direct mutators: each updates exactly one stored field and re-invokes
// only the corresponding platform operation, never the full sequence.
// Cross-field dependencies (corner radius visibility under a chrome-mode
// change) are the caller's responsibility; use Apply for those.

// SetCornerRadius updates the corner radius field and operation only.
func (r *Reconciler) SetCornerRadius(radius int) {
	r.model.CornerRadius = radius
	r.invoke("cornerRadius", func() error { return r.provider.SetCornerRadius(radius) })
}

// SetVibrancy updates the macOS vibrancy field and operation only.
func (r *Reconciler) SetVibrancy(v Vibrancy) {
	r.model.MacosVibrancy = v
	r.invoke("vibrancy", func() error { return r.provider.SetVibrancy(v) })
}

// SetMaterial updates the Windows material field and operation only.
func (r *Reconciler) SetMaterial(m Material) {
	r.model.WindowsMaterial = m
	r.invoke("material", func() error { return r.provider.SetMaterial(m) })
}

// SetBackgroundColor updates the background color field and operation only.
func (r *Reconciler) SetBackgroundColor(c Color) {
	r.model.BackgroundColor = c
	r.invoke("background", func() error { return r.provider.SetBackgroundColor(c) })
}

// SetShadow updates the shadow field and operation only.
func (r *Reconciler) SetShadow(s Shadow) {
	r.model.Shadow = s
	r.invoke("shadow", func() error { return r.provider.SetShadow(s) })
}

// SetResizable updates the resizable field and operation only.
func (r *Reconciler) SetResizable(resizable bool) {
	r.model.Resizable = resizable
	r.invoke("resizable", func() error { return r.provider.SetResizable(resizable) })
}

// SetAlwaysOnTop updates the always-on-top field and operation only.
func (r *Reconciler) SetAlwaysOnTop(onTop bool) {
	r.model.AlwaysOnTop = onTop
	r.invoke("alwaysOnTop", func() error { return r.provider.SetAlwaysOnTop(onTop) })
}

// SetDragRegions replaces the drag-region list wholesale and re-invokes
// only the drag-region operation.
func (r *Reconciler) SetDragRegions(regions []DragRegion) {
	replaced := make([]DragRegion, len(regions))
	copy(replaced, regions)
	r.model.DragRegions = replaced
	r.invoke("dragRegions", func() error { return r.provider.SetDragRegions(replaced) })
}

func chromeInputChanged(prev, next Model) bool {
	return prev.ChromeMode != next.ChromeMode ||
		prev.Titlebar != next.Titlebar ||
		prev.Resizable != next.Resizable
}

func (r *Reconciler) invoke(op string, fn func() error) {
	r.metrics.RecordPlatformOp(op)
	err := fn()
	switch {
	case err == nil:
	case errors.Is(err, ErrUnsupported):
		r.log.Debug("platform operation unsupported", zap.String("op", op))
	default:
		r.log.Warn("platform operation failed", zap.String("op", op), zap.Error(err))
	}
}
