// Package platform hosts the per-OS capability providers the style
// reconciler and window command dispatcher call into. Providers hold only
// a weak reference to the native window handle; the windowing system owns
// the window's lifetime.
package platform

import (
	"github.com/bamboo-ui/bamboo/internal/style"
)

// Control is the window-command operation set used by the window op
// dispatcher, alongside the style.Capability reconciliation set.
type Control interface {
	Minimize() error
	Maximize() error
	Restore() error
	Close() error
	Focus() error
	SetTitle(title string) error
	SetFullscreen(on bool) error
}

// Provider combines style reconciliation and window control for one
// OS family.
type Provider interface {
	style.Capability
	Control
}

// Noop accepts no operation; every call reports style.ErrUnsupported so
// the reconciler degrades to a silent no-op. Used on platforms without a
// native adapter and for headless embedding.
type Noop struct{}

var _ Provider = Noop{}

func (Noop) ApplyChromeMode(style.ChromeMode, style.Titlebar, bool) error {
	return style.ErrUnsupported
}
func (Noop) SetTransparency(bool, float64) error      { return style.ErrUnsupported }
func (Noop) SetVibrancy(style.Vibrancy) error         { return style.ErrUnsupported }
func (Noop) SetMaterial(style.Material) error         { return style.ErrUnsupported }
func (Noop) SetBackgroundColor(style.Color) error     { return style.ErrUnsupported }
func (Noop) SetShadow(style.Shadow) error             { return style.ErrUnsupported }
func (Noop) SetCornerRadius(int) error                { return style.ErrUnsupported }
func (Noop) SetResizable(bool) error                  { return style.ErrUnsupported }
func (Noop) SetAlwaysOnTop(bool) error                { return style.ErrUnsupported }
func (Noop) SetSkipTaskbar(bool) error                { return style.ErrUnsupported }
func (Noop) SetDragRegions([]style.DragRegion) error  { return style.ErrUnsupported }
func (Noop) Minimize() error                          { return style.ErrUnsupported }
func (Noop) Maximize() error                          { return style.ErrUnsupported }
func (Noop) Restore() error                           { return style.ErrUnsupported }
func (Noop) Close() error                             { return style.ErrUnsupported }
func (Noop) Focus() error                             { return style.ErrUnsupported }
func (Noop) SetTitle(string) error                    { return style.ErrUnsupported }
func (Noop) SetFullscreen(bool) error                 { return style.ErrUnsupported }
