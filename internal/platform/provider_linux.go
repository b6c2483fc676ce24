//go:build linux

package platform

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
	"go.uber.org/zap"

	"github.com/bamboo-ui/bamboo/internal/logging"
	"github.com/bamboo-ui/bamboo/internal/style"
)

// X11 applies style and control operations to one X11 window through EWMH
// hints. Compositor-dependent effects (opacity, blur) take effect only when
// a compositing manager is running; the hints are set unconditionally.
type X11 struct {
	xu  *xgbutil.XUtil
	win xproto.Window
	log *logging.Logger
}

var _ Provider = (*X11)(nil)

// NewX11 wraps an existing X11 window. The caller keeps ownership of the
// connection and the window.
func NewX11(xu *xgbutil.XUtil, win xproto.Window, log *logging.Logger) *X11 {
	if log == nil {
		log = logging.NewNop()
	}
	return &X11{xu: xu, win: win, log: log}
}

// ConnectX11 opens a fresh X server connection for callers that do not
// already hold one.
func ConnectX11() (*xgbutil.XUtil, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	return xu, nil
}

func (p *X11) ApplyChromeMode(mode style.ChromeMode, _ style.Titlebar, _ bool) error {
	hints := motif.Hints{
		Flags:      motif.HintDecorations,
		Decoration: motif.DecorationAll,
	}
	if mode == style.ChromeFrameless || mode == style.ChromeCustomTitlebar {
		hints.Decoration = motif.DecorationNone
	}
	if err := motif.WmHintsSet(p.xu, p.win, &hints); err != nil {
		return fmt.Errorf("set motif hints: %w", err)
	}
	return nil
}

// SetTransparency maps the combined transparent flag and opacity onto the
// single _NET_WM_WINDOW_OPACITY cardinal.
func (p *X11) SetTransparency(transparent bool, opacity float64) error {
	const opaque = 0xFFFFFFFF
	value := uint(opaque)
	if transparent {
		if opacity < 0 {
			opacity = 0
		} else if opacity > 1 {
			opacity = 1
		}
		value = uint(opacity * opaque)
	}
	return xprop.ChangeProp32(p.xu, p.win, "_NET_WM_WINDOW_OPACITY", "CARDINAL", value)
}

// SetVibrancy is a macOS effect with no X11 counterpart.
func (p *X11) SetVibrancy(style.Vibrancy) error { return style.ErrUnsupported }

// SetMaterial maps any non-none material onto the KDE blur-behind hint,
// the closest compositor-level analog. Non-KWin compositors ignore it.
func (p *X11) SetMaterial(m style.Material) error {
	atom, err := xprop.Atm(p.xu, "_KDE_NET_WM_BLUR_BEHIND_REGION")
	if err != nil {
		return fmt.Errorf("intern blur atom: %w", err)
	}
	if m == style.MaterialNone {
		return xproto.DeletePropertyChecked(p.xu.Conn(), p.win, atom).Check()
	}
	// An empty region list requests blur behind the whole window.
	return xprop.ChangeProp32(p.xu, p.win, "_KDE_NET_WM_BLUR_BEHIND_REGION", "CARDINAL")
}

func (p *X11) SetBackgroundColor(c style.Color) error {
	pixel := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	return xproto.ChangeWindowAttributesChecked(
		p.xu.Conn(), p.win, xproto.CwBackPixel, []uint32{pixel},
	).Check()
}

// SetShadow has no portable X11 expression; shadows belong to the
// compositor's decoration policy.
func (p *X11) SetShadow(style.Shadow) error { return style.ErrUnsupported }

// SetCornerRadius has no X11 hint; rounding is done by compositor rules.
func (p *X11) SetCornerRadius(int) error { return style.ErrUnsupported }

// SetResizable freezes the window at its current geometry by pinning the
// WM_NORMAL_HINTS min and max size to the same value.
func (p *X11) SetResizable(resizable bool) error {
	if resizable {
		return icccm.WmNormalHintsSet(p.xu, p.win, &icccm.NormalHints{})
	}
	geom, err := xwindow.New(p.xu, p.win).Geometry()
	if err != nil {
		return fmt.Errorf("query geometry: %w", err)
	}
	w, h := uint(geom.Width()), uint(geom.Height())
	return icccm.WmNormalHintsSet(p.xu, p.win, &icccm.NormalHints{
		Flags:     icccm.SizeHintPMinSize | icccm.SizeHintPMaxSize,
		MinWidth:  w,
		MinHeight: h,
		MaxWidth:  w,
		MaxHeight: h,
	})
}

func (p *X11) SetAlwaysOnTop(onTop bool) error {
	return p.stateReq(onTop, "_NET_WM_STATE_ABOVE")
}

func (p *X11) SetSkipTaskbar(skip bool) error {
	return p.stateReq(skip, "_NET_WM_STATE_SKIP_TASKBAR")
}

// SetDragRegions is handled in-page on X11; moves come from the pointer
// grab of the toolkit, not from a window-manager hint.
func (p *X11) SetDragRegions([]style.DragRegion) error { return style.ErrUnsupported }

func (p *X11) Minimize() error {
	return ewmh.ClientEvent(p.xu, p.win, "WM_CHANGE_STATE", icccm.StateIconic)
}

func (p *X11) Maximize() error {
	if err := ewmh.WmStateReq(p.xu, p.win, ewmh.StateAdd, "_NET_WM_STATE_MAXIMIZED_HORZ"); err != nil {
		return err
	}
	return ewmh.WmStateReq(p.xu, p.win, ewmh.StateAdd, "_NET_WM_STATE_MAXIMIZED_VERT")
}

func (p *X11) Restore() error {
	if err := ewmh.WmStateReq(p.xu, p.win, ewmh.StateRemove, "_NET_WM_STATE_MAXIMIZED_HORZ"); err != nil {
		return err
	}
	if err := ewmh.WmStateReq(p.xu, p.win, ewmh.StateRemove, "_NET_WM_STATE_MAXIMIZED_VERT"); err != nil {
		return err
	}
	return ewmh.WmStateReq(p.xu, p.win, ewmh.StateRemove, "_NET_WM_STATE_FULLSCREEN")
}

func (p *X11) Close() error {
	return ewmh.CloseWindow(p.xu, p.win)
}

func (p *X11) Focus() error {
	return ewmh.ActiveWindowReq(p.xu, p.win)
}

func (p *X11) SetTitle(title string) error {
	if err := ewmh.WmNameSet(p.xu, p.win, title); err != nil {
		return err
	}
	// Older window managers read the ICCCM name.
	return icccm.WmNameSet(p.xu, p.win, title)
}

func (p *X11) SetFullscreen(on bool) error {
	return p.stateReq(on, "_NET_WM_STATE_FULLSCREEN")
}

func (p *X11) stateReq(on bool, atom string) error {
	action := ewmh.StateRemove
	if on {
		action = ewmh.StateAdd
	}
	if err := ewmh.WmStateReq(p.xu, p.win, action, atom); err != nil {
		p.log.Debug("ewmh state request failed",
			zap.String("atom", atom), zap.Error(err))
		return err
	}
	return nil
}
