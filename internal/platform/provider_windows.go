//go:build windows

package platform

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/bamboo-ui/bamboo/internal/logging"
	"github.com/bamboo-ui/bamboo/internal/style"
)

var (
	dwmapi                       = windows.NewLazySystemDLL("dwmapi.dll")
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procDwmSetWindowAttribute    = dwmapi.NewProc("DwmSetWindowAttribute")
	procDwmExtendFrame           = dwmapi.NewProc("DwmExtendFrameIntoClientArea")
	procSetWindowLong            = user32.NewProc("SetWindowLongW")
	procGetWindowLong            = user32.NewProc("GetWindowLongW")
	procSetWindowPos             = user32.NewProc("SetWindowPos")
	procShowWindow               = user32.NewProc("ShowWindow")
	procSetWindowText            = user32.NewProc("SetWindowTextW")
	procSetForegroundWindow      = user32.NewProc("SetForegroundWindow")
	procSetLayeredWindowAttrs    = user32.NewProc("SetLayeredWindowAttributes")
	procPostMessage              = user32.NewProc("PostMessageW")
)

const (
	gwlStyle   = ^uintptr(15) // -16
	gwlExStyle = ^uintptr(19) // -20

	wsCaption     = 0x00C00000
	wsThickframe  = 0x00040000
	wsMaximizebox = 0x00010000
	wsExLayered   = 0x00080000
	wsExToolwin   = 0x00000080
	wsExAppwin    = 0x00040000
	wsExTopmost   = 0x00000008

	swpNosize     = 0x0001
	swpNomove     = 0x0002
	swpFramechanged = 0x0020

	swMinimize = 6
	swMaximize = 3
	swRestore  = 9

	lwaAlpha = 0x02

	wmClose = 0x0010

	dwmaWindowCornerPreference = 33
	dwmaSystemBackdropType     = 38

	cornerDefault = 0
	cornerRound   = 2
	cornerSquare  = 1

	backdropNone    = 1
	backdropMica    = 2
	backdropAcrylic = 3
	backdropTabbed  = 4
)

type margins struct {
	left, right, top, bottom int32
}

// DWM applies style and control operations to one Win32 window through the
// Desktop Window Manager and user32. Mica and acrylic backdrops need
// Windows 11 22H2; on older builds DwmSetWindowAttribute rejects the
// attribute and the error is surfaced to the reconciler's log.
type DWM struct {
	hwnd windows.HWND
	log  *logging.Logger
}

var _ Provider = (*DWM)(nil)

// NewDWM wraps an existing top-level window handle.
func NewDWM(hwnd windows.HWND, log *logging.Logger) *DWM {
	if log == nil {
		log = logging.NewNop()
	}
	return &DWM{hwnd: hwnd, log: log}
}

func (p *DWM) setAttr(attr uint32, value uint32) error {
	hr, _, _ := procDwmSetWindowAttribute.Call(
		uintptr(p.hwnd), uintptr(attr),
		uintptr(unsafe.Pointer(&value)), unsafe.Sizeof(value),
	)
	if hr != 0 {
		return fmt.Errorf("DwmSetWindowAttribute(%d): HRESULT 0x%08X", attr, hr)
	}
	return nil
}

func (p *DWM) windowStyle() uintptr {
	s, _, _ := procGetWindowLong.Call(uintptr(p.hwnd), gwlStyle)
	return s
}

func (p *DWM) setWindowStyle(s uintptr) error {
	procSetWindowLong.Call(uintptr(p.hwnd), gwlStyle, s)
	// The frame is not repainted until a SetWindowPos with FRAMECHANGED.
	ok, _, err := procSetWindowPos.Call(uintptr(p.hwnd), 0, 0, 0, 0, 0,
		swpNosize|swpNomove|swpFramechanged)
	if ok == 0 {
		return fmt.Errorf("SetWindowPos: %w", err)
	}
	return nil
}

func (p *DWM) ApplyChromeMode(mode style.ChromeMode, _ style.Titlebar, resizable bool) error {
	s := p.windowStyle()
	switch mode {
	case style.ChromeFrameless, style.ChromeCustomTitlebar:
		s &^= wsCaption
	default:
		s |= wsCaption
	}
	if resizable {
		s |= wsThickframe | wsMaximizebox
	} else {
		s &^= wsThickframe | wsMaximizebox
	}
	return p.setWindowStyle(s)
}

func (p *DWM) SetTransparency(transparent bool, opacity float64) error {
	ex, _, _ := procGetWindowLong.Call(uintptr(p.hwnd), gwlExStyle)
	if !transparent {
		procSetWindowLong.Call(uintptr(p.hwnd), gwlExStyle, ex&^wsExLayered)
		return nil
	}
	procSetWindowLong.Call(uintptr(p.hwnd), gwlExStyle, ex|wsExLayered)
	if opacity < 0 {
		opacity = 0
	} else if opacity > 1 {
		opacity = 1
	}
	alpha := uintptr(opacity * 255)
	ok, _, err := procSetLayeredWindowAttrs.Call(uintptr(p.hwnd), 0, alpha, lwaAlpha)
	if ok == 0 {
		return fmt.Errorf("SetLayeredWindowAttributes: %w", err)
	}
	return nil
}

// SetVibrancy is a macOS effect; the Windows analog is SetMaterial.
func (p *DWM) SetVibrancy(style.Vibrancy) error { return style.ErrUnsupported }

func (p *DWM) SetMaterial(m style.Material) error {
	var backdrop uint32
	switch m {
	case style.MaterialNone:
		backdrop = backdropNone
	case style.MaterialMica:
		backdrop = backdropMica
	case style.MaterialAcrylic:
		backdrop = backdropAcrylic
	case style.MaterialTabbed:
		backdrop = backdropTabbed
	default:
		return fmt.Errorf("unknown material %q", m)
	}
	if backdrop != backdropNone {
		// The backdrop shows through only where the frame extends into
		// the client area.
		mar := margins{-1, -1, -1, -1}
		procDwmExtendFrame.Call(uintptr(p.hwnd), uintptr(unsafe.Pointer(&mar)))
	}
	return p.setAttr(dwmaSystemBackdropType, backdrop)
}

// SetBackgroundColor is painted by the rendering surface, not the window
// frame, so there is nothing to do at the Win32 level.
func (p *DWM) SetBackgroundColor(style.Color) error { return style.ErrUnsupported }

// SetShadow follows the frame on Windows; DWM draws it for any window
// with a non-client border.
func (p *DWM) SetShadow(style.Shadow) error { return style.ErrUnsupported }

func (p *DWM) SetCornerRadius(radius int) error {
	pref := uint32(cornerDefault)
	switch {
	case radius == 0:
		pref = cornerSquare
	case radius > 0:
		pref = cornerRound
	}
	return p.setAttr(dwmaWindowCornerPreference, pref)
}

func (p *DWM) SetResizable(resizable bool) error {
	s := p.windowStyle()
	if resizable {
		s |= wsThickframe | wsMaximizebox
	} else {
		s &^= wsThickframe | wsMaximizebox
	}
	return p.setWindowStyle(s)
}

func (p *DWM) SetAlwaysOnTop(onTop bool) error {
	insertAfter := ^uintptr(1) // HWND_NOTOPMOST (-2)
	if onTop {
		insertAfter = ^uintptr(0) // HWND_TOPMOST (-1)
	}
	ok, _, err := procSetWindowPos.Call(uintptr(p.hwnd), insertAfter, 0, 0, 0, 0,
		swpNosize|swpNomove)
	if ok == 0 {
		return fmt.Errorf("SetWindowPos: %w", err)
	}
	return nil
}

func (p *DWM) SetSkipTaskbar(skip bool) error {
	ex, _, _ := procGetWindowLong.Call(uintptr(p.hwnd), gwlExStyle)
	if skip {
		ex = ex&^wsExAppwin | wsExToolwin
	} else {
		ex = ex&^wsExToolwin | wsExAppwin
	}
	procSetWindowLong.Call(uintptr(p.hwnd), gwlExStyle, ex)
	return nil
}

// SetDragRegions is resolved in-page by hit testing, not by a Win32 call.
func (p *DWM) SetDragRegions([]style.DragRegion) error { return style.ErrUnsupported }

func (p *DWM) Minimize() error {
	procShowWindow.Call(uintptr(p.hwnd), swMinimize)
	return nil
}

func (p *DWM) Maximize() error {
	procShowWindow.Call(uintptr(p.hwnd), swMaximize)
	return nil
}

func (p *DWM) Restore() error {
	procShowWindow.Call(uintptr(p.hwnd), swRestore)
	return nil
}

func (p *DWM) Close() error {
	ok, _, err := procPostMessage.Call(uintptr(p.hwnd), wmClose, 0, 0)
	if ok == 0 {
		return fmt.Errorf("PostMessage(WM_CLOSE): %w", err)
	}
	return nil
}

func (p *DWM) Focus() error {
	procSetForegroundWindow.Call(uintptr(p.hwnd))
	return nil
}

func (p *DWM) SetTitle(title string) error {
	ptr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	ok, _, callErr := procSetWindowText.Call(uintptr(p.hwnd), uintptr(unsafe.Pointer(ptr)))
	if ok == 0 {
		return fmt.Errorf("SetWindowText: %w", callErr)
	}
	return nil
}

// SetFullscreen borderless-fullscreens by dropping the frame; the size
// change itself belongs to the window's owner.
func (p *DWM) SetFullscreen(on bool) error {
	s := p.windowStyle()
	if on {
		s &^= wsCaption | wsThickframe
	} else {
		s |= wsCaption | wsThickframe
	}
	return p.setWindowStyle(s)
}
