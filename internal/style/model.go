// Package style defines the declarative window-appearance model and the
// reconciler that converges native window state toward it.
package style

// Color is an RGBA color. JSON keys match the bridge wire format.
type Color struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
	A uint8 `json:"a" yaml:"a"`
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b, A: 255} }

// RGBA returns a color with explicit alpha.
func RGBA(r, g, b, a uint8) Color { return Color{R: r, G: g, B: b, A: a} }

// Hex builds a color from a 0xAARRGGBB value.
func Hex(argb uint32) Color {
	return Color{
		R: uint8(argb >> 16),
		G: uint8(argb >> 8),
		B: uint8(argb),
		A: uint8(argb >> 24),
	}
}

func White() Color       { return RGB(255, 255, 255) }
func Black() Color       { return RGB(0, 0, 0) }
func Transparent() Color { return Color{} }

// ChromeMode selects how much native window chrome the OS draws.
type ChromeMode string

const (
	// ChromeFull is the complete native browser UI.
	ChromeFull ChromeMode = "full"
	// ChromeNativeTitlebar keeps the system titlebar and borders only.
	ChromeNativeTitlebar ChromeMode = "nativeTitlebar"
	// ChromeFrameless removes all OS chrome; drag regions take over.
	ChromeFrameless ChromeMode = "frameless"
	// ChromeCustomTitlebar keeps OS window controls over custom content.
	ChromeCustomTitlebar ChromeMode = "customTitlebar"
)

// Vibrancy is the macOS translucency material. Ignored by other platforms.
type Vibrancy string

const (
	VibrancyNone                  Vibrancy = "none"
	VibrancySidebar               Vibrancy = "sidebar"
	VibrancyMenu                  Vibrancy = "menu"
	VibrancyPopover               Vibrancy = "popover"
	VibrancyHUDWindow             Vibrancy = "hudWindow"
	VibrancyUnderWindowBackground Vibrancy = "underWindowBackground"
	VibrancyUnderPageBackground   Vibrancy = "underPageBackground"
	VibrancyTitlebar              Vibrancy = "titlebar"
	VibrancyHeaderView            Vibrancy = "headerView"
	VibrancySheet                 Vibrancy = "sheet"
	VibrancyWindowBackground      Vibrancy = "windowBackground"
	VibrancyContentBackground     Vibrancy = "contentBackground"
	VibrancyFullScreenUI          Vibrancy = "fullScreenUI"
)

// Material is the Windows backdrop material. Ignored by other platforms.
type Material string

const (
	MaterialNone    Material = "none"
	MaterialMica    Material = "mica"
	MaterialMicaAlt Material = "micaAlt"
	MaterialAcrylic Material = "acrylic"
	MaterialTabbed  Material = "tabbed"
)

// ScrollbarStyle controls page scrollbar rendering.
type ScrollbarStyle string

const (
	ScrollbarDefault ScrollbarStyle = "default"
	ScrollbarHidden  ScrollbarStyle = "hidden"
	ScrollbarOverlay ScrollbarStyle = "overlay"
)

// ContextMenuStyle controls right-click behavior.
type ContextMenuStyle string

const (
	ContextMenuDefault  ContextMenuStyle = "default"
	ContextMenuCustom   ContextMenuStyle = "custom"
	ContextMenuDisabled ContextMenuStyle = "disabled"
)

// FullscreenMode controls how fullscreen requests behave.
type FullscreenMode string

const (
	FullscreenDisabled FullscreenMode = "disabled"
	FullscreenNative   FullscreenMode = "native"
	FullscreenKiosk    FullscreenMode = "kiosk"
)

// DragRegion is a rectangle that moves the window when dragged. A region
// with Draggable=false punches a no-drag hole inside a larger drag rect.
type DragRegion struct {
	X         int  `json:"x" yaml:"x"`
	Y         int  `json:"y" yaml:"y"`
	Width     int  `json:"width" yaml:"width"`
	Height    int  `json:"height" yaml:"height"`
	Draggable bool `json:"isDraggable" yaml:"isDraggable"`
}

// Shadow describes the window drop shadow.
type Shadow struct {
	Enabled bool  `json:"enabled" yaml:"enabled"`
	Color   Color `json:"color" yaml:"color"`
	Blur    int   `json:"blur" yaml:"blur"`
	Spread  int   `json:"spread" yaml:"spread"`
	OffsetX int   `json:"offsetX" yaml:"offsetX"`
	OffsetY int   `json:"offsetY" yaml:"offsetY"`
}

// ButtonPosition places macOS traffic-light buttons on hidden titlebars.
type ButtonPosition struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Titlebar describes titlebar appearance under NativeTitlebar and
// CustomTitlebar chrome modes.
type Titlebar struct {
	Visible                 bool           `json:"visible" yaml:"visible"`
	Title                   string         `json:"title" yaml:"title"` // empty = page title
	Background              Color          `json:"background" yaml:"background"`
	Foreground              Color          `json:"foreground" yaml:"foreground"`
	Height                  int            `json:"height" yaml:"height"`
	ShowTitle               bool           `json:"showTitle" yaml:"showTitle"`
	ShowIcon                bool           `json:"showIcon" yaml:"showIcon"`
	IconPath                string         `json:"iconPath" yaml:"iconPath"`
	TransparentWhenInactive bool           `json:"transparentWhenInactive" yaml:"transparentWhenInactive"`
	MacosHidden             bool           `json:"macosHidden" yaml:"macosHidden"`
	MacosButtonPosition     ButtonPosition `json:"macosButtonPosition" yaml:"macosButtonPosition"`
}

// Model is the full declarative description of a window's appearance.
// It is always fully populated: partial updates from the script side are
// merged into a copy (see Merge) before becoming the authoritative model.
type Model struct {
	ChromeMode ChromeMode `json:"chromeMode" yaml:"chromeMode"`
	Titlebar   Titlebar   `json:"titlebar" yaml:"titlebar"`

	BackgroundColor   Color   `json:"backgroundColor" yaml:"backgroundColor"`
	BackgroundOpacity float64 `json:"backgroundOpacity" yaml:"backgroundOpacity"`
	Transparent       bool    `json:"transparent" yaml:"transparent"`

	// Platform materials. Both are always present; each platform's
	// provider reads only its own.
	MacosVibrancy   Vibrancy `json:"macosVibrancy" yaml:"macosVibrancy"`
	WindowsMaterial Material `json:"windowsMaterial" yaml:"windowsMaterial"`

	Shadow       Shadow `json:"shadow" yaml:"shadow"`
	CornerRadius int    `json:"cornerRadius" yaml:"cornerRadius"`

	Resizable   bool           `json:"resizable" yaml:"resizable"`
	Minimizable bool           `json:"minimizable" yaml:"minimizable"`
	Maximizable bool           `json:"maximizable" yaml:"maximizable"`
	AlwaysOnTop bool           `json:"alwaysOnTop" yaml:"alwaysOnTop"`
	SkipTaskbar bool           `json:"skipTaskbar" yaml:"skipTaskbar"`
	Fullscreen  FullscreenMode `json:"fullscreen" yaml:"fullscreen"`

	DragRegions []DragRegion `json:"dragRegions" yaml:"dragRegions"`

	Scrollbar   ScrollbarStyle   `json:"scrollbar" yaml:"scrollbar"`
	ContextMenu ContextMenuStyle `json:"contextMenu" yaml:"contextMenu"`

	DevTools       bool `json:"devTools" yaml:"devTools"`
	DevToolsDocked bool `json:"devToolsDocked" yaml:"devToolsDocked"`

	ZoomFactor float64 `json:"zoomFactor" yaml:"zoomFactor"`
	AllowZoom  bool    `json:"allowZoom" yaml:"allowZoom"`

	AllowTextSelection bool `json:"allowTextSelection" yaml:"allowTextSelection"`
}

// Default returns the baseline model: a resizable window with the native
// titlebar, white opaque background and OS-default decorations.
func Default() Model {
	return Model{
		ChromeMode: ChromeNativeTitlebar,
		Titlebar: Titlebar{
			Visible:    true,
			Background: RGB(245, 245, 245),
			Foreground: Black(),
			Height:     38,
			ShowTitle:  true,
		},
		BackgroundColor:    White(),
		BackgroundOpacity:  1.0,
		MacosVibrancy:      VibrancyNone,
		WindowsMaterial:    MaterialNone,
		Shadow:             Shadow{Enabled: true, Color: RGBA(0, 0, 0, 80), Blur: 20, OffsetY: 4},
		Resizable:          true,
		Minimizable:        true,
		Maximizable:        true,
		Fullscreen:         FullscreenNative,
		Scrollbar:          ScrollbarDefault,
		ContextMenu:        ContextMenuDefault,
		ZoomFactor:         1.0,
		AllowZoom:          true,
		AllowTextSelection: true,
	}
}

// Clone returns a deep copy of the model. The drag-region list is the only
// reference field.
func (m Model) Clone() Model {
	out := m
	if m.DragRegions != nil {
		out.DragRegions = make([]DragRegion, len(m.DragRegions))
		copy(out.DragRegions, m.DragRegions)
	}
	return out
}
