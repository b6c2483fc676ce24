package style

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Patch is a partial style mutation. Nil fields are left untouched by Merge;
// DragRegions, like everywhere else, replaces the whole list when present.
type Patch struct {
	ChromeMode *ChromeMode `json:"chromeMode,omitempty"`
	Titlebar   *Titlebar   `json:"titlebar,omitempty"`

	BackgroundColor   *Color   `json:"backgroundColor,omitempty"`
	BackgroundOpacity *float64 `json:"backgroundOpacity,omitempty"`
	Transparent       *bool    `json:"transparent,omitempty"`

	MacosVibrancy   *Vibrancy `json:"macosVibrancy,omitempty"`
	WindowsMaterial *Material `json:"windowsMaterial,omitempty"`

	Shadow       *Shadow `json:"shadow,omitempty"`
	CornerRadius *int    `json:"cornerRadius,omitempty"`

	Resizable   *bool           `json:"resizable,omitempty"`
	Minimizable *bool           `json:"minimizable,omitempty"`
	Maximizable *bool           `json:"maximizable,omitempty"`
	AlwaysOnTop *bool           `json:"alwaysOnTop,omitempty"`
	SkipTaskbar *bool           `json:"skipTaskbar,omitempty"`
	Fullscreen  *FullscreenMode `json:"fullscreen,omitempty"`

	DragRegions *[]DragRegion `json:"dragRegions,omitempty"`

	Scrollbar   *ScrollbarStyle   `json:"scrollbar,omitempty"`
	ContextMenu *ContextMenuStyle `json:"contextMenu,omitempty"`

	ZoomFactor *float64 `json:"zoomFactor,omitempty"`
	AllowZoom  *bool    `json:"allowZoom,omitempty"`

	AllowTextSelection *bool `json:"allowTextSelection,omitempty"`
}

// DecodePatch parses the partial style object from a setStyle request.
func DecodePatch(raw json.RawMessage) (Patch, error) {
	var p Patch
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return Patch{}, fmt.Errorf("invalid style patch: %w", err)
	}
	return p, nil
}

// Merge applies the patch to a clone of the model and returns the clone.
// The receiver is never mutated.
func (m Model) Merge(p Patch) Model {
	out := m.Clone()

	if p.ChromeMode != nil {
		out.ChromeMode = *p.ChromeMode
	}
	if p.Titlebar != nil {
		out.Titlebar = *p.Titlebar
	}
	if p.BackgroundColor != nil {
		out.BackgroundColor = *p.BackgroundColor
	}
	if p.BackgroundOpacity != nil {
		out.BackgroundOpacity = *p.BackgroundOpacity
	}
	if p.Transparent != nil {
		out.Transparent = *p.Transparent
	}
	if p.MacosVibrancy != nil {
		out.MacosVibrancy = *p.MacosVibrancy
	}
	if p.WindowsMaterial != nil {
		out.WindowsMaterial = *p.WindowsMaterial
	}
	if p.Shadow != nil {
		out.Shadow = *p.Shadow
	}
	if p.CornerRadius != nil {
		out.CornerRadius = *p.CornerRadius
	}
	if p.Resizable != nil {
		out.Resizable = *p.Resizable
	}
	if p.Minimizable != nil {
		out.Minimizable = *p.Minimizable
	}
	if p.Maximizable != nil {
		out.Maximizable = *p.Maximizable
	}
	if p.AlwaysOnTop != nil {
		out.AlwaysOnTop = *p.AlwaysOnTop
	}
	if p.SkipTaskbar != nil {
		out.SkipTaskbar = *p.SkipTaskbar
	}
	if p.Fullscreen != nil {
		out.Fullscreen = *p.Fullscreen
	}
	if p.DragRegions != nil {
		regions := make([]DragRegion, len(*p.DragRegions))
		copy(regions, *p.DragRegions)
		out.DragRegions = regions
	}
	if p.Scrollbar != nil {
		out.Scrollbar = *p.Scrollbar
	}
	if p.ContextMenu != nil {
		out.ContextMenu = *p.ContextMenu
	}
	if p.ZoomFactor != nil {
		out.ZoomFactor = *p.ZoomFactor
	}
	if p.AllowZoom != nil {
		out.AllowZoom = *p.AllowZoom
	}
	if p.AllowTextSelection != nil {
		out.AllowTextSelection = *p.AllowTextSelection
	}

	return out
}
