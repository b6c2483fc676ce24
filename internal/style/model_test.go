package style

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFullyPopulated(t *testing.T) {
	m := Default()
	assert.Equal(t, ChromeNativeTitlebar, m.ChromeMode)
	assert.Equal(t, White(), m.BackgroundColor)
	assert.Equal(t, 1.0, m.BackgroundOpacity)
	assert.True(t, m.Resizable)
	assert.True(t, m.Shadow.Enabled)
	assert.Equal(t, FullscreenNative, m.Fullscreen)
	assert.Equal(t, 1.0, m.ZoomFactor)
}

func TestMergePartialKeepsRest(t *testing.T) {
	initial := Default()
	initial.CornerRadius = 0
	initial.Transparent = false

	patch, err := DecodePatch(json.RawMessage(`{"cornerRadius":12}`))
	require.NoError(t, err)

	merged := initial.Merge(patch)

	assert.Equal(t, 12, merged.CornerRadius)
	assert.False(t, merged.Transparent)
	// Original untouched.
	assert.Equal(t, 0, initial.CornerRadius)
}

func TestMergeMultipleFields(t *testing.T) {
	patch, err := DecodePatch(json.RawMessage(
		`{"transparent":true,"backgroundOpacity":0.5,"alwaysOnTop":true,"windowsMaterial":"acrylic"}`))
	require.NoError(t, err)

	merged := Default().Merge(patch)

	assert.True(t, merged.Transparent)
	assert.Equal(t, 0.5, merged.BackgroundOpacity)
	assert.True(t, merged.AlwaysOnTop)
	assert.Equal(t, MaterialAcrylic, merged.WindowsMaterial)
}

func TestMergeDragRegionsReplacesWholesale(t *testing.T) {
	initial := Default()
	initial.DragRegions = []DragRegion{{X: 0, Y: 0, Width: 100, Height: 40, Draggable: true}}

	patch, err := DecodePatch(json.RawMessage(`{"dragRegions":[]}`))
	require.NoError(t, err)

	merged := initial.Merge(patch)
	assert.Empty(t, merged.DragRegions)
	assert.Len(t, initial.DragRegions, 1)
}

func TestCloneIsolatesDragRegions(t *testing.T) {
	m := Default()
	m.DragRegions = []DragRegion{{Width: 10, Height: 10, Draggable: true}}

	c := m.Clone()
	c.DragRegions[0].Width = 99

	assert.Equal(t, 10, m.DragRegions[0].Width)
}

func TestDecodePatchInvalid(t *testing.T) {
	_, err := DecodePatch(json.RawMessage(`{"cornerRadius":"not a number"}`))
	assert.Error(t, err)
}

func TestHexColor(t *testing.T) {
	c := Hex(0xFF336699)
	assert.Equal(t, Color{R: 0x33, G: 0x66, B: 0x99, A: 0xFF}, c)
}

func TestPresets(t *testing.T) {
	fb := FullBrowser()
	assert.Equal(t, ChromeFull, fb.ChromeMode)

	fc := FullCustom()
	assert.Equal(t, ChromeFrameless, fc.ChromeMode)
	assert.True(t, fc.Transparent)
	assert.Equal(t, ScrollbarHidden, fc.Scrollbar)
	assert.False(t, fc.Shadow.Enabled)

	mm := MacosModern(VibrancySidebar)
	assert.Equal(t, VibrancySidebar, mm.MacosVibrancy)
	assert.True(t, mm.Titlebar.MacosHidden)

	wm := Windows11Mica()
	assert.Equal(t, MaterialMica, wm.WindowsMaterial)
	assert.True(t, wm.Transparent)
}

func TestBuildChromeCSS(t *testing.T) {
	m := Default()
	assert.Empty(t, BuildChromeCSS(m))

	m.Scrollbar = ScrollbarHidden
	assert.Contains(t, BuildChromeCSS(m), "::-webkit-scrollbar{display:none}")

	m.Scrollbar = ScrollbarOverlay
	assert.Contains(t, BuildChromeCSS(m), "border-radius:4px")

	m.AllowTextSelection = false
	assert.Contains(t, BuildChromeCSS(m), "user-select:none")
}
