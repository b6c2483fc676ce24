package style

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// FullBrowser is the complete native browser experience.
func FullBrowser() Model {
	m := Default()
	m.ChromeMode = ChromeFull
	return m
}

// FullCustom is a frameless, transparent window for 100% custom HTML UI.
func FullCustom() Model {
	m := Default()
	m.ChromeMode = ChromeFrameless
	m.Transparent = true
	m.BackgroundOpacity = 0.0
	m.Shadow.Enabled = false
	m.Scrollbar = ScrollbarHidden
	m.ContextMenu = ContextMenuDisabled
	return m
}

// MacosModern is the hidden-titlebar look: traffic lights floating over a
// vibrancy-backed web canvas.
func MacosModern(v Vibrancy) Model {
	m := Default()
	m.ChromeMode = ChromeCustomTitlebar
	m.Titlebar.MacosHidden = true
	m.Titlebar.Height = 0
	m.MacosVibrancy = v
	m.BackgroundOpacity = 0.85
	m.Shadow.Blur = 30
	return m
}

// Windows11Mica is the frosted-glass Mica backdrop.
func Windows11Mica() Model {
	m := Default()
	m.WindowsMaterial = MaterialMica
	m.BackgroundOpacity = 0.0
	m.Transparent = true
	return m
}

// LoadPresets reads named style presets from a YAML file. Each entry is a
// patch over the default model, so files only list the fields they change.
func LoadPresets(path string) (map[string]Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}

	var raw map[string]Patch
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}

	presets := make(map[string]Model, len(raw))
	for name, patch := range raw {
		presets[name] = Default().Merge(patch)
	}
	return presets, nil
}
