package style

// BuildChromeCSS renders the stylesheet injected into every page to realize
// scrollbar and selection styling that native windowing cannot express.
// Returns "" when the model needs no injection.
func BuildChromeCSS(m Model) string {
	var css string

	switch m.Scrollbar {
	case ScrollbarHidden:
		css += "::-webkit-scrollbar{display:none}*{-ms-overflow-style:none;scrollbar-width:none}"
	case ScrollbarOverlay:
		css += "::-webkit-scrollbar{width:8px;height:8px}" +
			"::-webkit-scrollbar-track{background:transparent}" +
			"::-webkit-scrollbar-thumb{background:rgba(0,0,0,.3);border-radius:4px}"
	}

	if !m.AllowTextSelection {
		css += "*{user-select:none;-webkit-user-select:none}"
	}

	return css
}
