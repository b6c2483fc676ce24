package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bamboo-ui/bamboo/internal/style"
)

func TestNoopReportsUnsupported(t *testing.T) {
	var p Provider = Noop{}

	assert.True(t, errors.Is(p.SetCornerRadius(8), style.ErrUnsupported))
	assert.True(t, errors.Is(p.SetVibrancy(style.VibrancySidebar), style.ErrUnsupported))
	assert.True(t, errors.Is(p.Minimize(), style.ErrUnsupported))
	assert.True(t, errors.Is(p.SetTitle("x"), style.ErrUnsupported))
	assert.True(t, errors.Is(p.SetFullscreen(true), style.ErrUnsupported))
}

func TestNoopSurvivesFullReconcile(t *testing.T) {
	r := style.NewReconciler(Noop{}, style.Default(), nil, nil)

	// Every operation is unsupported; the sequence must still complete.
	r.Apply(style.FullCustom())
	assert.Equal(t, style.ChromeFrameless, r.Model().ChromeMode)
}
