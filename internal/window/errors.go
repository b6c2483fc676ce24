package window

import (
	"errors"

	"github.com/bamboo-ui/bamboo/internal/engine"
)

var (
	// ErrCreateFailed reports that window construction could not complete.
	ErrCreateFailed = errors.New("window creation failed")
	// ErrInvalidState reports an operation on a closed window.
	ErrInvalidState = errors.New("window in invalid state")
	// ErrScriptException reports a script-side exception surfaced from a
	// remote evaluation.
	ErrScriptException = errors.New("script threw an exception")
	// ErrNavigationBlocked reports a navigation denied by the interception
	// hook.
	ErrNavigationBlocked = engine.ErrNavigationBlocked
)
