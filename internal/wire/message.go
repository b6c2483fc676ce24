// Package wire defines the bridge message format shared by the script and
// native sides, and its JSON codec.
package wire

import "encoding/json"

// Kind discriminates bridge message variants on the wire.
type Kind string

const (
	// KindEvent is a fire-and-forget pub/sub notification.
	KindEvent Kind = "message"
	// KindCall is a script-initiated native function invocation.
	KindCall Kind = "call"
	// KindStyle is a partial style mutation request.
	KindStyle Kind = "setStyle"
	// KindDragRegions replaces the window drag-region set wholesale.
	KindDragRegions Kind = "setDragRegions"
	// KindWindowOp is one of the fixed window commands.
	KindWindowOp Kind = "windowOp"
)

// Reserved event names used as internal routing keys. Events with these
// names are handled by the bridge channel and never reach the generic
// message callback.
const (
	// EventEvalResult carries the result of a native-initiated remote
	// evaluation back to the pending-call table.
	EventEvalResult = "__evalResult"
	// EventStyleChanged is published to script subscribers after every
	// style application.
	EventStyleChanged = "__styleChanged"
	// EventContextMenu is published when the custom context-menu style
	// routes a right-click to script.
	EventContextMenu = "__contextMenu"
)

// CallScreenshot is the built-in native function both the screenshot
// window op and bamboo.captureScreenshot route through.
const CallScreenshot = "__screenshot"

// Window op vocabulary. Unknown ops are ignored by the dispatcher.
const (
	OpMinimize    = "minimize"
	OpMaximize    = "maximize"
	OpRestore     = "restore"
	OpClose       = "close"
	OpSetTitle    = "setTitle"
	OpAlwaysOnTop = "alwaysOnTop"
	OpFullscreen  = "fullscreen"
	OpZoom        = "zoom"
	// OpDevTools opens the inspector; its value is the docked flag.
	OpDevTools      = "devTools"
	OpCloseDevTools = "closeDevTools"
	OpPrint         = "print"
	// OpScreenshot carries a call id and resolves like a call.
	OpScreenshot = "screenshot"
)

// Message is the tagged union carried across the bridge. Exactly the fields
// relevant to Type are populated; the rest stay at their zero values.
type Message struct {
	Type Kind `json:"type"`

	// KindEvent
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`

	// KindCall
	ID   string            `json:"id,omitempty"`
	Name string            `json:"name,omitempty"`
	Args []json.RawMessage `json:"args,omitempty"`

	// KindStyle: partial style fields, decoded by the style package.
	Style json.RawMessage `json:"style,omitempty"`

	// KindDragRegions
	Regions json.RawMessage `json:"regions,omitempty"`

	// KindWindowOp
	Op    string          `json:"op,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// EvalResult is the payload of an EventEvalResult event.
type EvalResult struct {
	ID    string          `json:"id"`
	Value json.RawMessage `json:"value"`
	Error *string         `json:"error"`
}
