// Package script hosts the page-side JavaScript context and installs the
// window.bamboo API surface into it.
//
// The context talks to the native side only through serialized wire
// messages handed to the Outbound callback, mirroring how the API behaves
// when script and native live in different processes. Outbound must defer
// its work (post it to the owner loop) rather than re-enter Evaluate, since
// the VM is busy while an API call is executing.
package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dop251/goja"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bamboo-ui/bamboo/internal/bus"
	"github.com/bamboo-ui/bamboo/internal/logging"
	"github.com/bamboo-ui/bamboo/internal/wire"
)

// ConsoleFunc receives console output captured from the page context.
type ConsoleFunc func(level, message string)

// defaultCallTimeout bounds script-initiated requests awaiting a native
// reply.
const defaultCallTimeout = 30 * time.Second

// Options configures a script context.
type Options struct {
	// Outbound receives serialized wire messages produced by API calls.
	// Required.
	Outbound func(raw []byte)
	// OnConsole is invoked for every console.log/info/warn/error call.
	OnConsole ConsoleFunc
	// Post defers work onto the owner loop; request timeouts are
	// delivered through it. Nil disables the script-side timeout, which
	// is only safe when every request is answered synchronously.
	Post func(fn func())
	// CallTimeout bounds requests awaiting a native reply when Post is
	// set; zero means the default.
	CallTimeout time.Duration
	// Version and Platform are exposed as window.bamboo.version and
	// window.bamboo.platform.
	Version  string
	Platform string
	Log      *logging.Logger
}

type listener struct {
	fn    goja.Value
	unsub bus.Unsubscribe
}

// Context is one page's JavaScript context with window.bamboo installed.
type Context struct {
	vm          *goja.Runtime
	bus         *bus.Bus
	outbound    func(raw []byte)
	onConsole   ConsoleFunc
	post        func(fn func())
	callTimeout time.Duration
	log         *logging.Logger

	// In-flight script-initiated requests, keyed by request id.
	resolvers map[string]promiseSettler
	// Listeners per event, in registration order, for identity removal.
	listeners map[string][]*listener

	closed bool
}

type promiseSettler struct {
	resolve func(any) error
	reject  func(any) error
	timer   *time.Timer
}

// NewContext creates a VM and installs the API globals.
func NewContext(opts Options) (*Context, error) {
	if opts.Outbound == nil {
		return nil, errors.New("script: Outbound is required")
	}
	log := opts.Log
	if log == nil {
		log = logging.NewNop()
	}

	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	c := &Context{
		vm:          goja.New(),
		bus:         bus.New(log),
		outbound:    opts.Outbound,
		onConsole:   opts.OnConsole,
		post:        opts.Post,
		callTimeout: timeout,
		log:         log,
		resolvers:   make(map[string]promiseSettler),
		listeners:   make(map[string][]*listener),
	}
	if err := c.install(opts.Version, opts.Platform); err != nil {
		return nil, err
	}
	return c, nil
}

// Evaluate runs script source in the context. Implements the bridge's
// script port.
func (c *Context) Evaluate(script string) error {
	if c.closed {
		return errors.New("script context closed")
	}
	if _, err := c.vm.RunString(script); err != nil {
		return fmt.Errorf("script evaluation: %w", err)
	}
	return nil
}

// EvaluateValue runs script source and returns the completion value.
func (c *Context) EvaluateValue(script string) (goja.Value, error) {
	if c.closed {
		return nil, errors.New("script context closed")
	}
	return c.vm.RunString(script)
}

// ListenerCount returns the live listener count for event.
func (c *Context) ListenerCount(event string) int {
	return c.bus.SubscriberCount(event)
}

// Close drops all listeners and rejects in-flight calls. The VM itself is
// abandoned to the collector.
func (c *Context) Close() {
	if c.closed {
		return
	}
	c.closed = true
	for id, settler := range c.resolvers {
		delete(c.resolvers, id)
		if settler.timer != nil {
			settler.timer.Stop()
		}
		settler.reject("context closed")
	}
	c.bus.Clear()
	c.listeners = make(map[string][]*listener)
}

func (c *Context) install(version, platform string) error {
	c.installConsole()

	api := c.vm.NewObject()
	api.Set("version", version)
	api.Set("platform", platform)

	api.Set("send", c.jsSend)
	api.Set("on", c.jsOn)
	api.Set("off", c.jsOff)
	api.Set("call", c.jsCall)
	api.Set("setStyle", c.jsSetStyle)
	api.Set("setDragRegions", c.jsSetDragRegions)
	api.Set("captureScreenshot", func(call goja.FunctionCall) goja.Value {
		return c.startCall(wire.CallScreenshot, nil)
	})

	// Window command verbs map one-to-one onto windowOp messages.
	api.Set("minimize", c.windowOpFunc(wire.OpMinimize, false))
	api.Set("maximize", c.windowOpFunc(wire.OpMaximize, false))
	api.Set("restore", c.windowOpFunc(wire.OpRestore, false))
	api.Set("close", c.windowOpFunc(wire.OpClose, false))
	api.Set("setTitle", c.windowOpFunc(wire.OpSetTitle, true))
	api.Set("setAlwaysOnTop", c.windowOpFunc(wire.OpAlwaysOnTop, true))
	api.Set("setFullscreen", c.windowOpFunc(wire.OpFullscreen, true))
	api.Set("setZoom", c.windowOpFunc(wire.OpZoom, true))
	// openDevTools takes the docked flag; omitting it opens undocked.
	api.Set("openDevTools", c.windowOpFunc(wire.OpDevTools, true))
	api.Set("closeDevTools", c.windowOpFunc(wire.OpCloseDevTools, false))
	api.Set("print", c.windowOpFunc(wire.OpPrint, false))

	// Internal entry points the native side composes scripts against.
	api.Set("_dispatch", c.jsInternalDispatch)
	api.Set("_resolveCall", c.jsResolveCall)

	window := c.vm.NewObject()
	window.Set("bamboo", api)
	if err := c.vm.Set("window", window); err != nil {
		return fmt.Errorf("install window object: %w", err)
	}
	return c.vm.Set("bamboo", api)
}

func (c *Context) installConsole() {
	console := c.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		console.Set(level, c.makeConsoleFunc(level))
	}
	c.vm.Set("console", console)
}

func (c *Context) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var msg string
		for i, arg := range call.Arguments {
			if i > 0 {
				msg += " "
			}
			msg += arg.String()
		}
		if c.onConsole != nil {
			c.onConsole(level, msg)
		}
		return goja.Undefined()
	}
}

// jsSend implements bamboo.send(event, payload).
func (c *Context) jsSend(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) == 0 || goja.IsUndefined(call.Arguments[0]) {
		panic(c.vm.NewTypeError("send requires an event name"))
	}
	event := call.Argument(0).String()
	data, err := c.exportJSON(call.Argument(1))
	if err != nil {
		panic(c.vm.NewTypeError("send payload is not serializable: %v", err))
	}
	c.emit(&wire.Message{Type: wire.KindEvent, Event: event, Data: data})
	return goja.Undefined()
}

// jsOn implements bamboo.on(event, handler) and returns an unsubscribe
// function.
func (c *Context) jsOn(call goja.FunctionCall) goja.Value {
	event := call.Argument(0).String()
	fn := call.Argument(1)
	callable, ok := goja.AssertFunction(fn)
	if !ok {
		panic(c.vm.NewTypeError("on requires a function handler"))
	}

	unsub := c.bus.Subscribe(event, func(payload []byte) {
		var parsed any
		if len(payload) > 0 {
			if err := sonic.Unmarshal(payload, &parsed); err != nil {
				c.log.Warn("undecodable event payload",
					zap.String("event", event), zap.Error(err))
				return
			}
		}
		if _, err := callable(goja.Undefined(), c.vm.ToValue(parsed)); err != nil {
			// A throwing handler must not starve the handlers after it.
			c.log.Warn("event listener threw",
				zap.String("event", event), zap.Error(err))
		}
	})

	entry := &listener{fn: fn, unsub: unsub}
	c.listeners[event] = append(c.listeners[event], entry)

	return c.vm.ToValue(func(goja.FunctionCall) goja.Value {
		c.removeListener(event, entry)
		return goja.Undefined()
	})
}

// jsOff implements bamboo.off(event, handler) with identity-based removal
// of the first matching registration.
func (c *Context) jsOff(call goja.FunctionCall) goja.Value {
	event := call.Argument(0).String()
	fn := call.Argument(1)
	for _, entry := range c.listeners[event] {
		if entry.fn.StrictEquals(fn) {
			c.removeListener(event, entry)
			break
		}
	}
	return goja.Undefined()
}

func (c *Context) removeListener(event string, target *listener) {
	list := c.listeners[event]
	for i, entry := range list {
		if entry == target {
			entry.unsub()
			c.listeners[event] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(c.listeners[event]) == 0 {
		delete(c.listeners, event)
	}
}

// jsCall implements bamboo.call(name, ...args), returning a promise that
// settles when the native side replies through _resolveCall.
func (c *Context) jsCall(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) == 0 || goja.IsUndefined(call.Arguments[0]) {
		panic(c.vm.NewTypeError("call requires a function name"))
	}
	return c.startCall(call.Arguments[0].String(), call.Arguments[1:])
}

func (c *Context) startCall(name string, args []goja.Value) goja.Value {
	promise, resolve, reject := c.vm.NewPromise()

	rawArgs := make([]json.RawMessage, 0, len(args))
	for i, arg := range args {
		data, err := c.exportJSON(arg)
		if err != nil {
			reject(fmt.Sprintf("argument %d is not serializable: %v", i, err))
			return c.vm.ToValue(promise)
		}
		if len(data) == 0 {
			data = []byte("null")
		}
		rawArgs = append(rawArgs, json.RawMessage(data))
	}

	callID := uuid.NewString()
	c.track(callID, fmt.Sprintf("bamboo.call('%s')", name), resolve, reject)
	c.emit(&wire.Message{
		Type: wire.KindCall,
		ID:   callID,
		Name: name,
		Args: rawArgs,
	})
	return c.vm.ToValue(promise)
}

// track registers a pending request's settler and, when a poster is
// available, arms its timeout. desc names the request in the timeout
// rejection.
func (c *Context) track(requestID, desc string, resolve, reject func(any) error) {
	settler := promiseSettler{resolve: resolve, reject: reject}
	if c.post != nil {
		settler.timer = time.AfterFunc(c.callTimeout, func() {
			c.post(func() { c.expire(requestID, desc) })
		})
	}
	c.resolvers[requestID] = settler
}

// expire rejects a request whose reply never arrived. A request already
// settled by the time the posted expiry runs is left alone.
func (c *Context) expire(requestID, desc string) {
	settler, ok := c.resolvers[requestID]
	if !ok {
		return
	}
	delete(c.resolvers, requestID)
	c.log.Warn("bridge request timed out", zap.String("request", desc))
	settler.reject(desc + " timed out")
}

// jsResolveCall implements bamboo._resolveCall(id, result, error), settling
// the promise created by call. Unknown ids are ignored.
func (c *Context) jsResolveCall(call goja.FunctionCall) goja.Value {
	callID := call.Argument(0).String()
	settler, ok := c.resolvers[callID]
	if !ok {
		c.log.Debug("call reply for unknown id", zap.String("id", callID))
		return goja.Undefined()
	}
	delete(c.resolvers, callID)
	if settler.timer != nil {
		settler.timer.Stop()
	}

	errArg := call.Argument(2)
	if !goja.IsUndefined(errArg) && !goja.IsNull(errArg) {
		settler.reject(errArg)
		return goja.Undefined()
	}
	settler.resolve(call.Argument(1))
	return goja.Undefined()
}

// jsSetStyle implements bamboo.setStyle(patch), returning a promise that
// resolves when the native side acknowledges the mutation.
func (c *Context) jsSetStyle(call goja.FunctionCall) goja.Value {
	data, err := c.exportJSON(call.Argument(0))
	if err != nil || len(data) == 0 {
		panic(c.vm.NewTypeError("setStyle requires a style object"))
	}
	return c.emitAcked("bamboo.setStyle", &wire.Message{Type: wire.KindStyle, Style: data})
}

// jsSetDragRegions implements bamboo.setDragRegions(regions), with the same
// acknowledgment contract as setStyle.
func (c *Context) jsSetDragRegions(call goja.FunctionCall) goja.Value {
	data, err := c.exportJSON(call.Argument(0))
	if err != nil || len(data) == 0 {
		panic(c.vm.NewTypeError("setDragRegions requires a region list"))
	}
	return c.emitAcked("bamboo.setDragRegions", &wire.Message{Type: wire.KindDragRegions, Regions: data})
}

// emitAcked sends a request message carrying a fresh id and returns a
// promise the native side settles through _resolveCall.
func (c *Context) emitAcked(desc string, msg *wire.Message) goja.Value {
	promise, resolve, reject := c.vm.NewPromise()
	msg.ID = uuid.NewString()
	c.track(msg.ID, desc, resolve, reject)
	c.emit(msg)
	return c.vm.ToValue(promise)
}

// jsInternalDispatch implements bamboo._dispatch(event, payload): the entry
// point the native side evaluates to publish an event to page listeners.
func (c *Context) jsInternalDispatch(call goja.FunctionCall) goja.Value {
	event := call.Argument(0).String()
	data, err := c.exportJSON(call.Argument(1))
	if err != nil {
		c.log.Warn("undeliverable inbound event",
			zap.String("event", event), zap.Error(err))
		return goja.Undefined()
	}
	c.bus.Publish(event, data)
	return goja.Undefined()
}

func (c *Context) windowOpFunc(op string, hasValue bool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		msg := &wire.Message{Type: wire.KindWindowOp, Op: op}
		if hasValue {
			data, err := c.exportJSON(call.Argument(0))
			if err != nil {
				panic(c.vm.NewTypeError("%s value is not serializable: %v", op, err))
			}
			msg.Value = data
		}
		c.emit(msg)
		return goja.Undefined()
	}
}

func (c *Context) emit(msg *wire.Message) {
	raw, err := wire.Encode(msg)
	if err != nil {
		c.log.Warn("failed to encode outbound message",
			zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}
	c.outbound(raw)
}

// exportJSON serializes a goja value to JSON. Undefined exports as empty.
func (c *Context) exportJSON(v goja.Value) ([]byte, error) {
	if v == nil || goja.IsUndefined(v) {
		return nil, nil
	}
	return sonic.Marshal(v.Export())
}
