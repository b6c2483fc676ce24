package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/bamboo-ui/bamboo/internal/bus"
	"github.com/bamboo-ui/bamboo/internal/logging"
	"github.com/bamboo-ui/bamboo/internal/monitoring"
	"github.com/bamboo-ui/bamboo/internal/shared/id"
	"github.com/bamboo-ui/bamboo/internal/style"
	"github.com/bamboo-ui/bamboo/internal/wire"
)

// DefaultEvalTimeout bounds how long a remote evaluation may stay pending
// before it is rejected.
const DefaultEvalTimeout = 30 * time.Second

var (
	// ErrClosed rejects operations on a torn-down channel, including any
	// evaluations still pending at close time.
	ErrClosed = errors.New("bridge channel closed")
	// ErrEvalTimeout rejects a remote evaluation whose result did not
	// arrive within the configured window.
	ErrEvalTimeout = errors.New("remote evaluation timed out")
)

// RemoteError carries a script-side exception message back to the native
// initiator of a remote evaluation.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// ScriptPort injects script source into the page context. The bridge talks
// to the script side exclusively through composed invocations of the
// injected API object; Evaluate is the only primitive it needs.
type ScriptPort interface {
	Evaluate(script string) error
}

// Sink receives the native-effect message kinds the channel itself does not
// terminate: style patches, drag regions, and window commands.
type Sink interface {
	HandleStyleRequest(patch style.Patch)
	HandleDragRegions(regions []style.DragRegion)
	HandleWindowOp(op string, value json.RawMessage)
}

// Options configures a Channel.
type Options struct {
	Port        ScriptPort
	Bus         *bus.Bus
	Registry    *Registry
	Sink        Sink
	// Post schedules fn onto the owner loop. Timer expirations go through
	// it so the pending table is never touched off-loop.
	Post        func(fn func())
	EvalTimeout time.Duration
	Log         *logging.Logger
	Metrics     *monitoring.Metrics
}

// Channel is the native endpoint of one window's bridge. It classifies
// inbound wire messages, dispatches native function calls, publishes events
// in both directions, and correlates remote evaluations with their results.
type Channel struct {
	port        ScriptPort
	bus         *bus.Bus
	registry    *Registry
	sink        Sink
	post        func(fn func())
	pending     *pendingTable
	evalTimeout time.Duration
	log         *logging.Logger
	metrics     *monitoring.Metrics
	closed      bool
}

// NewChannel wires a channel from its collaborators. Bus, Registry, Sink
// and Post are required; Log and Metrics may be nil.
func NewChannel(opts Options) *Channel {
	log := opts.Log
	if log == nil {
		log = logging.NewNop()
	}
	timeout := opts.EvalTimeout
	if timeout <= 0 {
		timeout = DefaultEvalTimeout
	}
	return &Channel{
		port:        opts.Port,
		bus:         opts.Bus,
		registry:    opts.Registry,
		sink:        opts.Sink,
		post:        opts.Post,
		pending:     newPendingTable(opts.Metrics),
		evalTimeout: timeout,
		log:         log,
		metrics:     opts.Metrics,
	}
}

// Dispatch classifies and routes one raw inbound message. Malformed
// messages are counted and dropped; they never abort the channel.
func (c *Channel) Dispatch(raw []byte) {
	if c.closed {
		return
	}
	msg, err := wire.Decode(raw)
	if err != nil {
		c.metrics.RecordDropped()
		c.log.Warn("dropping malformed bridge message", zap.Error(err))
		return
	}
	c.metrics.RecordMessage(string(msg.Type))

	switch msg.Type {
	case wire.KindEvent:
		// Reserved routing keys are terminated here, before the generic
		// event path can see them.
		if msg.Event == wire.EventEvalResult {
			c.handleEvalResult(msg.Data)
			return
		}
		c.bus.Publish(msg.Event, msg.Data)

	case wire.KindCall:
		c.handleCall(msg)

	case wire.KindStyle:
		patch, err := style.DecodePatch(msg.Style)
		if err != nil {
			c.metrics.RecordDropped()
			c.log.Warn("dropping undecodable style patch", zap.Error(err))
			c.ackRequest(msg.ID, "invalid style patch")
			return
		}
		c.sink.HandleStyleRequest(patch)
		c.ackRequest(msg.ID, "")

	case wire.KindDragRegions:
		var regions []style.DragRegion
		if err := sonic.Unmarshal(msg.Regions, &regions); err != nil {
			c.metrics.RecordDropped()
			c.log.Warn("dropping undecodable drag regions", zap.Error(err))
			c.ackRequest(msg.ID, "invalid drag regions")
			return
		}
		c.sink.HandleDragRegions(regions)
		c.ackRequest(msg.ID, "")

	case wire.KindWindowOp:
		// The screenshot op is a disguised call: it carries an id and
		// expects a resolution, so it goes through the registry.
		if msg.Op == wire.OpScreenshot {
			c.handleCall(&wire.Message{Type: wire.KindCall, ID: msg.ID, Name: wire.CallScreenshot})
			return
		}
		c.sink.HandleWindowOp(msg.Op, msg.Value)
	}
}

// ackRequest settles the script-side promise of an id-bearing request.
// Requests sent without an id expect no acknowledgment.
func (c *Channel) ackRequest(requestID, errText string) {
	if requestID == "" {
		return
	}
	c.replyCall(requestID, nil, errText)
}

// SendEvent publishes an event into the script context. The payload is
// serialized once and delivered to every script-side subscriber of name.
func (c *Channel) SendEvent(name string, payload any) error {
	if c.closed {
		return ErrClosed
	}
	data, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	nameLit, err := sonic.Marshal(name)
	if err != nil {
		return fmt.Errorf("encode event name: %w", err)
	}
	script := fmt.Sprintf("window.bamboo._dispatch(%s, %s);", nameLit, data)
	if err := c.port.Evaluate(script); err != nil {
		return fmt.Errorf("deliver event %q: %w", name, err)
	}
	c.metrics.RecordEvent()
	return nil
}

// EvalRemote evaluates script in the page context and delivers the result
// asynchronously. done is invoked exactly once on the owner loop: with the
// JSON value on success, with a *RemoteError if the script threw, with
// ErrEvalTimeout if no result arrived in time, or with ErrClosed if the
// channel is torn down first.
func (c *Channel) EvalRemote(script string, done func(value json.RawMessage, err error)) {
	if c.closed {
		done(nil, ErrClosed)
		return
	}

	evalID := string(id.NewEvalID())
	wrapper, err := buildEvalWrapper(evalID, script)
	if err != nil {
		done(nil, err)
		return
	}

	timer := time.AfterFunc(c.evalTimeout, func() {
		c.post(func() { c.expire(evalID) })
	})
	c.pending.add(evalID, done, timer)

	if err := c.port.Evaluate(wrapper); err != nil {
		// Injection failed outright; the result event will never come.
		c.pending.resolve(evalID, nil, fmt.Errorf("inject evaluation: %w", err))
	}
}

// Pending returns the number of evaluations awaiting a result.
func (c *Channel) Pending() int {
	return c.pending.len()
}

// Closed reports whether Close has run.
func (c *Channel) Closed() bool {
	return c.closed
}

// Close rejects every outstanding evaluation with ErrClosed and stops the
// channel from accepting further traffic. Idempotent.
func (c *Channel) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.pending.rejectAll(ErrClosed)
}

func (c *Channel) handleEvalResult(data json.RawMessage) {
	var result wire.EvalResult
	if err := sonic.Unmarshal(data, &result); err != nil || result.ID == "" {
		c.metrics.RecordDropped()
		c.log.Warn("dropping undecodable eval result", zap.Error(err))
		return
	}

	var evalErr error
	if result.Error != nil {
		evalErr = &RemoteError{Message: *result.Error}
	}
	if !c.pending.resolve(result.ID, result.Value, evalErr) {
		// Late result after timeout or teardown; the continuation already
		// ran, so this is discarded.
		c.log.Debug("eval result for unknown id", zap.String("id", result.ID))
	}
}

func (c *Channel) expire(evalID string) {
	if c.pending.resolve(evalID, nil, ErrEvalTimeout) {
		c.metrics.RecordTimeout()
		c.log.Warn("remote evaluation timed out",
			zap.String("id", evalID),
			zap.Duration("timeout", c.evalTimeout))
	}
}

func (c *Channel) handleCall(msg *wire.Message) {
	result, err := c.registry.Invoke(msg.Name, msg.Args)
	if err != nil {
		c.metrics.RecordRPC("error")
		c.replyCall(msg.ID, nil, err.Error())
		return
	}
	c.metrics.RecordRPC("ok")

	data, err := sonic.Marshal(result)
	if err != nil {
		c.metrics.RecordRPC("error")
		c.replyCall(msg.ID, nil, fmt.Sprintf("unserializable result: %v", err))
		return
	}
	c.replyCall(msg.ID, data, "")
}

// replyCall settles the script-side promise for one call id. An empty
// errText resolves it; anything else rejects it with that message.
func (c *Channel) replyCall(callID string, result json.RawMessage, errText string) {
	idLit, err := sonic.Marshal(callID)
	if err != nil {
		c.log.Warn("unencodable call id", zap.Error(err))
		return
	}
	resultLit := json.RawMessage("null")
	if len(result) > 0 {
		resultLit = result
	}
	errLit := json.RawMessage("null")
	if errText != "" {
		lit, err := sonic.Marshal(errText)
		if err == nil {
			errLit = lit
		}
	}
	script := fmt.Sprintf("window.bamboo._resolveCall(%s, %s, %s);", idLit, resultLit, errLit)
	if err := c.port.Evaluate(script); err != nil {
		c.log.Warn("failed to deliver call reply",
			zap.String("call_id", callID), zap.Error(err))
	}
}

// buildEvalWrapper wraps arbitrary script source so that its value or
// thrown exception comes back as a reserved result event carrying evalID.
func buildEvalWrapper(evalID, script string) (string, error) {
	srcLit, err := sonic.Marshal(script)
	if err != nil {
		return "", fmt.Errorf("encode evaluation source: %w", err)
	}
	idLit, err := sonic.Marshal(evalID)
	if err != nil {
		return "", fmt.Errorf("encode evaluation id: %w", err)
	}
	return fmt.Sprintf(`(function() {
	var value = null, error = null;
	try { value = eval(%s); } catch (e) { error = String(e); }
	window.bamboo.send("__evalResult", { id: %s, value: value, error: error });
})();`, srcLit, idLit), nil
}
