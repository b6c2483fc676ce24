package script

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamboo-ui/bamboo/internal/wire"
)

type capture struct {
	messages []*wire.Message
	console  []string
}

func (c *capture) outbound(raw []byte) {
	msg, err := wire.Decode(raw)
	if err != nil {
		panic(err)
	}
	c.messages = append(c.messages, msg)
}

func (c *capture) last() *wire.Message {
	if len(c.messages) == 0 {
		return nil
	}
	return c.messages[len(c.messages)-1]
}

func newTestContext(t *testing.T) (*Context, *capture) {
	t.Helper()
	cap := &capture{}
	ctx, err := NewContext(Options{
		Outbound: cap.outbound,
		OnConsole: func(level, msg string) {
			cap.console = append(cap.console, level+": "+msg)
		},
		Version:  "1.2.3",
		Platform: "linux",
	})
	require.NoError(t, err)
	return ctx, cap
}

func TestSendEmitsEventMessage(t *testing.T) {
	ctx, cap := newTestContext(t)

	require.NoError(t, ctx.Evaluate(`window.bamboo.send("ready", { page: "home" });`))

	msg := cap.last()
	require.NotNil(t, msg)
	assert.Equal(t, wire.KindEvent, msg.Type)
	assert.Equal(t, "ready", msg.Event)
	assert.JSONEq(t, `{"page":"home"}`, string(msg.Data))
}

func TestVersionAndPlatformExposed(t *testing.T) {
	ctx, _ := newTestContext(t)

	v, err := ctx.EvaluateValue(`window.bamboo.version + "/" + window.bamboo.platform`)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3/linux", v.String())
}

func TestDispatchReachesListenersInOrder(t *testing.T) {
	ctx, _ := newTestContext(t)

	require.NoError(t, ctx.Evaluate(`
		window.__seen = [];
		window.bamboo.on("tick", function(p) { window.__seen.push("a:" + p.n); });
		window.bamboo.on("tick", function(p) { window.__seen.push("b:" + p.n); });
	`))
	require.NoError(t, ctx.Evaluate(`window.bamboo._dispatch("tick", { n: 7 });`))

	v, err := ctx.EvaluateValue(`window.__seen.join(",")`)
	require.NoError(t, err)
	assert.Equal(t, "a:7,b:7", v.String())
}

func TestUnsubscribeReturnValue(t *testing.T) {
	ctx, _ := newTestContext(t)

	require.NoError(t, ctx.Evaluate(`
		window.__n = 0;
		var off = window.bamboo.on("tick", function() { window.__n++; });
		window.bamboo._dispatch("tick", null);
		off();
		off();
		window.bamboo._dispatch("tick", null);
	`))

	v, err := ctx.EvaluateValue(`window.__n`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.ToInteger())
	assert.Zero(t, ctx.ListenerCount("tick"))
}

func TestOffRemovesByIdentity(t *testing.T) {
	ctx, _ := newTestContext(t)

	require.NoError(t, ctx.Evaluate(`
		window.__n = 0;
		var h1 = function() { window.__n += 1; };
		var h2 = function() { window.__n += 10; };
		window.bamboo.on("tick", h1);
		window.bamboo.on("tick", h2);
		window.bamboo.off("tick", h1);
		window.bamboo._dispatch("tick", null);
	`))

	v, err := ctx.EvaluateValue(`window.__n`)
	require.NoError(t, err)
	assert.Equal(t, int64(10), v.ToInteger())
	assert.Equal(t, 1, ctx.ListenerCount("tick"))
}

func TestThrowingListenerDoesNotStarveOthers(t *testing.T) {
	ctx, _ := newTestContext(t)

	require.NoError(t, ctx.Evaluate(`
		window.__ran = false;
		window.bamboo.on("tick", function() { throw new Error("boom"); });
		window.bamboo.on("tick", function() { window.__ran = true; });
		window.bamboo._dispatch("tick", null);
	`))

	v, err := ctx.EvaluateValue(`window.__ran`)
	require.NoError(t, err)
	assert.True(t, v.ToBoolean())
}

func TestCallEmitsAndResolves(t *testing.T) {
	ctx, cap := newTestContext(t)

	require.NoError(t, ctx.Evaluate(`
		window.__result = null;
		window.bamboo.call("add", 2, 3).then(function(v) { window.__result = v; });
	`))

	msg := cap.last()
	require.NotNil(t, msg)
	assert.Equal(t, wire.KindCall, msg.Type)
	assert.Equal(t, "add", msg.Name)
	require.Len(t, msg.Args, 2)
	assert.JSONEq(t, `2`, string(msg.Args[0]))
	assert.JSONEq(t, `3`, string(msg.Args[1]))
	require.NotEmpty(t, msg.ID)

	require.NoError(t, ctx.Evaluate(
		fmt.Sprintf(`window.bamboo._resolveCall(%q, 5, null);`, msg.ID)))

	v, err := ctx.EvaluateValue(`window.__result`)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.ToInteger())
}

func TestCallRejection(t *testing.T) {
	ctx, cap := newTestContext(t)

	require.NoError(t, ctx.Evaluate(`
		window.__err = null;
		window.bamboo.call("missing").catch(function(e) { window.__err = e; });
	`))
	msg := cap.last()
	require.NotNil(t, msg)

	require.NoError(t, ctx.Evaluate(
		fmt.Sprintf(`window.bamboo._resolveCall(%q, null, "Unknown: missing");`, msg.ID)))

	v, err := ctx.EvaluateValue(`window.__err`)
	require.NoError(t, err)
	assert.Equal(t, "Unknown: missing", v.String())
}

func TestResolveUnknownCallIsIgnored(t *testing.T) {
	ctx, _ := newTestContext(t)

	assert.NoError(t, ctx.Evaluate(`window.bamboo._resolveCall("nope", 1, null);`))
}

func TestCallTimesOutWithoutReply(t *testing.T) {
	posted := make(chan func(), 1)
	ctx, err := NewContext(Options{
		Outbound:    func([]byte) {},
		Post:        func(fn func()) { posted <- fn },
		CallTimeout: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, ctx.Evaluate(`
		window.__err = null;
		window.bamboo.call("slow").catch(function(e) { window.__err = e; });
	`))

	select {
	case fn := <-posted:
		fn()
	case <-time.After(time.Second):
		t.Fatal("timeout was never posted")
	}
	require.NoError(t, ctx.Evaluate(`0;`))

	v, err := ctx.EvaluateValue(`window.__err`)
	require.NoError(t, err)
	assert.Equal(t, "bamboo.call('slow') timed out", v.String())
	assert.Empty(t, ctx.resolvers)
}

func TestReplyBeforeTimeoutWins(t *testing.T) {
	posted := make(chan func(), 1)
	cap := &capture{}
	ctx, err := NewContext(Options{
		Outbound:    cap.outbound,
		Post:        func(fn func()) { posted <- fn },
		CallTimeout: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, ctx.Evaluate(`
		window.__r = null;
		window.bamboo.call("fast").then(function(v) { window.__r = v; },
			function(e) { window.__r = "rejected: " + e; });
	`))
	require.NoError(t, ctx.Evaluate(
		fmt.Sprintf(`window.bamboo._resolveCall(%q, 11, null);`, cap.last().ID)))

	// A stale expiry finding no pending entry must not reject.
	select {
	case fn := <-posted:
		fn()
	case <-time.After(time.Second):
	}
	require.NoError(t, ctx.Evaluate(`0;`))

	v, err := ctx.EvaluateValue(`window.__r`)
	require.NoError(t, err)
	assert.Equal(t, int64(11), v.ToInteger())
}

func TestSetStyleEmitsPatch(t *testing.T) {
	ctx, cap := newTestContext(t)

	require.NoError(t, ctx.Evaluate(
		`window.bamboo.setStyle({ cornerRadius: 12, transparent: true });`))

	msg := cap.last()
	require.NotNil(t, msg)
	assert.Equal(t, wire.KindStyle, msg.Type)
	assert.NotEmpty(t, msg.ID)
	assert.JSONEq(t, `{"cornerRadius":12,"transparent":true}`, string(msg.Style))
}

func TestSetStyleResolvesOnAck(t *testing.T) {
	ctx, cap := newTestContext(t)

	require.NoError(t, ctx.Evaluate(`
		window.__acked = false;
		window.bamboo.setStyle({ cornerRadius: 3 }).then(function() { window.__acked = true; });
	`))
	msg := cap.last()
	require.NotNil(t, msg)
	require.NotEmpty(t, msg.ID)

	require.NoError(t, ctx.Evaluate(
		fmt.Sprintf(`window.bamboo._resolveCall(%q, null, null);`, msg.ID)))

	v, err := ctx.EvaluateValue(`window.__acked`)
	require.NoError(t, err)
	assert.True(t, v.ToBoolean())
}

func TestSetDragRegionsEmits(t *testing.T) {
	ctx, cap := newTestContext(t)

	require.NoError(t, ctx.Evaluate(`window.bamboo.setDragRegions([]);`))

	msg := cap.last()
	require.NotNil(t, msg)
	assert.Equal(t, wire.KindDragRegions, msg.Type)
	assert.JSONEq(t, `[]`, string(msg.Regions))
}

func TestWindowOps(t *testing.T) {
	ctx, cap := newTestContext(t)

	require.NoError(t, ctx.Evaluate(`
		window.bamboo.minimize();
		window.bamboo.setTitle("hi");
		window.bamboo.setZoom(1.5);
		window.bamboo.openDevTools();
	`))

	require.Len(t, cap.messages, 4)
	assert.Equal(t, wire.OpMinimize, cap.messages[0].Op)
	assert.Equal(t, wire.OpSetTitle, cap.messages[1].Op)
	assert.JSONEq(t, `"hi"`, string(cap.messages[1].Value))
	assert.Equal(t, wire.OpZoom, cap.messages[2].Op)
	assert.JSONEq(t, `1.5`, string(cap.messages[2].Value))
	assert.Equal(t, wire.OpDevTools, cap.messages[3].Op)
}

func TestCaptureScreenshotRoutesThroughCall(t *testing.T) {
	ctx, cap := newTestContext(t)

	require.NoError(t, ctx.Evaluate(`window.bamboo.captureScreenshot();`))

	msg := cap.last()
	require.NotNil(t, msg)
	assert.Equal(t, wire.KindCall, msg.Type)
	assert.Equal(t, "__screenshot", msg.Name)
}

func TestConsoleForwarded(t *testing.T) {
	ctx, cap := newTestContext(t)

	require.NoError(t, ctx.Evaluate(`console.log("hello", 42); console.error("bad");`))

	require.Len(t, cap.console, 2)
	assert.Equal(t, "log: hello 42", cap.console[0])
	assert.Equal(t, "error: bad", cap.console[1])
}

func TestCloseDropsState(t *testing.T) {
	ctx, _ := newTestContext(t)

	require.NoError(t, ctx.Evaluate(`
		window.bamboo.on("tick", function() {});
		window.bamboo.call("pending");
	`))
	require.Equal(t, 1, ctx.ListenerCount("tick"))

	ctx.Close()

	assert.Zero(t, ctx.ListenerCount("tick"))
	assert.Empty(t, ctx.resolvers)
	assert.Error(t, ctx.Evaluate(`1`))
}
