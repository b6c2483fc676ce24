package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishOrder(t *testing.T) {
	b := New(nil)
	var order []string

	b.Subscribe("x", func([]byte) { order = append(order, "h1") })
	b.Subscribe("x", func([]byte) { order = append(order, "h2") })
	b.Subscribe("x", func([]byte) { order = append(order, "h3") })

	b.Publish("x", nil)

	assert.Equal(t, []string{"h1", "h2", "h3"}, order)
}

func TestPanicDoesNotStopDelivery(t *testing.T) {
	b := New(nil)
	var order []string

	b.Subscribe("x", func([]byte) { order = append(order, "h1") })
	b.Subscribe("x", func([]byte) { panic("h2 exploded") })
	b.Subscribe("x", func([]byte) { order = append(order, "h3") })

	b.Publish("x", nil)

	assert.Equal(t, []string{"h1", "h3"}, order)
}

func TestUnsubscribe(t *testing.T) {
	b := New(nil)
	var calls int

	cancel := b.Subscribe("x", func([]byte) { calls++ })
	b.Publish("x", nil)
	cancel()
	b.Publish("x", nil)
	cancel() // second call is a no-op

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.SubscriberCount("x"))
}

func TestUnsubscribeRemovesOnlyItsOwn(t *testing.T) {
	b := New(nil)
	var got []string
	handler := func(tag string) Handler {
		return func([]byte) { got = append(got, tag) }
	}

	cancelA := b.Subscribe("x", handler("a"))
	b.Subscribe("x", handler("b"))
	cancelA()

	b.Publish("x", nil)
	assert.Equal(t, []string{"b"}, got)
}

func TestResubscribeAfterUnsubscribe(t *testing.T) {
	b := New(nil)
	var calls int
	h := func([]byte) { calls++ }

	cancel := b.Subscribe("x", h)
	cancel()
	b.Subscribe("x", h)

	b.Publish("x", nil)
	assert.Equal(t, 1, calls)
}

func TestPublishPayload(t *testing.T) {
	b := New(nil)
	var got string
	b.Subscribe("x", func(p []byte) { got = string(p) })
	b.Publish("x", []byte(`{"n":1}`))
	assert.JSONEq(t, `{"n":1}`, got)
}

func TestSubscribeDuringDispatchDeferred(t *testing.T) {
	b := New(nil)
	var calls int
	b.Subscribe("x", func([]byte) {
		b.Subscribe("x", func([]byte) { calls += 10 })
		calls++
	})

	b.Publish("x", nil)
	// The handler added mid-dispatch only runs on the next publish.
	assert.Equal(t, 1, calls)

	b.Publish("x", nil)
	assert.Equal(t, 12, calls)
}

func TestClear(t *testing.T) {
	b := New(nil)
	var calls int
	b.Subscribe("x", func([]byte) { calls++ })
	b.Clear()
	b.Publish("x", nil)
	assert.Zero(t, calls)
}
