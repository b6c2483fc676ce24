// Package bus implements the script-side pub/sub event bus: ordered
// subscriber lists keyed by event name, with identity-based removal.
//
// The bus is owned by the script context and, like the rest of the bridge
// state, is only touched from the owner loop; it carries no lock.
package bus

import (
	"github.com/bamboo-ui/bamboo/internal/logging"
	"go.uber.org/zap"
)

// Handler receives the JSON payload published for an event.
type Handler func(payload []byte)

// Unsubscribe removes the subscription it was returned for. Calling it more
// than once is a no-op.
type Unsubscribe func()

type subscription struct {
	id      uint64
	handler Handler
}

// Bus maps event names to ordered subscriber lists.
type Bus struct {
	log    *logging.Logger
	subs   map[string][]subscription
	nextID uint64
}

// New creates an empty event bus.
func New(log *logging.Logger) *Bus {
	if log == nil {
		log = logging.NewNop()
	}
	return &Bus{
		log:  log,
		subs: make(map[string][]subscription),
	}
}

// Subscribe appends handler to the event's dispatch list and returns a
// removal function keyed to this subscription's identity.
func (b *Bus) Subscribe(event string, handler Handler) Unsubscribe {
	b.nextID++
	sub := subscription{id: b.nextID, handler: handler}
	b.subs[event] = append(b.subs[event], sub)

	removed := false
	return func() {
		if removed {
			return
		}
		removed = true
		b.remove(event, sub.id)
	}
}

// Publish invokes all current subscribers for event, in subscription order.
// A panicking handler is logged and does not interrupt delivery to the
// handlers after it.
func (b *Bus) Publish(event string, payload []byte) {
	// Copy: a handler may subscribe or unsubscribe during dispatch.
	current := make([]subscription, len(b.subs[event]))
	copy(current, b.subs[event])

	for _, sub := range current {
		b.invoke(event, sub.handler, payload)
	}
}

// SubscriberCount returns the number of live subscriptions for event.
func (b *Bus) SubscriberCount(event string) int {
	return len(b.subs[event])
}

// Clear discards all subscriptions without notification. Used on teardown.
func (b *Bus) Clear() {
	b.subs = make(map[string][]subscription)
}

func (b *Bus) invoke(event string, handler Handler, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn("event handler panicked",
				zap.String("event", event),
				zap.Any("panic", r),
			)
		}
	}()
	handler(payload)
}

func (b *Bus) remove(event string, subID uint64) {
	list := b.subs[event]
	for i, sub := range list {
		if sub.id == subID {
			b.subs[event] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[event]) == 0 {
		delete(b.subs, event)
	}
}
