// Package bridge implements the native side of the script bridge: message
// classification, the pending-call table for remote evaluation, and the
// registry of script-callable native functions.
//
// All bridge state belongs to the window's owner loop. Nothing here locks;
// cross-thread callers must post into the loop first.
package bridge

import (
	"encoding/json"
	"time"

	"github.com/bamboo-ui/bamboo/internal/monitoring"
)

// continuation is invoked exactly once with the evaluation outcome.
type continuation func(value json.RawMessage, err error)

type pendingEntry struct {
	done  continuation
	timer *time.Timer
}

// pendingTable tracks remote evaluations awaiting a result. Resolution is
// at-most-once: whichever of result delivery and timeout arrives first
// removes the entry, and the loser finds nothing.
type pendingTable struct {
	entries map[string]*pendingEntry
	metrics *monitoring.Metrics
}

func newPendingTable(metrics *monitoring.Metrics) *pendingTable {
	return &pendingTable{
		entries: make(map[string]*pendingEntry),
		metrics: metrics,
	}
}

func (t *pendingTable) add(id string, done continuation, timer *time.Timer) {
	t.entries[id] = &pendingEntry{done: done, timer: timer}
	t.metrics.SetPending(len(t.entries))
}

// resolve completes the entry for id and reports whether it was still
// pending. A second resolution for the same id is a no-op.
func (t *pendingTable) resolve(id string, value json.RawMessage, err error) bool {
	entry, ok := t.entries[id]
	if !ok {
		return false
	}
	delete(t.entries, id)
	t.metrics.SetPending(len(t.entries))
	if entry.timer != nil {
		entry.timer.Stop()
	}
	entry.done(value, err)
	return true
}

// rejectAll fails every outstanding evaluation with err. Used on teardown.
func (t *pendingTable) rejectAll(err error) {
	for id, entry := range t.entries {
		delete(t.entries, id)
		if entry.timer != nil {
			entry.timer.Stop()
		}
		entry.done(nil, err)
	}
	t.metrics.SetPending(0)
}

func (t *pendingTable) len() int {
	return len(t.entries)
}
