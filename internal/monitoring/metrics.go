// Package monitoring exposes Prometheus metrics for bridge traffic and
// style reconciliation.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for a bamboo host process.
type Metrics struct {
	Registry *prometheus.Registry

	// Bridge metrics
	MessagesTotal   *prometheus.CounterVec
	MessagesDropped prometheus.Counter
	PendingCalls    prometheus.Gauge
	CallTimeouts    prometheus.Counter
	RPCCalls        *prometheus.CounterVec
	EventsPublished prometheus.Counter

	// Style metrics
	StyleApplies prometheus.Counter
	PlatformOps  *prometheus.CounterVec

	// Debug server metrics
	DebugConnections prometheus.Gauge
}

// NewMetrics creates a metrics collector backed by its own registry, so
// multiple hosts (and tests) can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bamboo_bridge_messages_total",
				Help: "Bridge messages dispatched, by wire kind",
			},
			[]string{"kind"},
		),
		MessagesDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bamboo_bridge_messages_dropped_total",
				Help: "Malformed bridge messages dropped",
			},
		),
		PendingCalls: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bamboo_bridge_pending_calls",
				Help: "Remote evaluations awaiting a result",
			},
		),
		CallTimeouts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bamboo_bridge_call_timeouts_total",
				Help: "Remote evaluations rejected by timeout",
			},
		),
		RPCCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bamboo_bridge_rpc_calls_total",
				Help: "Script-initiated native function calls, by status",
			},
			[]string{"status"},
		),
		EventsPublished: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bamboo_bridge_events_published_total",
				Help: "Pub/sub events delivered into the script context",
			},
		),
		StyleApplies: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bamboo_style_applies_total",
				Help: "Full style model applications",
			},
		),
		PlatformOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bamboo_platform_ops_total",
				Help: "Platform capability operations invoked, by op",
			},
			[]string{"op"},
		),
		DebugConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bamboo_debug_connections",
				Help: "Active debug event-tap connections",
			},
		),
	}
}

// RecordMessage counts a dispatched bridge message. Nil-safe.
func (m *Metrics) RecordMessage(kind string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(kind).Inc()
}

// RecordDropped counts a dropped malformed message. Nil-safe.
func (m *Metrics) RecordDropped() {
	if m == nil {
		return
	}
	m.MessagesDropped.Inc()
}

// RecordRPC counts a native function call outcome. Nil-safe.
func (m *Metrics) RecordRPC(status string) {
	if m == nil {
		return
	}
	m.RPCCalls.WithLabelValues(status).Inc()
}

// RecordTimeout counts a remote-evaluation timeout. Nil-safe.
func (m *Metrics) RecordTimeout() {
	if m == nil {
		return
	}
	m.CallTimeouts.Inc()
}

// SetPending tracks the pending-call table size. Nil-safe.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingCalls.Set(float64(n))
}

// RecordEvent counts an outbound pub/sub event. Nil-safe.
func (m *Metrics) RecordEvent() {
	if m == nil {
		return
	}
	m.EventsPublished.Inc()
}

// RecordStyleApply counts a full style application. Nil-safe.
func (m *Metrics) RecordStyleApply() {
	if m == nil {
		return
	}
	m.StyleApplies.Inc()
}

// RecordPlatformOp counts one capability-provider invocation. Nil-safe.
func (m *Metrics) RecordPlatformOp(op string) {
	if m == nil {
		return
	}
	m.PlatformOps.WithLabelValues(op).Inc()
}
