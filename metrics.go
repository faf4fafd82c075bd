//go:build !ios && !android && (amd64 || arm64)

package sckit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/obinnaokechukwu/sckit/bridge"
)

// Metrics exports bridge activity to Prometheus. It implements bridge.Hooks.
type Metrics struct {
	CompletionsResolved *prometheus.CounterVec
	CompletionsDropped  *prometheus.CounterVec
	FramesDelivered     *prometheus.CounterVec
	FramesUnhandled     *prometheus.CounterVec
	FramesQueueDropped  *prometheus.CounterVec
	StaleDeliveries     prometheus.Counter
	HandlerPanics       *prometheus.CounterVec
}

var _ bridge.Hooks = (*Metrics)(nil)

// NewMetrics registers the session metrics on reg. Every series carries a
// session label so several sessions can share a registry.
func NewMetrics(reg prometheus.Registerer, session string) *Metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"session": session}

	m := &Metrics{
		CompletionsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sckit",
			Subsystem:   "completion",
			Name:        "resolved_total",
			Help:        "Asynchronous operations resolved, by operation",
			ConstLabels: labels,
		}, []string{"op"}),
		CompletionsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sckit",
			Subsystem:   "completion",
			Name:        "dropped_total",
			Help:        "Duplicate or late completions discarded, by operation",
			ConstLabels: labels,
		}, []string{"op"}),
		FramesDelivered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sckit",
			Subsystem:   "frames",
			Name:        "delivered_total",
			Help:        "Sample buffers handed to a registered handler",
			ConstLabels: labels,
		}, []string{"output"}),
		FramesUnhandled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sckit",
			Subsystem:   "frames",
			Name:        "unhandled_total",
			Help:        "Sample buffers released because no handler was registered",
			ConstLabels: labels,
		}, []string{"output"}),
		FramesQueueDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sckit",
			Subsystem:   "frames",
			Name:        "queue_dropped_total",
			Help:        "Frames evicted from a full frame queue",
			ConstLabels: labels,
		}, []string{"output"}),
		StaleDeliveries: f.NewCounter(prometheus.CounterOpts{
			Namespace:   "sckit",
			Subsystem:   "picker",
			Name:        "stale_deliveries_total",
			Help:        "Picker outcomes delivered to a replaced observer",
			ConstLabels: labels,
		}),
		HandlerPanics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sckit",
			Name:        "handler_panics_total",
			Help:        "Recovered panics in user handlers, by category",
			ConstLabels: labels,
		}, []string{"category"}),
	}

	for _, k := range bridge.Kinds() {
		k := k
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "sckit",
			Subsystem:   "refs",
			Name:        "live",
			Help:        "Owned native references not yet released, by kind",
			ConstLabels: prometheus.Labels{"session": session, "kind": k.String()},
		}, func() float64 { return float64(bridge.LiveRefs(k)) })
	}
	return m
}

// CompletionResolved implements bridge.Hooks.
func (m *Metrics) CompletionResolved(op string) {
	m.CompletionsResolved.WithLabelValues(op).Inc()
}

// CompletionDropped implements bridge.Hooks.
func (m *Metrics) CompletionDropped(op string) {
	m.CompletionsDropped.WithLabelValues(op).Inc()
}

// FrameDelivered implements bridge.Hooks.
func (m *Metrics) FrameDelivered(t bridge.OutputType) {
	m.FramesDelivered.WithLabelValues(t.String()).Inc()
}

// FrameUnhandled implements bridge.Hooks.
func (m *Metrics) FrameUnhandled(t bridge.OutputType) {
	m.FramesUnhandled.WithLabelValues(t.String()).Inc()
}

// ObserverStale implements bridge.Hooks.
func (m *Metrics) ObserverStale() {
	m.StaleDeliveries.Inc()
}

// HandlerPanicked implements bridge.Hooks.
func (m *Metrics) HandlerPanicked(c bridge.Category) {
	m.HandlerPanics.WithLabelValues(c.String()).Inc()
}

// queueDropped counts a frame evicted from a FrameQueue.
func (m *Metrics) queueDropped(t bridge.OutputType) {
	if m != nil {
		m.FramesQueueDropped.WithLabelValues(t.String()).Inc()
	}
}
