package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Queue message outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeMalformed = "malformed"
	OutcomeAckFailed = "ack_failed"
)

// Drop reasons for inbound events that never reach a mapper.
const (
	DropRuleNotFound     = "rule_not_found"
	DropUsageNotFound    = "usage_not_found"
	DropSignatureMissing = "signature_not_found"
	DropQuotaExceeded    = "quota_exceeded"
	DropLookupFailed     = "lookup_failed"
)

// DeliveryMetrics records dispatch outcomes and inbound queue throughput.
type DeliveryMetrics struct {
	deliveries *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	dropped    *prometheus.CounterVec
	messages   *prometheus.CounterVec
}

// NewDeliveryMetrics registers the delivery metrics on the provided registerer.
func NewDeliveryMetrics(reg prometheus.Registerer) *DeliveryMetrics {
	if reg == nil {
		return &DeliveryMetrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hookrelay_delivery_total",
		Help: "Dispatch attempts by route and terminal status.",
	}, []string{"route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hookrelay_delivery_duration_seconds",
		Help:    "Wall-clock duration of a dispatch attempt in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hookrelay_delivery_dropped_total",
		Help: "Inbound events dropped before dispatch.",
	}, []string{"reason"})
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hookrelay_queue_messages_total",
		Help: "Inbound queue messages by handling outcome.",
	}, []string{"outcome"})
	reg.MustRegister(deliveries, duration, dropped, messages)
	return &DeliveryMetrics{
		deliveries: deliveries,
		duration:   duration,
		dropped:    dropped,
		messages:   messages,
	}
}

// ObserveDelivery records one attempt for the route.
func (m *DeliveryMetrics) ObserveDelivery(route, status string, duration time.Duration) {
	if m == nil || m.deliveries == nil {
		return
	}
	route = normalizeLabel(route)
	m.deliveries.WithLabelValues(route, normalizeLabel(status)).Inc()
	m.duration.WithLabelValues(route).Observe(duration.Seconds())
}

// IncDropped counts an event discarded before dispatch.
func (m *DeliveryMetrics) IncDropped(reason string) {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncMessage counts a consumed queue message.
func (m *DeliveryMetrics) IncMessage(outcome string) {
	if m == nil || m.messages == nil {
		return
	}
	m.messages.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
