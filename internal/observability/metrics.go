// Package observability provides Prometheus metrics for the assistant.
// All metrics register with the default registry and are exposed on /metrics
// by the ingestion server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide counters. A nil *Metrics is valid and
// records nothing, which keeps tests free of duplicate-registration panics.
type Metrics struct {
	// UpdatesReceived counts webhook updates by extracted kind
	// (direct|edited|channel_post|edited_channel_post|unsupported).
	UpdatesReceived *prometheus.CounterVec

	// RepliesSent counts outbound sends by status (ok|error).
	RepliesSent *prometheus.CounterVec

	// ToolExecutions counts tool dispatches by tool name.
	ToolExecutions *prometheus.CounterVec

	// ModelCalls counts model-gateway calls by endpoint and status
	// (ok|error).
	ModelCalls *prometheus.CounterVec

	// BusyRejections counts requests refused by admission control.
	BusyRejections prometheus.Counter
}

// NewMetrics creates and registers all metrics. Call once at startup.
func NewMetrics() *Metrics {
	return &Metrics{
		UpdatesReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telepath_updates_received_total",
				Help: "Total webhook updates received by message kind",
			},
			[]string{"kind"},
		),
		RepliesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telepath_replies_sent_total",
				Help: "Total outbound replies by status",
			},
			[]string{"status"},
		),
		ToolExecutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telepath_tool_executions_total",
				Help: "Total tool dispatches by tool name",
			},
			[]string{"tool"},
		),
		ModelCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telepath_model_calls_total",
				Help: "Total model endpoint calls by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		BusyRejections: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "telepath_busy_rejections_total",
				Help: "Total requests rejected by admission control",
			},
		),
	}
}

// RecordUpdate counts one received update.
func (m *Metrics) RecordUpdate(kind string) {
	if m == nil {
		return
	}
	m.UpdatesReceived.WithLabelValues(kind).Inc()
}

// RecordReply counts one outbound send.
func (m *Metrics) RecordReply(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.RepliesSent.WithLabelValues(status).Inc()
}

// RecordTool counts one tool dispatch.
func (m *Metrics) RecordTool(tool string) {
	if m == nil {
		return
	}
	m.ToolExecutions.WithLabelValues(tool).Inc()
}

// RecordModelCall counts one model endpoint attempt.
func (m *Metrics) RecordModelCall(endpoint string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.ModelCalls.WithLabelValues(endpoint, status).Inc()
}

// RecordBusy counts one admission rejection.
func (m *Metrics) RecordBusy() {
	if m == nil {
		return
	}
	m.BusyRejections.Inc()
}
