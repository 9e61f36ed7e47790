// Package metrics exposes Prometheus instruments for tool calls and downstream requests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "seam_mcp"

// Recorder owns a private registry. A nil *Recorder records nothing.
type Recorder struct {
	registry   *prometheus.Registry
	toolCalls  *prometheus.CounterVec
	downstream *prometheus.HistogramVec
}

// New creates a Recorder with process and Go runtime collectors registered.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	r := &Recorder{
		registry: registry,
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Completed MCP tool calls by tool and result.",
		}, []string{"tool", "result"}),
		downstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "downstream_request_duration_seconds",
			Help:      "Latency of lock actions against the Seam API by action and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action", "outcome"}),
	}
	registry.MustRegister(
		r.toolCalls,
		r.downstream,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ToolCall counts one completed tool call.
func (r *Recorder) ToolCall(tool, result string) {
	if r == nil {
		return
	}
	r.toolCalls.WithLabelValues(tool, result).Inc()
}

// Downstream observes one gateway round trip.
func (r *Recorder) Downstream(action, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.downstream.WithLabelValues(action, outcome).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
