// Package metrics carries the server's own Prometheus instrumentation and an
// optional query client for historical stream metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the tool-invocation metrics exposed on /metrics when the
// HTTP transport is active.
type Registry struct {
	reg          *prometheus.Registry
	toolCalls    *prometheus.CounterVec
	toolErrors   *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
}

// New creates a metrics registry with the tool instrumentation registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jsmcp",
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool name.",
		}, []string{"tool"}),
		toolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jsmcp",
			Name:      "tool_errors_total",
			Help:      "Tool invocations that returned an error result.",
		}, []string{"tool"}),
		toolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jsmcp",
			Name:      "tool_duration_seconds",
			Help:      "Tool handler duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}
}

// ObserveTool records one tool invocation.
func (r *Registry) ObserveTool(tool string, isError bool, dur time.Duration) {
	r.toolCalls.WithLabelValues(tool).Inc()
	if isError {
		r.toolErrors.WithLabelValues(tool).Inc()
	}
	r.toolDuration.WithLabelValues(tool).Observe(dur.Seconds())
}

// Handler serves the registry in Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
