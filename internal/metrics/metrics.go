// Package metrics holds the Prometheus instruments and the ops HTTP server.
package metrics

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the counters and histograms used across the bot.
type Metrics struct {
	UpstreamRequests metrics.Counter
	UpstreamDuration metrics.Histogram
	Commands         metrics.Counter
	CommandDuration  metrics.Histogram
}

// New registers the instruments with the default Prometheus registry.
// It must be called once per process.
func New(namespace string) *Metrics {
	return &Metrics{
		UpstreamRequests: kitprometheus.NewCounterFrom(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_count",
			Help:      "Upstream market data requests.",
		}, []string{"method", "error"}),
		UpstreamDuration: kitprometheus.NewSummaryFrom(prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream market data request latency.",
		}, []string{"method", "error"}),
		Commands: kitprometheus.NewCounterFrom(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "command_count",
			Help:      "Chat commands handled, by outcome.",
		}, []string{"command", "outcome"}),
		CommandDuration: kitprometheus.NewHistogramFrom(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "command_duration_seconds",
			Help:      "Chat command handling latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"command"}),
	}
}

// NewDiscard returns instruments that record nothing.
func NewDiscard() *Metrics {
	return &Metrics{
		UpstreamRequests: discard.NewCounter(),
		UpstreamDuration: discard.NewHistogram(),
		Commands:         discard.NewCounter(),
		CommandDuration:  discard.NewHistogram(),
	}
}
