// Package metrics exposes Prometheus instrumentation for the signal backend.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the collectors shared across the backend.
type Metrics struct {
	UpdatesPushed       prometheus.Counter
	ProviderErrors      prometheus.Counter
	Decisions           *prometheus.CounterVec
	ActiveSubscriptions prometheus.Gauge
}

// New registers the backend collectors with a fresh registry and returns
// both.
func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		UpdatesPushed: factory.NewCounter(prometheus.CounterOpts{
			Name: "signal_updates_pushed_total",
			Help: "Number of update messages pushed to subscribers.",
		}),
		ProviderErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "signal_provider_errors_total",
			Help: "Number of market data provider failures.",
		}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signal_decisions_total",
			Help: "Number of strategy decisions by action.",
		}, []string{"action"}),
		ActiveSubscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signal_active_subscriptions",
			Help: "Number of open streaming subscriptions.",
		}),
	}
	return m, reg
}

// Serve runs a Prometheus scrape endpoint on the given port. It blocks until
// the listener fails.
func Serve(logger *zap.Logger, reg *prometheus.Registry, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	logger.Info("Serving metrics", zap.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}
