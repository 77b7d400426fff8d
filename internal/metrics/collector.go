// Package metrics exposes generation and endpoint counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"airender/internal/logging"
)

const namespace = "airender"

// Collector owns its registry so several instances can coexist in tests.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	generationsTotal   *prometheus.CounterVec
	endpointAttempts   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	outboxDropped      prometheus.Counter

	logger *zap.Logger
}

func NewCollector(logger *zap.Logger) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		logger:   logging.OrNop(logger).With(zap.String("component", "metrics")),
	}

	c.generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generate requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	c.endpointAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "endpoint_attempts_total",
			Help:      "Cloud endpoint calls by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)
	c.generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall time of generate requests",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160, 320},
		},
		[]string{"provider"},
	)
	c.outboxDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_dropped_total",
		Help:      "Outbound UI messages dropped because the outbox was full",
	})

	c.registry.MustRegister(c.generationsTotal, c.endpointAttempts, c.generationDuration, c.outboxDropped)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) RecordGeneration(provider, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.generationsTotal.WithLabelValues(provider, outcome).Inc()
	c.generationDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func (c *Collector) RecordAttempt(endpoint, outcome string) {
	if c == nil {
		return
	}
	c.endpointAttempts.WithLabelValues(endpoint, outcome).Inc()
}

func (c *Collector) RecordOutboxDrop() {
	if c == nil {
		return
	}
	c.outboxDropped.Inc()
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	if c == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	c.logger.Info("metrics listener started", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
