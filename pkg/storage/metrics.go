package storage

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsConfig configures the Prometheus instrumentation decorator.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "loom").
	Namespace string

	// Subsystem is the metrics subsystem (default: "storage").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are histogram buckets for operation duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registerer to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the instrumentation decorator.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registerer.
func WithRegistry(r prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = r
	}
}

// instrumentedBackend wraps a Backend with Prometheus metrics.
type instrumentedBackend struct {
	next Backend

	ops      *prometheus.CounterVec
	errs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Instrument wraps backend so every operation is counted and timed.
// Metrics: <ns>_<sub>_operations_total{op}, <ns>_<sub>_errors_total{op},
// <ns>_<sub>_operation_duration_seconds{op}.
func Instrument(backend Backend, opts ...MetricsOption) Backend {
	cfg := &MetricsConfig{
		Namespace: "loom",
		Subsystem: "storage",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   cfg.Namespace,
		Subsystem:   cfg.Subsystem,
		Name:        "operations_total",
		Help:        "Total storage backend operations.",
		ConstLabels: cfg.ConstLabels,
	}, []string{"op"})

	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   cfg.Namespace,
		Subsystem:   cfg.Subsystem,
		Name:        "errors_total",
		Help:        "Total failed storage backend operations.",
		ConstLabels: cfg.ConstLabels,
	}, []string{"op"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   cfg.Namespace,
		Subsystem:   cfg.Subsystem,
		Name:        "operation_duration_seconds",
		Help:        "Storage backend operation latency.",
		ConstLabels: cfg.ConstLabels,
		Buckets:     cfg.Buckets,
	}, []string{"op"})

	cfg.Registry.MustRegister(ops, errs, duration)

	return &instrumentedBackend{
		next:     backend,
		ops:      ops,
		errs:     errs,
		duration: duration,
	}
}

func (b *instrumentedBackend) observe(op string, start time.Time, err error) {
	b.ops.WithLabelValues(op).Inc()
	b.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		b.errs.WithLabelValues(op).Inc()
	}
}

func (b *instrumentedBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := b.next.Set(ctx, key, value, ttl)
	b.observe("set", start, err)
	return err
}

func (b *instrumentedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	value, err := b.next.Get(ctx, key)
	b.observe("get", start, err)
	return value, err
}

func (b *instrumentedBackend) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := b.next.Delete(ctx, key)
	b.observe("delete", start, err)
	return err
}

func (b *instrumentedBackend) Close() error {
	return b.next.Close()
}

var _ Backend = (*instrumentedBackend)(nil)
