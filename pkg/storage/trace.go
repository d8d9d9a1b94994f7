package storage

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "loom.storage"

// TraceConfig configures the OpenTelemetry tracing decorator.
type TraceConfig struct {
	// TracerName names the tracer (default: "loom.storage").
	TracerName string

	// IncludeKeys records entry keys as span attributes. Keys may carry
	// user identifiers; disabled by default.
	IncludeKeys bool

	tracer trace.Tracer
}

// TraceOption configures the tracing decorator.
type TraceOption func(*TraceConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TraceOption {
	return func(c *TraceConfig) {
		c.TracerName = name
	}
}

// WithIncludeKeys enables recording entry keys on spans.
func WithIncludeKeys(include bool) TraceOption {
	return func(c *TraceConfig) {
		c.IncludeKeys = include
	}
}

type tracedBackend struct {
	next Backend
	cfg  TraceConfig
}

// Trace wraps backend so every operation opens a span named
// "storage.<op>". Errors set span status.
func Trace(backend Backend, opts ...TraceOption) Backend {
	cfg := TraceConfig{
		TracerName: defaultTracerName,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.tracer = otel.Tracer(cfg.TracerName)

	return &tracedBackend{next: backend, cfg: cfg}
}

func (b *tracedBackend) start(ctx context.Context, op, key string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("storage.op", op),
	}
	if b.cfg.IncludeKeys {
		attrs = append(attrs, attribute.String("storage.key", key))
	}
	return b.cfg.tracer.Start(ctx, "storage."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	span.End()
}

func (b *tracedBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := b.start(ctx, "set", key)
	err := b.next.Set(ctx, key, value, ttl)
	finish(span, err)
	return err
}

func (b *tracedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := b.start(ctx, "get", key)
	value, err := b.next.Get(ctx, key)
	finish(span, err)
	return value, err
}

func (b *tracedBackend) Delete(ctx context.Context, key string) error {
	ctx, span := b.start(ctx, "delete", key)
	err := b.next.Delete(ctx, key)
	finish(span, err)
	return err
}

func (b *tracedBackend) Close() error {
	return b.next.Close()
}

var _ Backend = (*tracedBackend)(nil)
