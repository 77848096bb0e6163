// Package o11y defines the minimal metrics and tracing interfaces the
// stream client reports through. Implementations can be backed by
// OpenTelemetry (see the otel package) or anything else; a nil provider
// disables instrumentation entirely.
package o11y

import "context"

// Config carries the optional observability providers handed to the client
// builder.
type Config struct {
	MetricsProvider MetricsProvider
	TracingProvider TracingProvider
	ServiceName     string
	ServiceVersion  string
}

// MetricsProvider abstracts metrics collection.
type MetricsProvider interface {
	Counter(name string) Counter
	Gauge(name string) Gauge
	Histogram(name string) Histogram
}

// TracingProvider abstracts distributed tracing.
type TracingProvider interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Counter represents a monotonically increasing metric.
type Counter interface {
	Add(ctx context.Context, value int64, labels ...Label)
}

// Gauge represents a value that can go up and down.
type Gauge interface {
	Set(ctx context.Context, value float64, labels ...Label)
}

// Histogram records a distribution of values.
type Histogram interface {
	Record(ctx context.Context, value float64, labels ...Label)
}

// Span represents a unit of work in a trace.
type Span interface {
	SetAttributes(labels ...Label)
	SetStatus(code SpanStatusCode, description string)
	End()
}

// Label is a key-value pair attached to metrics and spans.
type Label struct {
	Key   string
	Value string
}

// SpanStatusCode mirrors the tri-state span status of common tracing
// backends.
type SpanStatusCode int

const (
	SpanStatusUnset SpanStatusCode = iota
	SpanStatusOK
	SpanStatusError
)
