package tilevector

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrumentation scope used when no meter or tracer is supplied by name.
const instrumentationName = "github.com/beetlebugorg/tilevector"

// loadMetrics holds the instruments recorded by the loader and source.
type loadMetrics struct {
	requests    metric.Int64Counter
	failures    metric.Int64Counter
	duration    metric.Float64Histogram
	outstanding metric.Int64UpDownCounter
}

func newLoadMetrics(meter metric.Meter) (*loadMetrics, error) {
	requests, err := meter.Int64Counter(
		"tilevector.tile.requests",
		metric.WithDescription("Total number of tile requests issued"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"tilevector.tile.failures",
		metric.WithDescription("Total number of failed tile requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"tilevector.tile.load_duration_ms",
		metric.WithDescription("Tile fetch and decode duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	outstanding, err := meter.Int64UpDownCounter(
		"tilevector.tile.outstanding",
		metric.WithDescription("Number of tile requests in flight"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &loadMetrics{
		requests:    requests,
		failures:    failures,
		duration:    duration,
		outstanding: outstanding,
	}, nil
}

// recordLoad records a finished load.
func (m *loadMetrics) recordLoad(ctx context.Context, kind FormatKind, elapsed time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("tilevector.format", kind.String()))

	m.requests.Add(ctx, 1, opt)
	if err != nil {
		m.failures.Add(ctx, 1, opt)
	}
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, opt)
}

func (m *loadMetrics) addOutstanding(ctx context.Context, n int) {
	if n == 0 {
		return
	}
	m.outstanding.Add(ctx, int64(n))
}

// endSpan sets the span status from err and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
