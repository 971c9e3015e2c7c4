package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ReadMetrics holds custom metrics for remote table reads
type ReadMetrics struct {
	callDuration metric.Float64Histogram
	callCounter  metric.Int64Counter
	errorCounter metric.Int64Counter
	rowsReturned metric.Int64Histogram
	batchCounter metric.Int64Counter
	chunkCounter metric.Int64Counter
}

// InitReadMetrics initializes the table-read metrics
func InitReadMetrics() (*ReadMetrics, error) {
	meter := otel.Meter("sap-rfcread")

	callDuration, err := meter.Float64Histogram(
		"rfcread.call.duration",
		metric.WithDescription("Duration of remote function calls in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create call duration histogram: %w", err)
	}

	callCounter, err := meter.Int64Counter(
		"rfcread.calls.total",
		metric.WithDescription("Total number of remote function calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create call counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"rfcread.errors.total",
		metric.WithDescription("Total number of failed remote function calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}

	rowsReturned, err := meter.Int64Histogram(
		"rfcread.rows.returned",
		metric.WithDescription("Number of rows returned by a table read"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rows returned histogram: %w", err)
	}

	batchCounter, err := meter.Int64Counter(
		"rfcread.batches.total",
		metric.WithDescription("Number of paginated windows fetched"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch counter: %w", err)
	}

	chunkCounter, err := meter.Int64Counter(
		"rfcread.chunks.total",
		metric.WithDescription("Number of sub-requests issued for oversized filters"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk counter: %w", err)
	}

	return &ReadMetrics{
		callDuration: callDuration,
		callCounter:  callCounter,
		errorCounter: errorCounter,
		rowsReturned: rowsReturned,
		batchCounter: batchCounter,
		chunkCounter: chunkCounter,
	}, nil
}

// RecordCall records a remote function call with its duration and outcome
func (m *ReadMetrics) RecordCall(ctx context.Context, function string, duration time.Duration, failed bool) {
	attrs := []attribute.KeyValue{
		attribute.String("function", function),
		attribute.Bool("failed", failed),
	}

	m.callDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.callCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if failed {
		m.errorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("function", function),
		))
	}
}

// RecordRowsReturned records the number of rows a table read produced
func (m *ReadMetrics) RecordRowsReturned(ctx context.Context, table string, count int64) {
	m.rowsReturned.Record(ctx, count, metric.WithAttributes(
		attribute.String("table", table),
	))
}

// RecordBatch counts one paginated window fetch
func (m *ReadMetrics) RecordBatch(ctx context.Context, table string) {
	m.batchCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("table", table),
	))
}

// RecordChunks counts the sub-requests an oversized membership filter was split into
func (m *ReadMetrics) RecordChunks(ctx context.Context, table string, count int64) {
	if count <= 0 {
		return
	}
	m.chunkCounter.Add(ctx, count, metric.WithAttributes(
		attribute.String("table", table),
	))
}

// InitMetrics initializes all custom metrics and returns the ReadMetrics instance
func InitMetrics(logger *slog.Logger) (*ReadMetrics, error) {
	metrics, err := InitReadMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize table-read metrics: %w", err)
	}

	logger.Info("custom table-read metrics initialized")
	return metrics, nil
}

type readMetricsContextKey struct{}

// ContextWithReadMetrics stores read metrics in the provided context.
func ContextWithReadMetrics(ctx context.Context, metrics *ReadMetrics) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, readMetricsContextKey{}, metrics)
}

// ReadMetricsFromContext retrieves read metrics from the context.
func ReadMetricsFromContext(ctx context.Context) *ReadMetrics {
	if ctx == nil {
		return nil
	}
	metrics, _ := ctx.Value(readMetricsContextKey{}).(*ReadMetrics)
	return metrics
}
