package stages

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/andriiyaremenko/stages"

// Metric names recorded by every stage, tagged with the "stage" attribute.
const (
	MetricRuns           = "stages.runs"
	MetricItemsProcessed = "stages.items.processed"
	MetricItemsBuffered  = "stages.items.buffered"
	MetricCancellations  = "stages.cancellations"
)

type stageMetrics struct {
	runs      metric.Int64Counter
	processed metric.Int64Counter
	buffered  metric.Int64Counter
	cancels   metric.Int64Counter
	attrs     metric.MeasurementOption
}

func newStageMetrics(mp metric.MeterProvider, stage string) *stageMetrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(meterName)
	m := &stageMetrics{attrs: metric.WithAttributes(attribute.String("stage", stage))}

	// instrument errors only happen for invalid names; the meter then hands back no-op instruments
	m.runs, _ = meter.Int64Counter(MetricRuns,
		metric.WithDescription("Completed, failed and cancelled stage runs."))
	m.processed, _ = meter.Int64Counter(MetricItemsProcessed,
		metric.WithDescription("Items placed into the stage output on the first attempt."))
	m.buffered, _ = meter.Int64Counter(MetricItemsBuffered,
		metric.WithDescription("Items deferred into the pending buffer after a refused insert."))
	m.cancels, _ = meter.Int64Counter(MetricCancellations,
		metric.WithDescription("Runs aborted through cancellation."))

	return m
}

func (m *stageMetrics) run(ctx context.Context, outcome string) {
	m.runs.Add(ctx, 1, m.attrs, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *stageMetrics) itemProcessed(ctx context.Context) {
	m.processed.Add(ctx, 1, m.attrs)
}

func (m *stageMetrics) itemBuffered(ctx context.Context) {
	m.buffered.Add(ctx, 1, m.attrs)
}

func (m *stageMetrics) cancelled(ctx context.Context) {
	m.cancels.Add(ctx, 1, m.attrs)
}
