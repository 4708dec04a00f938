package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/johnquangdev/medical-scribe/pipeline"

// Stage names used in spans, metrics and failure causes
const (
	StageTranscribe = "transcribe"
	StageCompose    = "compose"
)

// stageBuckets are histogram boundaries in seconds; generation on CPU can take minutes
var stageBuckets = []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

type telemetry struct {
	tracer    trace.Tracer
	outcomes  metric.Int64Counter
	durations metric.Float64Histogram
}

// newTelemetry uses the global providers, which are no-ops until main installs real ones
func newTelemetry() *telemetry {
	meter := otel.Meter(instrumentationName)
	t := &telemetry{tracer: otel.Tracer(instrumentationName)}

	var err error
	if t.outcomes, err = meter.Int64Counter("scribe.pipeline.stage.outcomes",
		metric.WithDescription("Pipeline stage executions by outcome."),
	); err != nil {
		t.outcomes = nil
	}
	if t.durations, err = meter.Float64Histogram("scribe.pipeline.stage.duration",
		metric.WithDescription("Duration of pipeline stages."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		t.durations = nil
	}
	return t
}

// stage runs fn inside a span and records its outcome and duration
func (t *telemetry) stage(ctx context.Context, name string, recordingID uuid.UUID, fn func(context.Context) error) error {
	ctx, span := t.tracer.Start(ctx, "pipeline."+name,
		trace.WithAttributes(attribute.String("recording.id", recordingID.String())),
	)
	defer span.End()

	started := time.Now()
	err := fn(ctx)
	elapsed := time.Since(started)

	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	attrs := metric.WithAttributes(
		attribute.String("stage", name),
		attribute.String("outcome", outcome),
	)
	if t.outcomes != nil {
		t.outcomes.Add(ctx, 1, attrs)
	}
	if t.durations != nil {
		t.durations.Record(ctx, elapsed.Seconds(), attrs)
	}
	return err
}
