package replica

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "prism-sync/replica"

type mutationMetrics struct {
	logger      *log.Logger
	span        trace.Span
	operation   string
	start       time.Time
	apiDuration time.Duration
	applied     bool
	broadcast   bool
	errorStage  string
}

func (s *Synchronizer) startMutation(ctx context.Context, operation string) (context.Context, *mutationMetrics) {
	tracer := s.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	ctx, span := tracer.Start(ctx, "replica."+operation,
		trace.WithAttributes(attribute.String("replica.operation", operation)))
	return ctx, &mutationMetrics{
		logger:    s.logger,
		span:      span,
		operation: operation,
		start:     time.Now(),
	}
}

func (m *mutationMetrics) ObserveAPI(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.apiDuration = duration
}

func (m *mutationMetrics) SetApplied(applied bool) { m.applied = applied }

func (m *mutationMetrics) SetBroadcast(sent bool) { m.broadcast = sent }

func (m *mutationMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Finish ends the span and logs one line describing the mutation.
func (m *mutationMetrics) Finish(err error) {
	if m == nil {
		return
	}
	m.span.SetAttributes(
		attribute.Bool("replica.applied", m.applied),
		attribute.Bool("replica.broadcast", m.broadcast),
	)
	if m.errorStage != "" {
		m.span.SetAttributes(attribute.String("replica.error_stage", m.errorStage))
	}
	if err != nil {
		m.span.RecordError(err)
		m.span.SetStatus(codes.Error, m.errorStage)
	} else {
		m.span.SetStatus(codes.Ok, "")
	}
	m.span.End()

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"operation": m.operation,
		"total_ms":  durationToMillis(time.Since(m.start)),
		"applied":   m.applied,
		"broadcast": m.broadcast,
	}
	if m.apiDuration > 0 {
		fields["api_ms"] = durationToMillis(m.apiDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Info("replica.mutation.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
