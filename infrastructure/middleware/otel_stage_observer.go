package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-arena/internal/ports"
)

// OtelStageObserver traces each pipeline stage as an OpenTelemetry span.
// Spans are stored in the context between StageStarted and StageCompleted.
type OtelStageObserver struct {
	tracer trace.Tracer
}

var _ ports.StageObserver = (*OtelStageObserver)(nil)

// NewOtelStageObserver creates an observer using the named tracer.
func NewOtelStageObserver(serviceName string) *OtelStageObserver {
	return &OtelStageObserver{tracer: otel.Tracer(serviceName)}
}

type stageSpanKey struct{}

// StageStarted opens a span for the stage and returns a context carrying it.
func (o *OtelStageObserver) StageStarted(ctx context.Context, matchID, stage string) context.Context {
	ctx, span := o.tracer.Start(ctx, "stage."+stage,
		trace.WithAttributes(
			attribute.String("match.id", matchID),
			attribute.String("stage.name", stage),
		),
	)
	return context.WithValue(ctx, stageSpanKey{}, span)
}

// StageCompleted closes the stage span, recording the error if any.
func (o *OtelStageObserver) StageCompleted(ctx context.Context, _, _ string, err error) {
	span, ok := ctx.Value(stageSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
