// Package telemetry wires OpenTelemetry tracing and metrics for the fee ledger.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tuition/backend"

// Span attribute keys for ledger operations
var (
	AttrStudentID     = attribute.Key("student.id")
	AttrCycleNumber   = attribute.Key("fee.cycle")
	AttrTermNumber    = attribute.Key("fee.term")
	AttrTermCount     = attribute.Key("fee.term_count")
	AttrAmount        = attribute.Key("fee.amount")
	AttrEditCount     = attribute.Key("ledger.edit_count")
	AttrOverdueCount  = attribute.Key("ledger.overdue_count")
	AttrOrphanedCount = attribute.Key("ledger.orphaned_count")
	AttrRole          = attribute.Key("session.role")
)

// StartServiceSpan starts an internal span named "<service>.<method>", for
// example "payment.record". The caller ends it.
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError records err on span and marks it failed; nil err is a no-op
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func SetOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// Event adds a timestamped annotation, such as one term receiving money
func Event(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
