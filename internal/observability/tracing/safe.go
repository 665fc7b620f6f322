package tracing

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/roomledger/internal/errclass"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "roomledger"

var blockedAttributeKeys = map[attribute.Key]struct{}{
	"actor_id":      {},
	"authorization": {},
	"note":          {},
}

// ExtractContext pulls remote span context from inbound headers.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// SafeAttributes drops attributes that may carry free text or identities.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, blocked := blockedAttributeKeys[attr.Key]; blocked {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// SafeError reduces err to its class and code so span events never carry SQL or row data.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	class := errclass.Of(err)
	code := errclass.Code(err)
	if code == "" {
		return errors.New(string(class))
	}
	return errors.New(string(class) + ":" + code)
}

// StartSpan opens an internal span for a resolver or store call.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, strings.TrimSpace(name), trace.WithAttributes(SafeAttributes(attrs...)...))
}

// EndSpan records unexpected failures on span and ends it. Domain outcomes
// such as sold-out nights are annotated but not marked as span errors.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		class := errclass.Of(err)
		span.SetAttributes(attribute.String("error.class", string(class)))
		if class == errclass.ClassStore {
			span.RecordError(SafeError(err))
			span.SetStatus(codes.Error, "store error")
		}
	}
	span.End()
}
