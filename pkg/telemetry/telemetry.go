package telemetry

import (
	"context"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

type otelCtxKeyType string

const otelCtxKey otelCtxKeyType = "github.com/jylitalo/garminconnect/pkg/telemetry"

func GetTracer(ctx context.Context) trace.Tracer {
	if tracer, ok := ctx.Value(otelCtxKey).(trace.Tracer); ok {
		return tracer
	}
	return otel.Tracer("garminconnect")
}

func newExporter(ctx context.Context, fname string) (sdktrace.SpanExporter, error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		return otlptracehttp.New(ctx)
	}
	opts := []stdouttrace.Option{}
	if fname != "" {
		f, err := os.Create(filepath.Clean(fname))
		if err != nil {
			return nil, err
		}
		opts = append(opts, stdouttrace.WithWriter(f))
	}
	return stdouttrace.New(opts...)
}

func newTraceProvider(exp sdktrace.SpanExporter, name string) (*sdktrace.TracerProvider, error) {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(name),
		),
	)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(r),
	), nil
}

func Setup(ctx context.Context, name string) (context.Context, *sdktrace.TracerProvider, error) {
	exp, err := newExporter(ctx, "."+filepath.Base(name)+".telemetry")
	if err != nil {
		return ctx, nil, err
	}
	tp, err := newTraceProvider(exp, name)
	if err != nil {
		return ctx, nil, err
	}
	otel.SetTracerProvider(tp)
	tracer := tp.Tracer(name)
	ctx = context.WithValue(ctx, otelCtxKey, tracer)
	return ctx, tp, nil
}

func NewSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return GetTracer(ctx).Start(ctx, name)
}

// Error records err on span (when non-nil) and passes it through, so call
// sites can `return telemetry.Error(span, err)`.
func Error(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
