package observability

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the global tracer used by the client.
var Tracer trace.Tracer = otel.Tracer("snapfeed")

// TracingConfig selects where client spans go.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Enabled        bool
	Exporter       string // "stdout" or "otlp"
	OTLPEndpoint   string
	// APIURL is recorded on the resource so traces from different backends can be told apart.
	APIURL       string
	SamplerRatio float64
}

// InitTracing installs a tracer provider for client spans and returns its shutdown func.
// Disabled tracing keeps the no-op global provider.
func InitTracing(cfg TracingConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		Tracer = otel.Tracer(cfg.ServiceName)
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating %s trace exporter: %w", cfg.Exporter, err)
	}
	res, err := resource.New(context.Background(), resource.WithAttributes(clientResource(cfg)...))
	if err != nil {
		return nil, fmt.Errorf("creating trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SamplerRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	Tracer = tp.Tracer(cfg.ServiceName)
	return tp.Shutdown, nil
}

func newExporter(cfg TracingConfig) (sdktrace.SpanExporter, error) {
	if cfg.Exporter == "otlp" {
		return otlptracehttp.New(context.Background(),
			otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
	}
	// Terminal sessions are short; stdout spans are there to be read, not shipped.
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

func clientResource(cfg TracingConfig) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	}
	if u, err := url.Parse(cfg.APIURL); err == nil && u.Host != "" {
		attrs = append(attrs, attribute.String("snapfeed.api_host", u.Host))
	}
	return attrs
}

// sampler samples everything unless a ratio in (0, 1) is set.
func sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// Span wraps an OpenTelemetry span for convenience.
type Span struct {
	span trace.Span
}

// NewSpan starts a new span and returns the wrapper and updated context.
func NewSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (*Span, context.Context) {
	ctx, span := Tracer.Start(ctx, name, opts...)
	return &Span{span: span}, ctx
}

// AddAttributes sets attributes on the span.
func (s *Span) AddAttributes(attrs ...attribute.KeyValue) {
	if s.span != nil {
		s.span.SetAttributes(attrs...)
	}
}

// SetError records the error on the span and sets span status to Error.
func (s *Span) SetError(err error) {
	if s.span != nil && err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
}

// End ends the span.
func (s *Span) End() {
	if s.span != nil {
		s.span.End()
	}
}

// TraceID returns the span's trace id, or "" when the span is not recorded.
func (s *Span) TraceID() string {
	if s.span == nil || !s.span.SpanContext().HasTraceID() {
		return ""
	}
	return s.span.SpanContext().TraceID().String()
}

// TraceAPICall starts a client span for an outgoing API request. The route template,
// not the filled path, names the span so ids never multiply span names.
func TraceAPICall(ctx context.Context, method, route, requestID string) (*Span, context.Context) {
	s, ctx := NewSpan(ctx, "api "+method+" "+route, trace.WithSpanKind(trace.SpanKindClient))
	s.AddAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.String("snapfeed.request_id", requestID),
	)
	return s, ctx
}

// RecordStatus notes the response status; 4xx and 5xx mark the span failed with the API's message.
func (s *Span) RecordStatus(status int, message string) {
	s.AddAttributes(attribute.Int("http.status_code", status))
	if s.span != nil && status >= 400 {
		s.span.SetStatus(codes.Error, fmt.Sprintf("%d %s", status, message))
	}
}

// TraceStoreAction starts an internal span for a store action.
func TraceStoreAction(ctx context.Context, slice, action string) (*Span, context.Context) {
	s, ctx := NewSpan(ctx, "store."+slice+"."+action, trace.WithSpanKind(trace.SpanKindInternal))
	s.AddAttributes(
		attribute.String("store.slice", slice),
		attribute.String("store.action", action),
	)
	return s, ctx
}

// InjectHeaders propagates the trace context of ctx into outgoing request headers.
func InjectHeaders(ctx context.Context, h http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(h))
}
