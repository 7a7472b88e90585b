// Package telemetry emits one OpenTelemetry client span per executed
// request when an OTLP endpoint is configured, and costs nothing when
// it is not.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracerName  = "github.com/unkn0wn-root/recurl/internal/telemetry"
	httpHostKey = attribute.Key("http.host")
)

type Instrumenter interface {
	Start(ctx context.Context, info RequestStart) (context.Context, RequestSpan)
	Shutdown(ctx context.Context) error
}

type RequestStart struct {
	// RequestName is the request file stem, used as the span name.
	RequestName string
	Profile     string
	HTTPRequest *http.Request
}

type RequestResult struct {
	Err        error
	StatusCode int
}

type RequestSpan interface {
	End(result RequestResult)
}

type providerOptions struct {
	exporter       sdktrace.SpanExporter
	spanProcessors []sdktrace.SpanProcessor
}

type Option func(*providerOptions)

func WithSpanProcessor(proc sdktrace.SpanProcessor) Option {
	return func(opts *providerOptions) {
		if proc != nil {
			opts.spanProcessors = append(opts.spanProcessors, proc)
		}
	}
}

func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(opts *providerOptions) {
		if exp != nil {
			opts.exporter = exp
		}
	}
}

type manager struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	shutdown sync.Once
}

func New(cfg Config, opts ...Option) (Instrumenter, error) {
	builder := providerOptions{}
	for _, opt := range opts {
		opt(&builder)
	}

	if !cfg.Enabled() && builder.exporter == nil && len(builder.spanProcessors) == 0 {
		return Noop(), nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(buildResourceAttributes(cfg)...),
	)
	if err != nil {
		return nil, err
	}

	exporter := builder.exporter
	if exporter == nil && cfg.Enabled() {
		exporter, err = newExporter(cfg)
		if err != nil {
			return nil, err
		}
	}

	var tpOpts []sdktrace.TracerProviderOption
	tpOpts = append(tpOpts, sdktrace.WithResource(res))
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	for _, proc := range builder.spanProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(proc))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	return &manager{tracer: tp.Tracer(tracerName), provider: tp}, nil
}

func (m *manager) Start(ctx context.Context, info RequestStart) (context.Context, RequestSpan) {
	if info.HTTPRequest == nil {
		return ctx, noopSpan{}
	}

	ctx, span := m.tracer.Start(
		ctx,
		spanNameFor(info),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(buildSpanAttributes(info)...),
	)
	return ctx, &requestSpan{span: span}
}

func (m *manager) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	var shutdownErr error
	m.shutdown.Do(func() {
		shutdownErr = m.provider.Shutdown(ctx)
	})
	return shutdownErr
}

type requestSpan struct {
	span trace.Span
}

func (rs *requestSpan) End(result RequestResult) {
	if rs == nil || rs.span == nil {
		return
	}

	if result.StatusCode > 0 {
		rs.span.SetAttributes(semconv.HTTPStatusCodeKey.Int(result.StatusCode))
	}

	switch {
	case result.Err != nil:
		rs.span.RecordError(result.Err)
		rs.span.SetStatus(codes.Error, result.Err.Error())
	case result.StatusCode >= 400:
		rs.span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", result.StatusCode))
	default:
		rs.span.SetStatus(codes.Ok, "OK")
	}

	rs.span.End()
}

func Noop() Instrumenter {
	return noopInstrumenter{}
}

type noopInstrumenter struct{}

type noopSpan struct{}

func (noopInstrumenter) Start(ctx context.Context, _ RequestStart) (context.Context, RequestSpan) {
	return ctx, noopSpan{}
}

func (noopInstrumenter) Shutdown(context.Context) error { return nil }

func (noopSpan) End(RequestResult) {}

func newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("telemetry endpoint is required")
	}

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	clientOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		clientOpts = append(clientOpts, otlptracegrpc.WithHeaders(cfg.Headers))
	}

	client := otlptracegrpc.NewClient(clientOpts...)
	return otlptrace.New(ctx, client)
}

func buildResourceAttributes(cfg Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
	}
	if strings.TrimSpace(cfg.Version) != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.Version))
	}
	return attrs
}

func buildSpanAttributes(info RequestStart) []attribute.KeyValue {
	var attrs []attribute.KeyValue

	req := info.HTTPRequest
	if req.Method != "" {
		attrs = append(attrs, semconv.HTTPMethodKey.String(req.Method))
	}
	if req.URL != nil {
		if scheme := req.URL.Scheme; scheme != "" {
			attrs = append(attrs, semconv.HTTPSchemeKey.String(scheme))
		}
		if host := req.URL.Host; host != "" {
			attrs = append(attrs, httpHostKey.String(host))
		}
		if target := req.URL.RequestURI(); target != "" {
			attrs = append(attrs, semconv.HTTPTargetKey.String(target))
		}
		if full := req.URL.String(); full != "" {
			attrs = append(attrs, semconv.HTTPURLKey.String(full))
		}
	}

	if name := strings.TrimSpace(info.RequestName); name != "" {
		attrs = append(attrs, attribute.String("recurl.request.name", name))
	}
	if profile := strings.TrimSpace(info.Profile); profile != "" {
		attrs = append(attrs, attribute.String("recurl.profile", profile))
	}

	return attrs
}

func spanNameFor(info RequestStart) string {
	if name := strings.TrimSpace(info.RequestName); name != "" {
		return name
	}
	if info.HTTPRequest != nil && info.HTTPRequest.Method != "" {
		if info.HTTPRequest.URL != nil && info.HTTPRequest.URL.Host != "" {
			return fmt.Sprintf("%s %s", info.HTTPRequest.Method, info.HTTPRequest.URL.Host)
		}
		return info.HTTPRequest.Method
	}
	return "http.request"
}
