package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"rentcomps/internal/common/logger"
)

type Options struct {
	ServiceName string
	// JaegerEndpoint is the collector URL; empty keeps spans in-process.
	JaegerEndpoint string
	// Registerer receives the otel prometheus collector; nil means the default registry.
	Registerer prometheus.Registerer
	Logger     logger.Logger
}

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	fetchCounter   otelmetric.Int64Counter
	fetchDuration  otelmetric.Float64Histogram
	log            logger.Logger
}

func New(opts Options) *Observability {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "rentcomps"
	}

	obs := &Observability{
		tracer: noop.NewTracerProvider().Tracer(opts.ServiceName),
		log:    log,
	}

	res := resource.NewSchemaless(attribute.String("service.name", opts.ServiceName))

	promOpts := []otelprom.Option{}
	if opts.Registerer != nil {
		promOpts = append(promOpts, otelprom.WithRegisterer(opts.Registerer))
	}
	exporter, err := otelprom.New(promOpts...)
	if err != nil {
		log.Warn("failed to create prometheus exporter, fetch metrics disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		provider := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
		otel.SetMeterProvider(provider)
		obs.meterProvider = provider

		meter := provider.Meter(opts.ServiceName)
		obs.fetchCounter, _ = meter.Int64Counter(
			"search.fetches",
			otelmetric.WithDescription("Number of search fetches settled"),
		)
		obs.fetchDuration, _ = meter.Float64Histogram(
			"search.fetch.duration",
			otelmetric.WithDescription("Search fetch duration"),
			otelmetric.WithUnit("ms"),
		)
	}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if opts.JaegerEndpoint != "" {
		jexp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.JaegerEndpoint)))
		if err != nil {
			log.Warn("failed to create jaeger exporter, spans stay local", map[string]interface{}{
				"endpoint": opts.JaegerEndpoint,
				"error":    err.Error(),
			})
		} else {
			tpOpts = append(tpOpts, sdktrace.WithBatcher(jexp))
		}
	}
	obs.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(obs.tracerProvider)
	obs.tracer = obs.tracerProvider.Tracer(opts.ServiceName)

	return obs
}

// NewNoop returns an Observability that records nothing.
func NewNoop() *Observability {
	return &Observability{
		tracer: noop.NewTracerProvider().Tracer("rentcomps"),
		log:    logger.NewNoOpLogger(),
	}
}

// StartSpan starts a span named name under ctx.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span (if any) and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (o *Observability) RecordFetch(ctx context.Context, duration time.Duration, outcome string) {
	attrs := otelmetric.WithAttributes(attribute.String("outcome", outcome))
	if o.fetchCounter != nil {
		o.fetchCounter.Add(ctx, 1, attrs)
	}
	if o.fetchDuration != nil {
		o.fetchDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			o.log.Warn("meter provider shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			o.log.Warn("tracer provider shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}
}
