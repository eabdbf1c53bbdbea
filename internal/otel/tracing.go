package otel

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"printconnect/internal/config"
)

// DefaultServiceName is reported when no service name is configured.
const DefaultServiceName = "printconnect"

// exporters maps OTEL_EXPORTER_OTLP_PROTOCOL values to exporter constructors.
var exporters = map[string]func(context.Context) (*otlptrace.Exporter, error){
	"grpc": func(ctx context.Context) (*otlptrace.Exporter, error) { return otlptracegrpc.New(ctx) },
	"http/protobuf": func(ctx context.Context) (*otlptrace.Exporter, error) {
		return otlptracehttp.New(ctx)
	},
}

func noopShutdown(context.Context) error { return nil }

// Init installs the W3C propagators and, unless tracing is disabled or the
// exporter cannot be built, a batching tracer provider. Spans from otelfiber,
// otelsql, otelhttp (MinIO calls) and the services all go through it.
// The returned function flushes and stops the provider.
func Init(ctx context.Context, cfg config.TracingConfig, log zerolog.Logger) (func(context.Context) error, error) {
	log = log.With().Str("component", "tracing").Logger()
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	if cfg.Disabled {
		log.Info().Bool("tracing_enabled", false).Msg("tracing_configured")
		return noopShutdown, nil
	}

	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(name)),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	protocol := cfg.Protocol
	if protocol == "" {
		protocol = "grpc"
	}
	newExporter, ok := exporters[protocol]
	if !ok {
		log.Error().Str("otlp_protocol", protocol).Msg("tracing_init_failed")
		return noopShutdown, nil
	}
	exporter, err := newExporter(ctx)
	if err != nil {
		log.Error().Err(err).Str("otlp_protocol", protocol).Msg("tracing_init_failed")
		return noopShutdown, nil
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(sampler(cfg.Sampler, cfg.SamplerArg)),
	)
	otel.SetTracerProvider(tp)

	log.Info().
		Bool("tracing_enabled", true).
		Str("service_name", name).
		Str("otlp_protocol", protocol).
		Str("otlp_endpoint", cfg.Endpoint).
		Str("sampler", cfg.Sampler).
		Str("sampler_arg", cfg.SamplerArg).
		Msg("tracing_configured")

	return tp.Shutdown, nil
}

// sampler resolves an OTEL_TRACES_SAMPLER name. Unknown names sample every root span.
func sampler(name, arg string) trace.Sampler {
	switch name {
	case "always_on":
		return trace.AlwaysSample()
	case "always_off":
		return trace.NeverSample()
	case "traceidratio":
		return trace.TraceIDRatioBased(samplerRatio(arg))
	case "parentbased_always_off":
		return trace.ParentBased(trace.NeverSample())
	case "parentbased_traceidratio":
		return trace.ParentBased(trace.TraceIDRatioBased(samplerRatio(arg)))
	}
	return trace.ParentBased(trace.AlwaysSample())
}

// samplerRatio parses a sampler argument, defaulting to 1 when it is missing or out of range.
func samplerRatio(arg string) float64 {
	ratio, err := strconv.ParseFloat(arg, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 1.0
	}
	return ratio
}
