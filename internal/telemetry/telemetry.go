package telemetry

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const endpointEnvVar = "OTEL_EXPORTER_OTLP_ENDPOINT"

type Config struct {
	ServiceName string
	Environment string
	// Endpoint defaults to OTEL_EXPORTER_OTLP_ENDPOINT.
	Endpoint string
	Logger   *slog.Logger
}

type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init installs the global trace provider and W3C propagators. Without an
// endpoint tracing stays off and the returned shutdown is a noop.
func Init(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = strings.TrimSpace(os.Getenv(endpointEnvVar))
	}
	if endpoint == "" {
		logger.Debug("tracing disabled", slog.String("reason", "no otlp endpoint"))
		return noopShutdown, nil
	}

	host, insecure := exporterHost(endpoint)
	options := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(host),
		otlptracehttp.WithTimeout(3 * time.Second),
		otlptracehttp.WithRetry(otlptracehttp.RetryConfig{Enabled: false}),
	}
	if insecure {
		options = append(options, otlptracehttp.WithInsecure())
	}

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exporter, err := otlptracehttp.New(initCtx, options...)
	if err != nil {
		// The service runs untraced rather than refusing to start.
		logger.Warn("otlp exporter unavailable", slog.String("endpoint", host), slog.String("error", err.Error()))
		return noopShutdown, nil
	}

	attrs := []resource.Option{resource.WithAttributes(semconv.ServiceName(cfg.ServiceName))}
	if env := strings.TrimSpace(cfg.Environment); env != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.DeploymentEnvironment(env)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Info("tracing enabled", slog.String("endpoint", host), slog.String("service", cfg.ServiceName))

	return tp.Shutdown, nil
}

// exporterHost strips the scheme from endpoint. Plain http and bare host:port
// values are exported without TLS.
func exporterHost(endpoint string) (string, bool) {
	if !strings.Contains(endpoint, "://") {
		return strings.TrimRight(endpoint, "/"), true
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" {
		return strings.TrimRight(endpoint, "/"), true
	}
	return parsed.Host, !strings.EqualFold(parsed.Scheme, "https")
}
