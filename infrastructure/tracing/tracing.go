package tracing

import (
	"context"
	"runtime"
	"time"

	"github.com/emberchat/ember/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultJaegerEndpoint = "http://localhost:14268/api/traces"
	defaultServiceName    = "ember-api"
	tracerName            = "ember"
)

// Init installs a Jaeger-exporting tracer provider and returns both the
// provider (for shutdown) and the tracer the repositories annotate with.
// When tracing is disabled a no-op tracer is returned.
func Init(cfg *config.Config) (*sdktrace.TracerProvider, trace.Tracer, error) {
	if !cfg.Jaeger.Enabled {
		return nil, otel.GetTracerProvider().Tracer(tracerName), nil
	}

	serviceName := cfg.Jaeger.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	endpoint := cfg.Jaeger.Endpoint
	if endpoint == "" {
		endpoint = defaultJaegerEndpoint
	}
	serviceVersion := cfg.Jaeger.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = "unknown"
	}

	exp, err := jaeger.New(
		jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)),
	)
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
			attribute.String("go.version", runtime.Version()),
			attribute.String("os", runtime.GOOS),
			attribute.String("arch", runtime.GOARCH),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp, tp.Tracer(tracerName), nil
}

// Shutdown flushes pending spans with a bounded deadline.
func Shutdown(tp *sdktrace.TracerProvider) {
	if tp == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = tp.Shutdown(ctx)
}
