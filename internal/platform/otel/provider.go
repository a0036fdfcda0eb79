// Package otel wires OpenTelemetry tracing for the web entrypoint. The gate
// reports one span per evaluation through the global tracer provider set
// here.
package otel

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/warehouse/internal/platform/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Settings controls trace export. Tracing stays off until Endpoint is set.
type Settings struct {
	Endpoint    string  `env:"OTEL_ENDPOINT"`
	Disabled    bool    `env:"OTEL_DISABLED"`
	SampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// Active reports whether spans should be exported.
func (s Settings) Active() bool {
	return !s.Disabled && strings.TrimSpace(s.Endpoint) != ""
}

// LoadSettings reads Settings from WAREHOUSE_OTEL_* variables.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := config.ParseEnv(&s); err != nil {
		return Settings{}, err
	}
	return s, s.validate()
}

func (s Settings) validate() error {
	if s.SampleRatio < 0 || s.SampleRatio > 1 {
		return fmt.Errorf("otel sample ratio %v must be within [0, 1]", s.SampleRatio)
	}
	return nil
}

func (s Settings) sampler() sdktrace.Sampler {
	if s.SampleRatio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.SampleRatio))
}

// Setup installs a global tracer provider for serviceName using settings from
// the environment. When tracing is inactive it installs nothing and returns a
// no-op shutdown. The caller defers the returned shutdown to flush spans.
func Setup(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	s, err := LoadSettings()
	if err != nil {
		return noopShutdown, err
	}
	return SetupWith(ctx, serviceName, s)
}

// SetupWith is Setup with explicit settings.
func SetupWith(ctx context.Context, serviceName string, s Settings) (func(context.Context) error, error) {
	if err := s.validate(); err != nil {
		return noopShutdown, err
	}
	if !s.Active() {
		return noopShutdown, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(strings.TrimSpace(s.Endpoint)))
	if err != nil {
		return noopShutdown, fmt.Errorf("create otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noopShutdown, fmt.Errorf("build otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(s.sampler()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

func noopShutdown(context.Context) error { return nil }
