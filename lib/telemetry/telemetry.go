// Package telemetry wires up the OpenTelemetry SDK for the
// harvester binary and its tests.
package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Setup installs a tracer provider tagged with the service name
// and returns its shutdown function. No exporter is registered by
// default; spans still propagate context and error status.
func Setup(serviceName string) (func(context.Context) error, error) {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithResource(r))
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

var setupTestEnvironments = map[string]bool{}

// sets up telemetry in a testing environment, ensuring that it
// isn't set up more than once per service name
func SetupForTesting(t testing.TB, serviceName string) func() {
	if setupTestEnvironments[serviceName] {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	shutdown, err := Setup(serviceName)
	if err != nil {
		t.Fatal(err)
	}
	return func() {
		err := shutdown(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	}
}
