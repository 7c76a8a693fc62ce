// Package otel provides OpenTelemetry instrumentation for the engine:
// HTTP middleware, metric instruments, and span helpers.
package otel

import (
	"context"
	"log/slog"
)

// ShutdownFunc is called to flush and shut down the trace provider.
type ShutdownFunc func(ctx context.Context) error

// InitTracer returns a no-op shutdown function. Exporter wiring is left to
// the deployment: the global otel providers are configured out-of-process
// (collector sidecar) or stay no-op in development.
func InitTracer(serviceName string) ShutdownFunc {
	slog.Info("otel tracer init", "service", serviceName)
	return func(_ context.Context) error {
		return nil
	}
}
