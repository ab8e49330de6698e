// Package observability wires OpenTelemetry tracing and structured logging
// for commitpulse. With no OTLP endpoint configured, tracing is a no-op
// with zero export overhead; logging always works.
package observability

import "log/slog"

// defaultShutdownTimeoutSec bounds the telemetry flush on exit.
const defaultShutdownTimeoutSec = 5

// Config controls provider initialization.
type Config struct {
	// ServiceName appears on every span and log record.
	ServiceName string

	// ServiceVersion is attached to the OTel resource when set.
	ServiceVersion string

	// OTLPEndpoint is the gRPC collector address. Empty disables export.
	OTLPEndpoint string

	// OTLPInsecure disables transport security toward the collector.
	OTLPInsecure bool

	// LogLevel is the minimum level emitted.
	LogLevel slog.Level

	// LogJSON switches the log output from text to JSON.
	LogJSON bool

	// ShutdownTimeoutSec bounds the flush on exit. Zero means the default.
	ShutdownTimeoutSec int
}
