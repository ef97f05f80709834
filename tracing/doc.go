// Package tracing wraps OpenTelemetry so that the scheduler can open spans
// per tick and per dispatch without importing the upstream packages
// directly. When no provider is installed spans are no-ops.
package tracing
