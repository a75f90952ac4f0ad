// Package tracing wraps OpenTelemetry so that the scheduler components can
// record spans for allocations, compactions and execution-unit transitions.
// Spans are no-ops until Init or InitWithExporter installs a provider.
package tracing
