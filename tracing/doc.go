// Package tracing wraps OpenTelemetry so the engine can open a span per
// process and per job without depending on the SDK directly.  Until Init is
// called spans are no-ops.
package tracing
