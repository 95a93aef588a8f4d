// Package tracing wraps OpenTelemetry so engine components can open spans
// without depending on the upstream packages directly. Without Init spans
// are no-ops.
package tracing
