// Package observe provides telemetry for cache operations: a minimal
// structured JSON logger, OpenTelemetry metrics and tracing setup, and
// a middleware that instruments loader executions.
package observe
