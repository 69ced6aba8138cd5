// Package otel binds goSession metrics to an OpenTelemetry Meter.
//
// [NewOTelExporter] registers one Int64ObservableCounter per counter, one
// Int64ObservableGauge per latency bucket plus count and sum instruments, and a
// single callback that reads [goSession.Manager.MetricsSnapshot] on each
// collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate manager state.
package otel
