// Package prometheus exposes goSession metrics through the Prometheus client.
//
// [NewPrometheusExporter] wraps a [goSession.Manager] in a
// [prometheus.Collector]. Counters are named gosession_*_total; the single
// histogram is gosession_identity_latency_seconds. [PrometheusExporter.Handler]
// serves a private registry, so nothing lands in the default registry unless
// the caller registers the exporter there.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry on its own.
//   - Mutate manager state.
package prometheus
