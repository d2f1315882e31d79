// Package prometheus exports goAccount metrics to Prometheus.
//
// [PrometheusExporter] renders the text exposition format directly and serves
// it from [PrometheusExporter.Handler]. [Collector] plugs the same series into
// a client_golang registry. Counter names are goaccount_*_total; the single
// histogram is goaccount_login_latency_seconds and appears only when latency
// histograms are enabled.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry on its own.
//   - Mutate Manager state.
package prometheus
