// Package otel publishes goAccount counters and the login latency histogram
// as OpenTelemetry observable instruments.
//
// Each counter becomes an Int64ObservableCounter. The histogram becomes one
// Int64ObservableGauge per cumulative bucket plus a count gauge. A single
// callback reads [goAccount.Manager.MetricsSnapshot] per collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate Manager state.
package otel
