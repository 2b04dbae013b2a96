// Package otel provides OpenTelemetry metric bindings for engine counters.
//
// [NewExporter] registers Int64ObservableCounter instruments for each engine
// metric; a single callback reads the engine's metrics snapshot on each
// collection cycle. Callers supply the Meter and own the MeterProvider.
package otel
