// Package prometheus exposes engine counters as a Prometheus collector.
//
// [NewCollector] wraps an engine's metrics snapshot; [Handler] is a
// convenience that serves the collector from a private registry. Counter
// names are prefixed authcore_*_total.
package prometheus
