package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authcore "github.com/dverkh/authcore"
	"github.com/dverkh/authcore/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() authcore.MetricsSnapshot
	AuditDropped() uint64
}

// Collector is a [prometheus.Collector] over an engine's counter snapshot.
// Every scrape reads a fresh snapshot, so the collector holds no state of
// its own and one engine can back any number of registries.
type Collector struct {
	source       metricsSource
	descs        map[authcore.MetricID]*prometheus.Desc
	droppedDesc  *prometheus.Desc
	orderedDescs []*prometheus.Desc
}

// NewCollector creates a collector reading from the given engine.
func NewCollector(engine *authcore.Engine) *Collector {
	return NewCollectorFromSource(engine)
}

// NewCollectorFromSource creates a collector from any snapshot source.
func NewCollectorFromSource(source metricsSource) *Collector {
	c := &Collector{
		source: source,
		descs:  make(map[authcore.MetricID]*prometheus.Desc, len(internaldefs.CounterDefs)),
		droppedDesc: prometheus.NewDesc(
			internaldefs.AuditDroppedName,
			internaldefs.AuditDroppedHelp,
			nil, nil,
		),
	}
	for _, def := range internaldefs.CounterDefs {
		desc := prometheus.NewDesc(def.Name, def.Help, nil, nil)
		c.descs[def.ID] = desc
		c.orderedDescs = append(c.orderedDescs, desc)
	}
	return c
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range c.orderedDescs {
		ch <- desc
	}
	ch <- c.droppedDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.source == nil {
		return
	}

	snapshot := c.source.MetricsSnapshot()
	for _, def := range internaldefs.CounterDefs {
		ch <- prometheus.MustNewConstMetric(
			c.descs[def.ID],
			prometheus.CounterValue,
			float64(snapshot.Counters[def.ID]),
		)
	}
	ch <- prometheus.MustNewConstMetric(
		c.droppedDesc,
		prometheus.CounterValue,
		float64(c.source.AuditDropped()),
	)
}

// Handler registers the collector in a private registry and returns an
// http.Handler serving it. Callers who want their own registry register the
// [Collector] directly instead.
func Handler(engine *authcore.Engine) (http.Handler, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(NewCollector(engine)); err != nil {
		return nil, err
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}
