package metrics

import (
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lixenwraith/reel-cortex/status"
)

const namespace = "reel_cortex"

// Label values for hint outcomes
const (
	OutcomeRemote   = "remote"
	OutcomeCached   = "cached"
	OutcomeFallback = "fallback"
	OutcomeLocal    = "local"
	OutcomeError    = "error"
)

// HintLatencyBuckets covers the resolve timeout with headroom
var HintLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 1.5, 2, 2.5, 3, 5}

// Metrics holds the game counters on a private registry
type Metrics struct {
	Registry *prometheus.Registry

	SpinsTotal    prometheus.Counter
	ResolvedTotal prometheus.Counter
	NudgesTotal   prometheus.Counter
	ResolveErrors prometheus.Counter
	HintsTotal    *prometheus.CounterVec
	HintLatency   prometheus.Histogram
	SymbolsAdded  prometheus.Counter
	LandedSymbols *prometheus.CounterVec
	CatalogSize   prometheus.Gauge
	Score         prometheus.Gauge
}

// New registers every game metric plus the status registry on a fresh registry
func New(reg *status.Registry) *Metrics {
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewGoCollector())
	f := promauto.With(r)

	m := &Metrics{
		Registry: r,
		SpinsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "spins_total",
			Help: "Spins launched.",
		}),
		ResolvedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "spins_resolved_total",
			Help: "Spins that reached the single-fire completion.",
		}),
		NudgesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "nudges_total",
			Help: "Manual nudges applied between spins.",
		}),
		ResolveErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "resolve_errors_total",
			Help: "Completion callbacks that returned an error.",
		}),
		HintsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "hints_total",
			Help: "Hints delivered by outcome.",
		}, []string{"outcome"}),
		HintLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "hint_latency_seconds",
			Help:    "Time from completion to hint delivery.",
			Buckets: HintLatencyBuckets,
		}),
		SymbolsAdded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "symbols_added_total",
			Help: "Symbols appended to the catalog by hints.",
		}),
		LandedSymbols: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "landed_symbols_total",
			Help: "Symbols landed on the payline.",
		}, []string{"symbol"}),
		CatalogSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "catalog_symbols",
			Help: "Symbols on the strip.",
		}),
		Score: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "score",
			Help: "Current score.",
		}),
	}

	if reg != nil {
		r.MustRegister(NewStatusCollector(reg))
	}
	return m
}

// StatusCollector exposes the live status registry as gauges on scrape
type StatusCollector struct {
	reg  *status.Registry
	desc *prometheus.Desc
}

// NewStatusCollector wraps reg
func NewStatusCollector(reg *status.Registry) *StatusCollector {
	return &StatusCollector{
		reg: reg,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "status", "value"),
			"Live game status values keyed by name.",
			[]string{"key"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *StatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector; string values are skipped
func (c *StatusCollector) Collect(ch chan<- prometheus.Metric) {
	c.reg.Ints.Range(func(k string, v *atomic.Int64) {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(v.Load()), k)
	})
	c.reg.Floats.Range(func(k string, v *status.AtomicFloat) {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, v.Get(), k)
	})
	c.reg.Bools.Range(func(k string, v *atomic.Bool) {
		val := 0.0
		if v.Load() {
			val = 1
		}
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, val, k)
	})
}

// SymbolLabel keeps label cardinality bounded to catalog-sized ids
func SymbolLabel(id string) string {
	id = strings.ToUpper(id)
	if len(id) > 32 {
		return id[:32]
	}
	return id
}
