// Package stats exports cache engine counters as Prometheus metrics.
// Observability is not one of spec.md's listed Non-goals (those name
// persistence, replication, versioning, TTL, priority classes,
// compression, partial updates) — hit/miss/eviction counts are ambient
// telemetry, the same role they play in IvanBrykalov-shardcache and
// buchgr-bazel-remote, both of which wire prometheus/client_golang
// into a cache-shaped component.
package stats

import "github.com/prometheus/client_golang/prometheus"

// Collector holds the engine's exported counters and gauges. A nil
// *Collector is valid everywhere it's used as a method receiver below
// (all methods are nil-safe), so engines constructed without
// cache.WithStats pay no metrics overhead.
type Collector struct {
	hits            prometheus.Counter
	misses          prometheus.Counter
	detailMismatch  prometheus.Counter
	stores          prometheus.Counter
	deletes         prometheus.Counter
	rejections      prometheus.Counter
	evictions       prometheus.Counter
	reallocations   prometheus.Counter
	usedBytes       prometheus.Gauge
	entries         prometheus.Gauge
	lastActivity    prometheus.Gauge
}

// New registers a fresh set of collectors under reg, labeling them
// with name (so multiple engines in one process can be told apart).
func New(reg prometheus.Registerer, name string) *Collector {
	labels := prometheus.Labels{"cache": name}
	c := &Collector{
		hits:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "blobcache", Name: "hits_total", ConstLabels: labels}),
		misses:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "blobcache", Name: "misses_total", ConstLabels: labels}),
		detailMismatch: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "blobcache", Name: "detail_mismatches_total", ConstLabels: labels}),
		stores:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "blobcache", Name: "stores_total", ConstLabels: labels}),
		deletes:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "blobcache", Name: "deletes_total", ConstLabels: labels}),
		rejections:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "blobcache", Name: "rejections_total", ConstLabels: labels}),
		evictions:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "blobcache", Name: "evictions_total", ConstLabels: labels}),
		reallocations:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "blobcache", Name: "reallocations_total", ConstLabels: labels}),
		usedBytes:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "blobcache", Name: "used_bytes", ConstLabels: labels}),
		entries:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "blobcache", Name: "entries", ConstLabels: labels}),
		lastActivity:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "blobcache", Name: "last_activity_unix_nanos", ConstLabels: labels}),
	}
	if reg != nil {
		reg.MustRegister(c.hits, c.misses, c.detailMismatch, c.stores, c.deletes,
			c.rejections, c.evictions, c.reallocations, c.usedBytes, c.entries, c.lastActivity)
	}
	return c
}

func (c *Collector) Hit() {
	if c != nil {
		c.hits.Inc()
	}
}

func (c *Collector) Miss() {
	if c != nil {
		c.misses.Inc()
	}
}

func (c *Collector) DetailMismatch() {
	if c != nil {
		c.detailMismatch.Inc()
	}
}

func (c *Collector) Store() {
	if c != nil {
		c.stores.Inc()
	}
}

func (c *Collector) Delete() {
	if c != nil {
		c.deletes.Inc()
	}
}

func (c *Collector) Rejection() {
	if c != nil {
		c.rejections.Inc()
	}
}

func (c *Collector) Eviction() {
	if c != nil {
		c.evictions.Inc()
	}
}

func (c *Collector) Reallocation() {
	if c != nil {
		c.reallocations.Inc()
	}
}

func (c *Collector) SetUsedBytes(n int64) {
	if c != nil {
		c.usedBytes.Set(float64(n))
	}
}

func (c *Collector) SetEntries(n int) {
	if c != nil {
		c.entries.Set(float64(n))
	}
}

// SetLastActivity records the coarse timestamp (UnixNano, from
// internal/clock) of the most recent successful non-delete Store or
// Load hit. Misses, deletes and rejected stores do not update it.
func (c *Collector) SetLastActivity(nanos int64) {
	if c != nil {
		c.lastActivity.Set(float64(nanos))
	}
}
