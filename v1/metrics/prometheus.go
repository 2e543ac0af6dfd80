// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RuntimeStats is the subset of runtime state exported to Prometheus. The
// heap implements this interface.
type RuntimeStats interface {
	ArenaBytes() uint64
	ArenaCapacity() uint64
	CacheEntries() uint64
}

// Collector exposes runtime statistics and evaluation counters as Prometheus
// metrics.
type Collector struct {
	stats   RuntimeStats
	metrics Metrics

	arenaBytes    *prometheus.Desc
	arenaCapacity *prometheus.Desc
	cacheEntries  *prometheus.Desc
	counterDesc   *prometheus.Desc
}

// NewCollector creates a Prometheus collector over the given runtime stats and
// metrics registry. Either argument may be nil.
func NewCollector(stats RuntimeStats, m Metrics) *Collector {
	return &Collector{
		stats:   stats,
		metrics: m,
		arenaBytes: prometheus.NewDesc(
			"reflow_arena_bytes",
			"Number of bytes allocated in the term arena.",
			nil, nil),
		arenaCapacity: prometheus.NewDesc(
			"reflow_arena_capacity_bytes",
			"Capacity of the term arena in bytes.",
			nil, nil),
		cacheEntries: prometheus.NewDesc(
			"reflow_cache_entries",
			"Number of live entries in the memoization cache.",
			nil, nil),
		counterDesc: prometheus.NewDesc(
			"reflow_eval_counter",
			"Evaluation counters keyed by name.",
			[]string{"name"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.arenaBytes
	ch <- c.arenaCapacity
	ch <- c.cacheEntries
	ch <- c.counterDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.stats != nil {
		ch <- prometheus.MustNewConstMetric(c.arenaBytes, prometheus.GaugeValue, float64(c.stats.ArenaBytes()))
		ch <- prometheus.MustNewConstMetric(c.arenaCapacity, prometheus.GaugeValue, float64(c.stats.ArenaCapacity()))
		ch <- prometheus.MustNewConstMetric(c.cacheEntries, prometheus.GaugeValue, float64(c.stats.CacheEntries()))
	}
	if c.metrics != nil {
		for name, v := range c.metrics.All() {
			n, ok := v.(uint64)
			if !ok {
				continue
			}
			ch <- prometheus.MustNewConstMetric(c.counterDesc, prometheus.CounterValue, float64(n), name)
		}
	}
}
