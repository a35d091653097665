package main

import (
	"git.fiblab.net/sim/transitpath/v2/pathfinder"
	"github.com/prometheus/client_golang/prometheus"
)

// routeMetrics exposes PerformanceInfo as Prometheus series, scraped at
// /metrics, per SPEC_FULL.md's HTTP API section.
type routeMetrics struct {
	requests         *prometheus.CounterVec
	labelIterations  prometheus.Histogram
	maxProcessCount  prometheus.Histogram
	labelingMillis   prometheus.Histogram
	enumerationMillis prometheus.Histogram
}

func newRouteMetrics() *routeMetrics {
	m := &routeMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transitpath_requests_total",
			Help: "findPath requests by outcome.",
		}, []string{"outcome"}),
		labelIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transitpath_label_iterations",
			Help:    "Labeling iterations performed per request.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 16),
		}),
		maxProcessCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transitpath_max_stop_process_count",
			Help:    "Highest per-stop hyperpath process count reached per request.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		labelingMillis: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transitpath_labeling_milliseconds",
			Help:    "Wall time spent in the labeling engine per request.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 16),
		}),
		enumerationMillis: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transitpath_enumeration_milliseconds",
			Help:    "Wall time spent reconstructing or sampling a path per request.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 16),
		}),
	}
	// A later server in the same process reuses the collectors already registered.
	register := func(c prometheus.Collector) prometheus.Collector {
		if err := prometheus.Register(c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				return are.ExistingCollector
			}
			panic(err)
		}
		return c
	}
	m.requests = register(m.requests).(*prometheus.CounterVec)
	m.labelIterations = register(m.labelIterations).(prometheus.Histogram)
	m.maxProcessCount = register(m.maxProcessCount).(prometheus.Histogram)
	m.labelingMillis = register(m.labelingMillis).(prometheus.Histogram)
	m.enumerationMillis = register(m.enumerationMillis).(prometheus.Histogram)
	return m
}

func (m *routeMetrics) observe(outcome string, perf pathfinder.PerformanceInfo) {
	m.requests.WithLabelValues(outcome).Inc()
	m.labelIterations.Observe(float64(perf.LabelIterations))
	m.maxProcessCount.Observe(float64(perf.MaxProcessCount))
	m.labelingMillis.Observe(perf.LabelingMillis)
	m.enumerationMillis.Observe(perf.EnumerationMillis)
}
