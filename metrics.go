package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lionel_query_duration_seconds",
			Help:    "Duration of named dashboard queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"query"},
	)

	queryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lionel_query_errors_total",
			Help: "Named dashboard queries that returned an error",
		},
		[]string{"query"},
	)

	chartBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lionel_chart_builds_total",
			Help: "Chart specifications built, by chart",
		},
		[]string{"chart"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lionel_cache_lookups_total",
			Help: "Result cache lookups by outcome (hit or miss)",
		},
		[]string{"result"},
	)
)

func observeQuery(name string, start time.Time, err error) {
	queryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		queryErrors.WithLabelValues(name).Inc()
	}
}
