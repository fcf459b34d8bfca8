// Package metrics exposes Prometheus counters for the monitor and finder
// flows, scraped via the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agri",
			Name:      "landscape_fetch_total",
			Help:      "Monitoring API fetches by outcome.",
		},
		[]string{"outcome"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "agri",
			Name:      "landscape_fetch_duration_seconds",
			Help:      "End-to-end duration of monitoring API fetches.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	CellLookups = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agri",
			Name:      "cell_lookups_total",
			Help:      "Total lat/lng to S2 cell conversions served.",
		},
	)
)

// Fetch outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeConfig   = "config_error"
	OutcomeUpstream = "upstream_error"
	OutcomeData     = "data_error"
)
