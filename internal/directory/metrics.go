package directory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkin_directory_cache_hits_total",
		Help: "Resolutions served from the session cache.",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkin_directory_cache_misses_total",
		Help: "Resolutions that required a network lookup.",
	})
	lookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkin_directory_lookup_seconds",
		Help:    "Directory lookup latency.",
		Buckets: prometheus.DefBuckets,
	})
)
