package checkin

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkin_scans_total",
		Help: "Raw scans accepted into the processing queue.",
	})
	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkin_outcomes_total",
		Help: "Processed scan outcomes by display classification.",
	}, []string{"classification"})
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "checkin_queue_depth",
		Help: "Scans waiting behind the in-flight item.",
	})
)
