package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splatlink_runs_total",
		Help: "SPLAT invocations by outcome (ok, timeout, exec_error, parse_error, invalid, error).",
	}, []string{"outcome"})

	metricRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splatlink_run_duration_seconds",
		Help:    "Wall-clock duration of SPLAT invocations.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	metricJobsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "splatlink_jobs_active",
		Help: "Batch jobs currently running.",
	})

	metricJobPairsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splatlink_job_pairs_total",
		Help: "Transmitter/receiver pairs processed by batch jobs.",
	})
)

// recordRun records one SPLAT invocation outcome
func recordRun(outcome string, duration time.Duration) {
	metricRunsTotal.WithLabelValues(outcome).Inc()
	metricRunDuration.Observe(duration.Seconds())
}
