package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_ingest_files_total",
		Help: "Processed upload files by outcome (succeeded|failed)",
	}, []string{"status"})

	recordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_ingest_records_total",
		Help: "Attendance tuples by outcome (inserted|duplicate|low_periods|mapping_gap)",
	}, []string{"outcome"})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_ingest_retries_total",
		Help: "Ingest attempts retried after a transient database error",
	})

	fileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "attendance_ingest_file_duration_seconds",
		Help:    "Time to parse and commit one file",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)
