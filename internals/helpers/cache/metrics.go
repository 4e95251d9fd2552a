package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_cache_lookups_total",
		Help: "Cache lookups by operation and result (hit|miss)",
	}, []string{"op", "result"})

	invalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_cache_invalidations_total",
		Help: "Per-user cache invalidations",
	})

	evictedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_cache_evicted_total",
		Help: "Expired entries removed by the sweeper",
	})
)
