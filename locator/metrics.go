package locator

import "github.com/prometheus/client_golang/prometheus"

var LocateCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dglocator",
	Subsystem: "locator",
	Name:      "locate",
}, []string{"outcome"})

var HitRing = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "dglocator",
	Subsystem: "locator",
	Name:      "hit_ring",
	Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
})

var RebuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "dglocator",
	Subsystem: "locator",
	Name:      "rebuild_duration_seconds",
	Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
})

var GridSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "dglocator",
	Subsystem: "locator",
	Name:      "grid_size",
}, []string{"quantity"})

const (
	outcomeHit         = "hit"
	outcomeMiss        = "miss"
	outcomeOutOfBounds = "out_of_bounds"
	outcomeCached      = "cached"
)

// Collectors returns the locator metrics for registration
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{LocateCount, HitRing, RebuildDuration, GridSize}
}
