package resolver

import "github.com/prometheus/client_golang/prometheus"

var RoundCount = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "dglocator",
	Subsystem: "resolver",
	Name:      "rounds",
})

var ResolutionCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dglocator",
	Subsystem: "resolver",
	Name:      "resolutions",
}, []string{"outcome"})

// Collectors returns the resolver metrics for registration
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{RoundCount, ResolutionCount}
}
