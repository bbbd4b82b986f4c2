// Package metrics defines the Prometheus collectors of the balancing engine.
// Collectors are not registered by default: programs register those they
// use, for example via prometheus.MustRegister(metrics.BallastCollectors()...).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Keys for discovery outcomes.
const (
	Full    = "full"
	Refresh = "refresh"
	Aborted = "aborted"
	Skipped = "skipped"
)

// Collectors for the scheduler and balancer.
var (
	CyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ballast_cycles_total",
		Help: "Cumulative number of scheduler cycles.",
	})
	DiscoveryTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ballast_discovery_total",
		Help: "Cumulative number of node synchronizations, by outcome.",
	}, []string{"outcome"})
	Nodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ballast_nodes",
		Help: "Number of nodes of the current snapshot.",
	})
	Networks = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ballast_networks",
		Help: "Number of networks formed by the last cycle.",
	})
	StackMovesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ballast_stack_moves_total",
		Help: "Cumulative number of item stack transfers.",
	})
	VolumeMovedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ballast_volume_moved_cubic_meters_total",
		Help: "Cumulative volume of items moved between nodes.",
	})
	PriorityMovesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ballast_priority_moves_total",
		Help: "Cumulative number of priority slot relocations.",
	})
	InvalidTransfersTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ballast_invalid_transfers_total",
		Help: "Cumulative number of balancing passes aborted by a negative transfer amount.",
	})
	MissingCatalogTypes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ballast_missing_catalog_types",
		Help: "Number of item types observed by the last cycle which are absent from the catalog.",
	})
	CycleBudgetUsed = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ballast_cycle_budget_used_ratio",
		Help:    "Fraction of the per-cycle compute budget consumed by a cycle.",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	})
)

// BallastCollectors returns all collectors of the engine.
func BallastCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		CyclesTotal,
		DiscoveryTotal,
		Nodes,
		Networks,
		StackMovesTotal,
		VolumeMovedTotal,
		PriorityMovesTotal,
		InvalidTransfersTotal,
		MissingCatalogTypes,
		CycleBudgetUsed,
	}
}
