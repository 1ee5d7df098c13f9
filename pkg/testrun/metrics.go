package testrun

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// engineMetrics counts the engine's row traffic for one run. With a nil
// registerer the counters exist but are registered nowhere.
type engineMetrics struct {
	rowsProcessed prometheus.Counter
	rowsFailed    prometheus.Counter
	entriesPushed prometheus.Counter
	pollCycles    prometheus.Counter
}

func newEngineMetrics(registerer prometheus.Registerer) *engineMetrics {
	factory := promauto.With(registerer)
	return &engineMetrics{
		rowsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "benchline",
			Subsystem: "testrun",
			Name:      "rows_processed_total",
			Help:      "Rows whose pipeline completed and whose entry was pushed.",
		}),
		rowsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "benchline",
			Subsystem: "testrun",
			Name:      "rows_failed_total",
			Help:      "Rows whose pipeline failed locally and was isolated.",
		}),
		entriesPushed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "benchline",
			Subsystem: "testrun",
			Name:      "entries_pushed_total",
			Help:      "Entries accepted by the hosted platform.",
		}),
		pollCycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "benchline",
			Subsystem: "testrun",
			Name:      "poll_cycles_total",
			Help:      "Status polls issued while waiting for completion.",
		}),
	}
}
