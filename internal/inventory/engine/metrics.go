package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	commitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockroom_engine_commits_total",
			Help: "Total number of stock adjustment commits by result",
		},
		[]string{"result"},
	)

	commitAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockroom_engine_commit_attempts",
			Help:    "Conditional writes needed per successful commit",
			Buckets: []float64{1, 2, 3, 5, 8},
		},
	)

	notificationsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockroom_engine_notifications_applied_total",
			Help: "Total number of change notifications applied by kind",
		},
		[]string{"kind"},
	)

	resyncsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stockroom_engine_resyncs_total",
			Help: "Total number of full resynchronisations after a lagged subscription",
		},
	)

	trackedItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockroom_engine_tracked_items",
			Help: "Items currently tracked across all engines",
		},
	)
)

func init() {
	prometheus.MustRegister(commitsTotal)
	prometheus.MustRegister(commitAttempts)
	prometheus.MustRegister(notificationsApplied)
	prometheus.MustRegister(resyncsTotal)
	prometheus.MustRegister(trackedItems)
}

func commitResult(err error) string {
	if err == nil {
		return "success"
	}
	return errorLabel(err)
}
