package session

import "github.com/prometheus/client_golang/prometheus"

var activeSessions = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "stockroom_active_sessions",
		Help: "Number of open inventory sessions",
	},
)

func init() {
	prometheus.MustRegister(activeSessions)
}
