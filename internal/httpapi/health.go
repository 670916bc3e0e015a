package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checker reports whether a dependency is reachable
type Checker func(ctx context.Context) error

// RegisterHealthCheck registers /health; it fails when any checker fails
func RegisterHealthCheck(router *mux.Router, serviceName string, checks map[string]Checker) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failed := make(map[string]string)
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			RespondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Dependency unavailable",
				Data:    failed,
			})
			return
		}

		RespondOK(w, http.StatusOK, serviceName+" is healthy", nil)
	}).Methods("GET")
}

// RegisterMetrics exposes the Prometheus registry at /metrics
func RegisterMetrics(router *mux.Router) {
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}
