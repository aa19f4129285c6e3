package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"itinopt/internal/metrics"
)

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler pings the store and broker when they support it.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	type pinger interface{ Ping(ctx context.Context) error }
	for name, dep := range map[string]any{"store": s.Store, "broker": s.Broker} {
		p, ok := dep.(pinger)
		if !ok {
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", name+": "+err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// MetricsHandler exposes the dedicated Prometheus registry.
func (s *Server) MetricsHandler() http.Handler {
	metrics.RegisterDefault()
	return promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})
}
