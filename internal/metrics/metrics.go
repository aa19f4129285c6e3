package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// PlanRuns counts planning runs by engine status (OPTIMAL, FEASIBLE, INFEASIBLE, UNKNOWN, ERROR)
	PlanRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "itinerary_plan_runs_total", Help: "Itinerary planning runs by outcome."},
		[]string{"status"},
	)
	// PlanSolveSeconds tracks engine wall time
	PlanSolveSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "itinerary_solve_seconds", Help: "Solver wall time in seconds.", Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120}},
		[]string{"status"},
	)
	// PlanAttractions observes the problem size per run
	PlanAttractions = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "itinerary_plan_attractions", Help: "Candidate attractions per planning run.", Buckets: prometheus.LinearBuckets(5, 5, 10)},
	)
	// RateLimited counts requests rejected by the per-tenant limiter
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "http_rate_limited_total", Help: "Requests rejected by rate limiting."},
	)
	// WebhookDeliveries counts webhook outcomes (delivered, failed, dropped)
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by outcome."},
		[]string{"outcome"},
	)
)

// RegisterDefault registers collectors to the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(PlanRuns)
		Registry.MustRegister(PlanSolveSeconds)
		Registry.MustRegister(PlanAttractions)
		Registry.MustRegister(RateLimited)
		Registry.MustRegister(WebhookDeliveries)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
