package api

import "net/http"

// Routes returns the service handler with access logging applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Datasets
	mux.HandleFunc("/v1/datasets", s.authenticated(s.DatasetsHandler))
	mux.HandleFunc("/v1/datasets/", s.authenticated(s.DatasetByIDHandler)) // includes /import

	// Planning
	mux.HandleFunc("/v1/itineraries", s.authenticated(s.ItinerariesHandler))
	mux.HandleFunc("/v1/itineraries/batch", s.authenticated(s.BatchItinerariesHandler))
	mux.HandleFunc("/v1/optimizer/config", s.authenticated(s.OptimizerConfigHandler))

	// Events
	mux.HandleFunc("/v1/events/stream", s.authenticated(s.EventsStreamHandler))
	mux.HandleFunc("/v1/events/ws", s.authenticated(s.EventsWSHandler))

	// Webhooks
	mux.HandleFunc("/v1/webhooks", s.adminOnly(s.WebhooksHandler))
	mux.HandleFunc("/v1/webhooks/", s.adminOnly(s.WebhookByIDHandler))

	// Admin
	mux.HandleFunc("/v1/admin/optimizer/config", s.adminOnly(s.AdminOptimizerConfigHandler))
	mux.HandleFunc("/v1/admin/plan-metrics", s.adminOnly(s.PlanMetricsHandler))

	// Ops
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.Handle("/metrics", s.MetricsHandler())
	mux.HandleFunc("/debug/info", s.adminOnly(s.DebugJSON))

	// Docs
	mux.HandleFunc("/openapi.yaml", s.OpenAPIHandler)
	mux.HandleFunc("/docs", s.DocsHandler)
	mux.HandleFunc("/console", s.ConsoleHandler)

	return logMiddleware(s.Log, mux)
}
