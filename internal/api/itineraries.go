package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"itinopt/internal/metrics"
	"itinopt/internal/model"
	"itinopt/internal/opt"
)

// batchParallelism bounds concurrent engines of one batch request.
const batchParallelism = 4

// ItinerariesHandler handles POST /v1/itineraries
func (s *Server) ItinerariesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tenant := tenantFrom(r.Context())
	if !s.allow(w, r, tenant) {
		return
	}
	var req model.ItineraryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateStruct(req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid itinerary request", err.Error(), r.URL.Path)
		return
	}
	resp, err := s.runPlan(r.Context(), tenant, req)
	if err != nil {
		writeError(w, r, "Planning failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// BatchItinerariesHandler handles POST /v1/itineraries/batch. Every request
// is planned with its own engine; one failing item does not fail the batch.
func (s *Server) BatchItinerariesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tenant := tenantFrom(r.Context())
	if !s.allow(w, r, tenant) {
		return
	}
	var req model.BatchItineraryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateStruct(req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid batch request", err.Error(), r.URL.Path)
		return
	}

	items := make([]model.BatchItem, len(req.Requests))
	g, gctx := errgroup.WithContext(r.Context())
	g.SetLimit(batchParallelism)
	for i, in := range req.Requests {
		g.Go(func() error {
			items[i].Index = i
			resp, err := s.runPlan(gctx, tenant, in)
			if err != nil {
				items[i].Error = err.Error()
				return nil
			}
			items[i].Result = &resp
			return nil
		})
	}
	_ = g.Wait()
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) allow(w http.ResponseWriter, r *http.Request, tenant string) bool {
	if s.limiter.Allow(tenant) {
		return true
	}
	metrics.RateLimited.Inc()
	w.Header().Set("Retry-After", "1")
	writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "planning rate limit exceeded for tenant", r.URL.Path)
	return false
}

// runPlan resolves, solves and records one itinerary request.
func (s *Server) runPlan(ctx context.Context, tenant string, in model.ItineraryRequest) (model.ItineraryResponse, error) {
	req, err := s.buildRequest(ctx, tenant, in)
	if err != nil {
		return model.ItineraryResponse{}, err
	}
	if err := opt.Validate(req); err != nil {
		return model.ItineraryResponse{}, err
	}

	planID := uuid.NewString()
	datasetKey := in.DatasetID
	if datasetKey == "" {
		datasetKey = inlineTopic
	}
	topic := topicFor(tenant, in.DatasetID)
	log := s.Log.With().Str("tenant", tenant).Str("plan_id", planID).Str("dataset", datasetKey).Logger()

	metrics.PlanAttractions.Observe(float64(len(req.Attractions)))
	s.publish(ctx, tenant, topic, Event{Type: EventPlanStarted, Data: map[string]any{
		"planId": planID, "datasetId": in.DatasetID, "attractions": len(req.Attractions), "days": req.Days,
	}})

	res, err := s.Planner.Plan(ctx, req)
	if err != nil {
		metrics.PlanRuns.WithLabelValues("ERROR").Inc()
		s.publish(ctx, tenant, topic, Event{Type: EventPlanFailed, Data: map[string]any{"planId": planID, "error": err.Error()}})
		log.Error().Err(err).Msg("planning failed")
		return model.ItineraryResponse{}, err
	}

	status := res.Status.String()
	metrics.PlanRuns.WithLabelValues(status).Inc()
	metrics.PlanSolveSeconds.WithLabelValues(status).Observe(res.SolveTime.Seconds())
	stats := opt.StatsFor(planID, req, res)
	s.runs.record(tenant, datasetKey, stats)
	if err := s.Store.SavePlanMetrics(ctx, model.PlanMetric{
		TenantID:        tenant,
		DatasetID:       datasetKey,
		PlanID:          planID,
		Status:          status,
		Days:            stats.Days,
		Attractions:     stats.Attractions,
		VisitedCount:    stats.VisitedCount,
		TotalFun:        stats.TotalFun,
		TotalCost:       stats.TotalCost,
		TotalDistanceKm: stats.TotalDistanceKm,
		SolveTimeMs:     stats.SolveTime.Milliseconds(),
	}); err != nil {
		log.Warn().Err(err).Msg("save plan metrics failed")
	}

	evt := EventPlanCompleted
	if !res.HasItinerary() {
		evt = EventPlanInfeasible
	}
	s.publish(ctx, tenant, topic, Event{Type: evt, Data: map[string]any{
		"planId": planID, "status": status, "visited": res.VisitedCount,
		"totalFun": res.TotalFun, "totalCost": res.TotalCost,
	}})

	return model.ItineraryResponse{
		PlanID:          planID,
		DatasetID:       in.DatasetID,
		Status:          status,
		Itinerary:       res.Itinerary,
		Segments:        res.Segments,
		TotalCost:       res.TotalCost,
		TotalFun:        res.TotalFun,
		TotalDistanceKm: res.TotalDistanceKm,
		EntryCost:       res.EntryCost,
		TravelCost:      res.TravelCost,
		SolveTimeMs:     res.SolveTime.Milliseconds(),
	}, nil
}
