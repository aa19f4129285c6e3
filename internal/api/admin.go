package api

import (
	"net/http"
	"strconv"
)

// OptimizerConfigHandler returns the effective planning defaults of the
// calling tenant.
func (s *Server) OptimizerConfigHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	st, err := s.tenantSettings(r.Context(), tenantFrom(r.Context()))
	if err != nil {
		writeError(w, r, "Load optimizer config failed", err)
		return
	}
	defaults := st.asMap()
	defaults["maxTimeLimitSeconds"] = s.Config.Optimizer.MaxTimeLimitSeconds
	writeJSON(w, http.StatusOK, map[string]any{"defaults": defaults})
}

// AdminOptimizerConfigHandler gets or replaces the tenant overrides.
func (s *Server) AdminOptimizerConfigHandler(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r.Context())
	switch r.Method {
	case http.MethodGet:
		cfg, err := s.Store.GetOptimizerConfig(r.Context(), tenant)
		if err != nil {
			writeError(w, r, "Load optimizer config failed", err)
			return
		}
		if cfg == nil {
			cfg = map[string]any{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"config": cfg})
	case http.MethodPut:
		var body struct {
			Config map[string]any `json:"config"`
		}
		if err := decodeJSON(w, r, &body); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if body.Config == nil {
			body.Config = map[string]any{}
		}
		st := settingsFromConfig(s.Config.Optimizer)
		if err := st.overlay(body.Config); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid optimizer config", err.Error(), r.URL.Path)
			return
		}
		if err := validateStruct(st); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid optimizer config", err.Error(), r.URL.Path)
			return
		}
		if err := s.Store.SaveOptimizerConfig(r.Context(), tenant, body.Config); err != nil {
			writeError(w, r, "Save optimizer config failed", err)
			return
		}
		s.Log.Info().Str("tenant", tenant).Int("keys", len(body.Config)).Msg("optimizer config updated")
		writeJSON(w, http.StatusOK, map[string]any{"config": body.Config})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// PlanMetricsHandler handles GET /v1/admin/plan-metrics?datasetId=&limit=.
// Stored runs are preferred; the in-process latest-per-status snapshot is
// the fallback when the store has none.
func (s *Server) PlanMetricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tenant := tenantFrom(r.Context())
	datasetID := r.URL.Query().Get("datasetId")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	items, err := s.Store.ListPlanMetrics(r.Context(), tenant, datasetID, limit)
	if err == nil && len(items) > 0 {
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "source": "store"})
		return
	}
	if err != nil {
		s.Log.Warn().Err(err).Msg("list plan metrics failed, using in-process stats")
	}
	key := datasetID
	if key == "" {
		key = inlineTopic
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": s.runs.latest(tenant, key), "source": "memory"})
}
