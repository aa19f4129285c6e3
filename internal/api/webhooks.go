package api

import (
	"net/http"
	"strings"

	"itinopt/internal/model"
)

// WebhooksHandler handles POST and GET /v1/webhooks.
func (s *Server) WebhooksHandler(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r.Context())
	switch r.Method {
	case http.MethodPost:
		var in model.WebhookIn
		if err := decodeJSON(w, r, &in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateStruct(in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid webhook", err.Error(), r.URL.Path)
			return
		}
		wh, err := s.Store.CreateWebhook(r.Context(), tenant, in)
		if err != nil {
			writeError(w, r, "Create webhook failed", err)
			return
		}
		s.Log.Info().Str("tenant", tenant).Str("webhook_id", wh.ID).Strs("events", wh.Events).Msg("webhook registered")
		writeJSON(w, http.StatusCreated, wh)
	case http.MethodGet:
		items, err := s.Store.ListWebhooks(r.Context(), tenant)
		if err != nil {
			writeError(w, r, "List webhooks failed", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// WebhookByIDHandler handles DELETE /v1/webhooks/{id}.
func (s *Server) WebhookByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/webhooks/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.Store.DeleteWebhook(r.Context(), tenantFrom(r.Context()), id); err != nil {
		writeError(w, r, "Delete webhook failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
