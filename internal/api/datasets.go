package api

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"itinopt/internal/integrations/csvfile"
	"itinopt/internal/model"
)

// DatasetsHandler handles POST/GET /v1/datasets
func (s *Server) DatasetsHandler(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r.Context())
	switch r.Method {
	case http.MethodPost:
		var in model.DatasetIn
		if err := decodeJSON(w, r, &in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		s.createDataset(w, r, tenant, in)
	case http.MethodGet:
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid limit", err.Error(), r.URL.Path)
				return
			}
			limit = n
		}
		items, next, err := s.Store.ListDatasets(r.Context(), tenant, cursor, limit)
		if err != nil {
			writeError(w, r, "List datasets failed", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// DatasetImportHandler handles POST /v1/datasets/import with multipart
// fields name, attractions (CSV file) and distances (CSV file).
func (s *Server) DatasetImportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid multipart form", err.Error(), r.URL.Path)
		return
	}
	af, ah, err := r.FormFile("attractions")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Missing attractions file", err.Error(), r.URL.Path)
		return
	}
	defer func() { _ = af.Close() }()
	df, _, err := r.FormFile("distances")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Missing distances file", err.Error(), r.URL.Path)
		return
	}
	defer func() { _ = df.Close() }()

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = strings.TrimSuffix(ah.Filename, filepath.Ext(ah.Filename))
	}
	ds, err := csvfile.Parse(name, af, df)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid dataset CSV", err.Error(), r.URL.Path)
		return
	}
	s.createDataset(w, r, tenantFrom(r.Context()), ds.In())
}

func (s *Server) createDataset(w http.ResponseWriter, r *http.Request, tenant string, in model.DatasetIn) {
	if err := validateDataset(in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid dataset", err.Error(), r.URL.Path)
		return
	}
	ds, err := s.Store.CreateDataset(r.Context(), tenant, in)
	if err != nil {
		writeError(w, r, "Create dataset failed", err)
		return
	}
	s.Log.Info().Str("tenant", tenant).Str("dataset_id", ds.ID).Int("attractions", len(ds.Attractions)).Msg("dataset created")
	writeJSON(w, http.StatusCreated, ds)
}

// DatasetByIDHandler handles GET/DELETE /v1/datasets/{id}
func (s *Server) DatasetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/datasets/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if id == "import" {
		s.DatasetImportHandler(w, r)
		return
	}
	tenant := tenantFrom(r.Context())
	switch r.Method {
	case http.MethodGet:
		ds, err := s.Store.GetDataset(r.Context(), tenant, id)
		if err != nil {
			writeError(w, r, "Get dataset failed", err)
			return
		}
		writeJSON(w, http.StatusOK, ds)
	case http.MethodDelete:
		if err := s.Store.DeleteDataset(r.Context(), tenant, id); err != nil {
			writeError(w, r, "Delete dataset failed", err)
			return
		}
		s.runs.forget(tenant, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
