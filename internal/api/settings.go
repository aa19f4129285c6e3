package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"itinopt/internal/config"
	"itinopt/internal/model"
	"itinopt/internal/opt"
)

// optimizerSettings is the tenant-overridable part of a planning request.
// Its json names are the keys accepted by the admin config endpoint.
type optimizerSettings struct {
	Days             int                `json:"days" validate:"gte=1,lte=30"`
	BudgetPerDay     float64            `json:"budgetPerDay" validate:"gt=0"`
	TimePerDay       float64            `json:"timePerDay" validate:"gt=0,lte=24"`
	AvgSpeedKmh      float64            `json:"avgSpeedKmh" validate:"gt=0"`
	TravelCostPerKm  float64            `json:"travelCostPerKm" validate:"gte=0"`
	Alpha            float64            `json:"alpha" validate:"gte=0"`
	TimeLimitSeconds int                `json:"timeLimitSeconds" validate:"gte=1"`
	CategoryWeights  map[string]float64 `json:"categoryWeights" validate:"dive,gte=0"`
}

func settingsFromConfig(o config.Optimizer) optimizerSettings {
	weights := make(map[string]float64, len(o.CategoryWeights))
	for k, v := range o.CategoryWeights {
		weights[strings.ToLower(k)] = v
	}
	return optimizerSettings{
		Days:             o.Days,
		BudgetPerDay:     o.BudgetPerDay,
		TimePerDay:       o.TimePerDay,
		AvgSpeedKmh:      o.AvgSpeedKmh,
		TravelCostPerKm:  o.TravelCostPerKm,
		Alpha:            o.Alpha,
		TimeLimitSeconds: o.TimeLimitSeconds,
		CategoryWeights:  weights,
	}
}

// overlay decodes a stored tenant config on top of st. Unknown keys are an
// error; categoryWeights entries are merged key by key.
func (st *optimizerSettings) overlay(cfg map[string]any) error {
	if len(cfg) == 0 {
		return nil
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(st); err != nil {
		return fmt.Errorf("optimizer config: %w", err)
	}
	return nil
}

func (st optimizerSettings) asMap() map[string]any {
	b, _ := json.Marshal(st)
	out := map[string]any{}
	_ = json.Unmarshal(b, &out)
	return out
}

// tenantSettings merges the tenant's stored config over the process defaults.
func (s *Server) tenantSettings(ctx context.Context, tenant string) (optimizerSettings, error) {
	st := settingsFromConfig(s.Config.Optimizer)
	cfg, err := s.Store.GetOptimizerConfig(ctx, tenant)
	if err != nil {
		return st, err
	}
	if err := st.overlay(cfg); err != nil {
		return st, err
	}
	return st, nil
}

// buildRequest resolves the attractions of in and fills every parameter it
// leaves unset from the tenant settings.
func (s *Server) buildRequest(ctx context.Context, tenant string, in model.ItineraryRequest) (opt.Request, error) {
	st, err := s.tenantSettings(ctx, tenant)
	if err != nil {
		return opt.Request{}, err
	}

	var attrs []model.AttractionIn
	var dist [][]float64
	switch {
	case in.DatasetID != "" && len(in.Attractions) > 0:
		return opt.Request{}, &opt.ConfigurationError{Field: "datasetId", Reason: "datasetId and inline attractions are mutually exclusive"}
	case in.DatasetID != "":
		ds, err := s.Store.GetDataset(ctx, tenant, in.DatasetID)
		if err != nil {
			return opt.Request{}, fmt.Errorf("dataset %s: %w", in.DatasetID, err)
		}
		attrs, dist = ds.Attractions, ds.Distances
	case len(in.Attractions) > 0:
		attrs, dist = in.Attractions, in.Distances
	default:
		return opt.Request{}, &opt.ConfigurationError{Field: "attractions", Reason: "either datasetId or attractions is required"}
	}

	if in.Days > 0 {
		st.Days = in.Days
	}
	if in.BudgetPerDay > 0 {
		st.BudgetPerDay = in.BudgetPerDay
	}
	if in.TimePerDay > 0 {
		st.TimePerDay = in.TimePerDay
	}
	if in.AvgSpeedKmh > 0 {
		st.AvgSpeedKmh = in.AvgSpeedKmh
	}
	if in.TravelCostPerKm != nil {
		st.TravelCostPerKm = *in.TravelCostPerKm
	}
	if in.Alpha != nil {
		st.Alpha = *in.Alpha
	}
	if in.TimeLimitSeconds > 0 {
		st.TimeLimitSeconds = in.TimeLimitSeconds
	}
	if ceiling := s.Config.Optimizer.MaxTimeLimitSeconds; ceiling > 0 && st.TimeLimitSeconds > ceiling {
		st.TimeLimitSeconds = ceiling
	}
	weights := opt.CategoryWeights{}
	for k, v := range st.CategoryWeights {
		weights[k] = v
	}
	for k, v := range in.CategoryWeights {
		weights[strings.ToLower(k)] = v
	}

	return opt.Request{
		Attractions:      toAttractions(attrs),
		Distances:        dist,
		Days:             st.Days,
		BudgetPerDay:     st.BudgetPerDay,
		TimePerDay:       st.TimePerDay,
		CategoryWeights:  weights,
		AvgSpeedKmh:      st.AvgSpeedKmh,
		TravelCostPerKm:  st.TravelCostPerKm,
		Alpha:            st.Alpha,
		TimeLimitSeconds: st.TimeLimitSeconds,
	}, nil
}

func toAttractions(in []model.AttractionIn) []opt.Attraction {
	out := make([]opt.Attraction, len(in))
	for i, a := range in {
		out[i] = opt.Attraction{
			Name:      a.Name,
			Category:  strings.ToLower(a.Category),
			AvgTimeHr: a.AvgTimeHr,
			EntryFee:  a.EntryFee,
			FunScore:  a.FunScore,
		}
		if a.Location != nil {
			out[i].Lat, out[i].Lng = a.Location.Lat, a.Location.Lng
		}
	}
	return out
}

// validateDataset applies the core input rules to a dataset so that a
// stored dataset is always plannable with the default parameters.
func validateDataset(in model.DatasetIn) error {
	if err := validateStruct(in); err != nil {
		return &opt.ConfigurationError{Field: "dataset", Reason: err.Error()}
	}
	req := opt.DefaultRequest()
	req.Attractions = toAttractions(in.Attractions)
	req.Distances = in.Distances
	return opt.Validate(req)
}
