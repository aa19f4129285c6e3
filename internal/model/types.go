package model

import "time"

// API request/response types

type AttractionIn struct {
	Name      string    `json:"name" validate:"required"`
	Category  string    `json:"category,omitempty"`
	AvgTimeHr float64   `json:"avgTimeHr" validate:"gte=0"`
	EntryFee  float64   `json:"entryFee" validate:"gte=0"`
	FunScore  float64   `json:"funScore" validate:"gte=0"`
	Location  *GeoPoint `json:"location,omitempty"`
}

type GeoPoint struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type DatasetIn struct {
	Name        string         `json:"name" validate:"required,max=200"`
	Attractions []AttractionIn `json:"attractions" validate:"required,min=1,dive"`
	Distances   [][]float64    `json:"distances" validate:"required,square"`
}

type Dataset struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenantId"`
	Name        string         `json:"name"`
	Attractions []AttractionIn `json:"attractions"`
	Distances   [][]float64    `json:"distances"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// DatasetSummary is the list view of a dataset.
type DatasetSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Attractions int       `json:"attractions"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ItineraryRequest selects the attractions either by dataset or inline.
// Zero-valued parameters fall back to the tenant's optimizer config.
type ItineraryRequest struct {
	DatasetID        string             `json:"datasetId,omitempty"`
	Attractions      []AttractionIn     `json:"attractions,omitempty" validate:"omitempty,dive"`
	Distances        [][]float64        `json:"distances,omitempty" validate:"omitempty,square"`
	Days             int                `json:"days,omitempty" validate:"gte=0,lte=30"`
	BudgetPerDay     float64            `json:"budgetPerDay,omitempty" validate:"gte=0"`
	TimePerDay       float64            `json:"timePerDay,omitempty" validate:"gte=0,lte=24"`
	CategoryWeights  map[string]float64 `json:"categoryWeights,omitempty"`
	AvgSpeedKmh      float64            `json:"avgSpeedKmh,omitempty" validate:"gte=0"`
	TravelCostPerKm  *float64           `json:"travelCostPerKm,omitempty" validate:"omitempty,gte=0"`
	Alpha            *float64           `json:"alpha,omitempty" validate:"omitempty,gte=0"`
	TimeLimitSeconds int                `json:"timeLimitSeconds,omitempty" validate:"gte=0,lte=3600"`
}

type ItineraryResponse struct {
	PlanID          string       `json:"planId"`
	DatasetID       string       `json:"datasetId,omitempty"`
	Status          string       `json:"status"`
	Itinerary       [][]string   `json:"itinerary"`
	Segments        [][][]string `json:"segments"`
	TotalCost       float64      `json:"totalCost"`
	TotalFun        float64      `json:"totalFun"`
	TotalDistanceKm float64      `json:"totalDistanceKm"`
	EntryCost       float64      `json:"entryCost"`
	TravelCost      float64      `json:"travelCost"`
	SolveTimeMs     int64        `json:"solveTimeMs"`
}

type BatchItineraryRequest struct {
	Requests []ItineraryRequest `json:"requests" validate:"required,min=1,max=16,dive"`
}

// BatchItem carries either a response or a problem detail for one request.
type BatchItem struct {
	Index  int                `json:"index"`
	Result *ItineraryResponse `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// PlanMetric is one stored planning run.
type PlanMetric struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenantId"`
	DatasetID       string    `json:"datasetId"`
	PlanID          string    `json:"planId"`
	Status          string    `json:"status"`
	Days            int       `json:"days"`
	Attractions     int       `json:"attractions"`
	VisitedCount    int       `json:"visitedCount"`
	TotalFun        float64   `json:"totalFun"`
	TotalCost       float64   `json:"totalCost"`
	TotalDistanceKm float64   `json:"totalDistanceKm"`
	SolveTimeMs     int64     `json:"solveTimeMs"`
	CreatedAt       time.Time `json:"createdAt"`
}

// WebhookIn registers a URL for plan events. An empty Events list
// subscribes to every event type.
type WebhookIn struct {
	URL    string   `json:"url" validate:"required,url,startswith=http"`
	Events []string `json:"events,omitempty" validate:"omitempty,dive,oneof=plan.started plan.completed plan.infeasible plan.failed"`
	Secret string   `json:"secret,omitempty" validate:"omitempty,min=8"`
}

// Webhook is a stored registration. The secret is never echoed back.
type Webhook struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	Secret    string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Matches reports whether the webhook subscribes to eventType.
func (w Webhook) Matches(eventType string) bool {
	if len(w.Events) == 0 {
		return true
	}
	for _, e := range w.Events {
		if e == eventType {
			return true
		}
	}
	return false
}
