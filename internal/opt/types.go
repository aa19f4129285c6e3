package opt

import (
	"time"

	"itinopt/internal/mip"
)

// DefaultCategoryWeight applies to categories missing from CategoryWeights.
const DefaultCategoryWeight = 1.0

// MaxTimeLimitSeconds bounds Request.TimeLimitSeconds to one day.
const MaxTimeLimitSeconds = 24 * 60 * 60

// Attraction is one candidate point of interest.
type Attraction struct {
	Name      string
	Category  string
	AvgTimeHr float64 // visit duration
	EntryFee  float64
	FunScore  float64
	Lat, Lng  float64 // display only, never read by the planner
}

// DistanceMatrix holds kilometres between attractions, aligned with the
// attraction slice. The diagonal is ignored.
type DistanceMatrix [][]float64

// CategoryWeights scales FunScore per category.
type CategoryWeights map[string]float64

// Weight returns the weight for category, or DefaultCategoryWeight.
func (w CategoryWeights) Weight(category string) float64 {
	if v, ok := w[category]; ok {
		return v
	}
	return DefaultCategoryWeight
}

// Request is one optimisation call.
type Request struct {
	Attractions      []Attraction
	Distances        DistanceMatrix
	Days             int
	BudgetPerDay     float64
	TimePerDay       float64 // hours
	CategoryWeights  CategoryWeights
	AvgSpeedKmh      float64
	TravelCostPerKm  float64
	Alpha            float64 // distance tie-breaker in the objective
	TimeLimitSeconds int
}

// DefaultRequest returns a request carrying the stock planning parameters.
// Callers still supply attractions and distances.
func DefaultRequest() Request {
	return Request{
		Days:             3,
		BudgetPerDay:     1500,
		TimePerDay:       8,
		AvgSpeedKmh:      20,
		TravelCostPerKm:  20,
		Alpha:            0.01,
		TimeLimitSeconds: 60,
	}
}

// TimeLimit returns the solve budget as a duration.
func (r Request) TimeLimit() time.Duration {
	return time.Duration(r.TimeLimitSeconds) * time.Second
}

// Result is the outcome of Plan. Itinerary always has exactly Days entries.
type Result struct {
	Itinerary [][]string
	// Segments holds, per day, the route fragments that were concatenated
	// into the corresponding Itinerary entry.
	Segments        [][][]string
	TotalCost       float64
	TotalFun        float64
	TotalDistanceKm float64
	EntryCost       float64
	TravelCost      float64
	Status          mip.Status
	VisitedCount    int
	ArcCount        int
	SolveTime       time.Duration
}

// HasItinerary reports whether the engine produced an assignment.
func (r Result) HasItinerary() bool { return r.Status.HasSolution() }

// EmptyResult is the soft-failure result: days empty lists and zero totals.
func EmptyResult(days int, status mip.Status) Result {
	if days < 0 {
		days = 0
	}
	res := Result{
		Itinerary: make([][]string, days),
		Segments:  make([][][]string, days),
		Status:    status,
	}
	for d := 0; d < days; d++ {
		res.Itinerary[d] = []string{}
		res.Segments[d] = [][]string{}
	}
	return res
}
