package opt

// Totals are the aggregate figures of an itinerary.
type Totals struct {
	EntryCost    float64
	Fun          float64
	DistanceKm   float64
	TravelCost   float64
	Cost         float64 // EntryCost + TravelCost
	VisitedCount int
	ArcCount     int
}

// Aggregate sums fees, weighted fun and distance over every selected visit
// and arc across all days.
func Aggregate(f *Formulation, s Selection, travelCostPerKm float64) Totals {
	var t Totals
	for d := range s.Visit {
		for i, on := range s.Visit[d] {
			if on {
				t.EntryCost += f.Fees[i]
				t.Fun += f.WeightedFun[i]
				t.VisitedCount++
			}
		}
		for i, row := range s.Arc[d] {
			for j, on := range row {
				if on && i != j {
					t.DistanceKm += f.Dist[i][j]
					t.ArcCount++
				}
			}
		}
	}
	t.TravelCost = t.DistanceKm * travelCostPerKm
	t.Cost = t.EntryCost + t.TravelCost
	return t
}
