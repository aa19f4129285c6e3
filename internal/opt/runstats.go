package opt

import "time"

// RunStats summarises one planning run for the admin API.
type RunStats struct {
	PlanID          string        `json:"planId"`
	Status          string        `json:"status"`
	Days            int           `json:"days"`
	Attractions     int           `json:"attractions"`
	VisitedCount    int           `json:"visitedCount"`
	TotalFun        float64       `json:"totalFun"`
	TotalCost       float64       `json:"totalCost"`
	TotalDistanceKm float64       `json:"totalDistanceKm"`
	SolveTime       time.Duration `json:"solveTimeNs"`
	At              time.Time     `json:"at"`
}

// StatsFor builds the RunStats of res.
func StatsFor(planID string, req Request, res Result) RunStats {
	return RunStats{
		PlanID:          planID,
		Status:          res.Status.String(),
		Days:            req.Days,
		Attractions:     len(req.Attractions),
		VisitedCount:    res.VisitedCount,
		TotalFun:        res.TotalFun,
		TotalCost:       res.TotalCost,
		TotalDistanceKm: res.TotalDistanceKm,
		SolveTime:       res.SolveTime,
		At:              time.Now().UTC(),
	}
}
