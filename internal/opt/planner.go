package opt

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"itinopt/internal/mip"
)

const checkTol = 1e-6

// Planner runs the build, solve, decode and aggregate pipeline. It holds no
// per-request state, so one Planner may serve concurrent calls as long as
// NewEngine hands out independent engines.
type Planner struct {
	NewEngine mip.Factory
	Log       zerolog.Logger
}

// NewPlanner returns a Planner using newEngine for every request.
func NewPlanner(newEngine mip.Factory, log zerolog.Logger) *Planner {
	return &Planner{NewEngine: newEngine, Log: log}
}

// Plan optimises req. Invalid input and a missing engine return a
// *ConfigurationError. An infeasible model, or a time limit reached without
// any incumbent, is not an error: the result then carries req.Days empty
// days and zero totals.
func (p *Planner) Plan(ctx context.Context, req Request) (Result, error) {
	f, err := Build(req)
	if err != nil {
		return Result{}, err
	}
	log := p.Log.With().Int("attractions", f.N()).Int("days", f.Days).Logger()

	seed := Seed(f, req)
	f.Hint(seed)
	log.Debug().Int("seeded", countVisits(seed)).Msg("warm start prepared")

	out, err := mip.Run(ctx, p.NewEngine, f.Model, req.TimeLimit())
	if err != nil {
		if errors.Is(err, mip.ErrEngineUnavailable) {
			return Result{}, &ConfigurationError{Reason: "solver engine cannot be constructed", Err: err}
		}
		return Result{}, fmt.Errorf("opt: plan: %w", err)
	}
	if !out.Status.HasSolution() {
		log.Warn().Str("status", out.Status.String()).Dur("solve_time", out.WallTime).
			Msg("no feasible itinerary found")
		res := EmptyResult(req.Days, out.Status)
		res.SolveTime = out.WallTime
		return res, nil
	}
	if err := f.Model.Check(out.Values, checkTol); err != nil {
		log.Warn().Err(err).Msg("engine assignment outside model tolerance")
	}

	sel := Select(f, out.Value)
	itinerary, segments := Decode(f, sel)
	t := Aggregate(f, sel, req.TravelCostPerKm)

	log.Info().
		Str("status", out.Status.String()).
		Float64("total_fun", t.Fun).
		Float64("total_distance_km", t.DistanceKm).
		Float64("entry_cost", t.EntryCost).
		Float64("travel_cost", t.TravelCost).
		Float64("total_cost", t.Cost).
		Int("visited", t.VisitedCount).
		Int("arcs", t.ArcCount).
		Float64("alpha", req.Alpha).
		Dur("solve_time", out.WallTime).
		Msg("itinerary optimised")

	return Result{
		Itinerary:       itinerary,
		Segments:        segments,
		TotalCost:       t.Cost,
		TotalFun:        t.Fun,
		TotalDistanceKm: t.DistanceKm,
		EntryCost:       t.EntryCost,
		TravelCost:      t.TravelCost,
		Status:          out.Status,
		VisitedCount:    t.VisitedCount,
		ArcCount:        t.ArcCount,
		SolveTime:       out.WallTime,
	}, nil
}

func countVisits(routes [][]int) int {
	n := 0
	for _, r := range routes {
		n += len(r)
	}
	return n
}
