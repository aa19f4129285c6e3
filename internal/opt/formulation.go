package opt

import (
	"fmt"
	"math"

	"itinopt/internal/mip"
)

// NoArc marks the diagonal of Formulation.Arc.
const NoArc mip.Var = -1

// Formulation is the integer program for one request together with the
// tables needed to read its solution back.
type Formulation struct {
	Model *mip.Model

	Days  int
	Names []string

	// Visit[d][i], Arc[d][i][j] and Order[d][i] index Model variables.
	Visit [][]mip.Var
	Arc   [][][]mip.Var
	Order [][]mip.Var

	Fees        []float64
	VisitTime   []float64
	WeightedFun []float64
	Dist        DistanceMatrix
	TravelTime  [][]float64
}

// N returns the number of attractions.
func (f *Formulation) N() int { return len(f.Names) }

// Validate checks every precondition of Build.
func Validate(req Request) error {
	n := len(req.Attractions)
	if len(req.Distances) != n {
		return configErr("distances", "matrix has %d rows for %d attractions", len(req.Distances), n)
	}
	for i, row := range req.Distances {
		if len(row) != n {
			return configErr("distances", "row %d has %d columns for %d attractions", i, len(row), n)
		}
		for j, v := range row {
			if i != j && !nonNegative(v) {
				return configErr("distances", "entry [%d][%d]=%v must be a finite number >= 0", i, j, v)
			}
		}
	}
	switch {
	case req.Days < 1:
		return configErr("days", "must be >= 1, got %d", req.Days)
	case !positive(req.BudgetPerDay):
		return configErr("budgetPerDay", "must be > 0, got %v", req.BudgetPerDay)
	case !positive(req.TimePerDay):
		return configErr("timePerDay", "must be > 0, got %v", req.TimePerDay)
	case !positive(req.AvgSpeedKmh):
		return configErr("avgSpeedKmh", "must be > 0, got %v", req.AvgSpeedKmh)
	case !nonNegative(req.TravelCostPerKm):
		return configErr("travelCostPerKm", "must be >= 0, got %v", req.TravelCostPerKm)
	case !nonNegative(req.Alpha):
		return configErr("alpha", "must be >= 0, got %v", req.Alpha)
	case req.TimeLimitSeconds <= 0:
		return configErr("timeLimitSeconds", "must be > 0, got %d", req.TimeLimitSeconds)
	case req.TimeLimitSeconds > MaxTimeLimitSeconds:
		return configErr("timeLimitSeconds", "must be <= %d, got %d", MaxTimeLimitSeconds, req.TimeLimitSeconds)
	}
	for cat, w := range req.CategoryWeights {
		if !nonNegative(w) {
			return configErr("categoryWeights", "weight for %q must be >= 0, got %v", cat, w)
		}
	}
	seen := make(map[string]int, n)
	for i, a := range req.Attractions {
		if a.Name == "" {
			return configErr("attractions", "attraction %d has no name", i)
		}
		if j, dup := seen[a.Name]; dup {
			return configErr("attractions", "name %q used by attractions %d and %d", a.Name, j, i)
		}
		seen[a.Name] = i
		if !nonNegative(a.AvgTimeHr) || !nonNegative(a.EntryFee) || !nonNegative(a.FunScore) {
			return configErr("attractions", "%q needs finite avgTimeHr, entryFee and funScore >= 0", a.Name)
		}
	}
	return nil
}

func positive(v float64) bool    { return v > 0 && !math.IsInf(v, 1) }
func nonNegative(v float64) bool { return v >= 0 && !math.IsInf(v, 1) }

// Build validates req and formulates the multi-day selection and routing
// program:
//
//	maximize  Σ weightedFun[i]·visit[i,d] − alpha·Σ dist[i][j]·arc[i,j,d]
//
// subject to at most one day per attraction, degree bounds tying arcs to
// visits, daily time and budget caps, and MTZ ordering on every day.
func Build(req Request) (*Formulation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	n, days := len(req.Attractions), req.Days
	f := &Formulation{
		Model:       mip.NewModel(),
		Days:        days,
		Names:       make([]string, n),
		Fees:        make([]float64, n),
		VisitTime:   make([]float64, n),
		WeightedFun: make([]float64, n),
		Dist:        req.Distances,
		TravelTime:  make([][]float64, n),
	}
	for i, a := range req.Attractions {
		f.Names[i] = a.Name
		f.Fees[i] = a.EntryFee
		f.VisitTime[i] = a.AvgTimeHr
		f.WeightedFun[i] = a.FunScore * req.CategoryWeights.Weight(a.Category)
		f.TravelTime[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i != j {
				f.TravelTime[i][j] = req.Distances[i][j] / req.AvgSpeedKmh
			}
		}
	}

	m := f.Model
	f.Visit = make([][]mip.Var, days)
	f.Arc = make([][][]mip.Var, days)
	f.Order = make([][]mip.Var, days)
	for d := 0; d < days; d++ {
		f.Visit[d] = make([]mip.Var, n)
		f.Order[d] = make([]mip.Var, n)
		f.Arc[d] = make([][]mip.Var, n)
		for i := 0; i < n; i++ {
			f.Visit[d][i] = m.NewBoolVar(fmt.Sprintf("visit_%d_%d", i, d))
		}
		for i := 0; i < n; i++ {
			f.Arc[d][i] = make([]mip.Var, n)
			for j := 0; j < n; j++ {
				if i == j {
					f.Arc[d][i][j] = NoArc
					continue
				}
				f.Arc[d][i][j] = m.NewBoolVar(fmt.Sprintf("arc_%d_%d_%d", i, j, d))
			}
		}
		for i := 0; i < n; i++ {
			f.Order[d][i] = m.NewIntVar(0, int64(n), fmt.Sprintf("order_%d_%d", i, d))
		}
	}

	obj := mip.NewLinearExpr()
	for d := 0; d < days; d++ {
		for i := 0; i < n; i++ {
			obj.AddTerm(f.Visit[d][i], f.WeightedFun[i])
		}
		if req.Alpha != 0 {
			f.eachArc(d, func(i, j int, x mip.Var) {
				obj.AddTerm(x, -req.Alpha*f.Dist[i][j])
			})
		}
	}
	m.SetObjective(obj, mip.Maximize)

	for i := 0; i < n; i++ {
		once := mip.NewLinearExpr()
		for d := 0; d < days; d++ {
			once.Add(f.Visit[d][i])
		}
		m.AddConstraint(once, mip.LessOrEqual, 1, fmt.Sprintf("once_%d", i))
	}

	nf := float64(n)
	for d := 0; d < days; d++ {
		for i := 0; i < n; i++ {
			deg := mip.NewLinearExpr()
			for j := 0; j < n; j++ {
				if i != j {
					deg.Add(f.Arc[d][j][i]).Add(f.Arc[d][i][j])
				}
			}
			m.AddConstraint(mip.NewLinearExpr().AddExpr(deg, 1).AddTerm(f.Visit[d][i], -1),
				mip.GreaterOrEqual, 0, fmt.Sprintf("deg_min_%d_%d", i, d))
			m.AddConstraint(mip.NewLinearExpr().AddExpr(deg, 1).AddTerm(f.Visit[d][i], -2),
				mip.LessOrEqual, 0, fmt.Sprintf("deg_max_%d_%d", i, d))
		}

		hours := mip.NewLinearExpr()
		spend := mip.NewLinearExpr()
		for i := 0; i < n; i++ {
			hours.AddTerm(f.Visit[d][i], f.VisitTime[i])
			spend.AddTerm(f.Visit[d][i], f.Fees[i])
		}
		f.eachArc(d, func(i, j int, x mip.Var) {
			hours.AddTerm(x, f.TravelTime[i][j])
		})
		m.AddConstraint(hours, mip.LessOrEqual, req.TimePerDay, fmt.Sprintf("time_%d", d))
		m.AddConstraint(spend, mip.LessOrEqual, req.BudgetPerDay, fmt.Sprintf("budget_%d", d))

		f.eachArc(d, func(i, j int, x mip.Var) {
			mtz := mip.NewLinearExpr().Add(f.Order[d][i]).AddTerm(f.Order[d][j], -1).AddTerm(x, nf)
			m.AddConstraint(mtz, mip.LessOrEqual, nf-1, fmt.Sprintf("mtz_%d_%d_%d", i, j, d))
		})

		for i := 0; i < n; i++ {
			u, y := f.Order[d][i], f.Visit[d][i]
			m.AddConstraint(mip.NewLinearExpr().Add(u).AddTerm(y, -1),
				mip.GreaterOrEqual, 0, fmt.Sprintf("order_min_%d_%d", i, d))
			m.AddConstraint(mip.NewLinearExpr().Add(u).AddTerm(y, -nf),
				mip.LessOrEqual, 0, fmt.Sprintf("order_max_%d_%d", i, d))
		}
	}
	return f, nil
}

// eachArc calls fn for every off-diagonal arc of day d in row-major order.
func (f *Formulation) eachArc(d int, fn func(i, j int, x mip.Var)) {
	for i, row := range f.Arc[d] {
		for j, x := range row {
			if x != NoArc {
				fn(i, j, x)
			}
		}
	}
}
