package opt

import (
	"math"

	"itinopt/internal/mip"
)

// Seed builds a feasible itinerary for f by cheapest insertion. Each day is
// filled in turn: among the unused attractions that still fit the day's hours
// and budget, the one with the best gain per added hour is inserted at the
// position that lengthens the path least. A candidate is only taken while its
// weighted fun outweighs alpha times the added distance. Days are then
// shortened with 2-opt, and a day left with a single attraction is emptied
// because a route needs at least one leg.
//
// The returned routes hold attraction indices in visiting order, one slice
// per day.
func Seed(f *Formulation, req Request) [][]int {
	n := f.N()
	used := make([]bool, n)
	routes := make([][]int, f.Days)
	for d := range routes {
		route := []int{}
		hours, spend := 0.0, 0.0
		for {
			bestIdx, bestPos := -1, 0
			bestRatio, bestHours := math.Inf(-1), 0.0
			for i := 0; i < n; i++ {
				if used[i] || spend+f.Fees[i] > req.BudgetPerDay {
					continue
				}
				pos, dist, travel := f.cheapestInsertion(route, i)
				gain := f.WeightedFun[i] - req.Alpha*dist
				added := f.VisitTime[i] + travel
				if gain <= 0 || hours+added > req.TimePerDay {
					continue
				}
				ratio := gain / math.Max(added, 1e-9)
				if ratio > bestRatio {
					bestIdx, bestPos, bestRatio, bestHours = i, pos, ratio, added
				}
			}
			if bestIdx < 0 {
				break
			}
			route = insertAt(route, bestPos, bestIdx)
			used[bestIdx] = true
			hours += bestHours
			spend += f.Fees[bestIdx]
		}
		route = f.improve2Opt(route)
		if len(route) == 1 {
			used[route[0]] = false
			route = []int{}
		}
		routes[d] = route
	}
	return routes
}

// cheapestInsertion returns the position in route where i adds the least
// distance, with the added distance and travel hours.
func (f *Formulation) cheapestInsertion(route []int, i int) (pos int, dist, travel float64) {
	if len(route) == 0 {
		return 0, 0, 0
	}
	dist, travel = math.Inf(1), math.Inf(1)
	for p := 0; p <= len(route); p++ {
		var dd, dt float64
		switch p {
		case 0:
			dd, dt = f.Dist[i][route[0]], f.TravelTime[i][route[0]]
		case len(route):
			last := route[len(route)-1]
			dd, dt = f.Dist[last][i], f.TravelTime[last][i]
		default:
			a, b := route[p-1], route[p]
			dd = f.Dist[a][i] + f.Dist[i][b] - f.Dist[a][b]
			dt = f.TravelTime[a][i] + f.TravelTime[i][b] - f.TravelTime[a][b]
		}
		if dd < dist {
			pos, dist, travel = p, dd, dt
		}
	}
	return pos, dist, travel
}

// improve2Opt reverses route segments while that shortens the path. Travel
// time is proportional to distance, so a shorter path never breaks the
// day's hours.
func (f *Formulation) improve2Opt(route []int) []int {
	best := append([]int(nil), route...)
	bestDist := f.pathDistance(best)
	for improved := true; improved; {
		improved = false
		for i := 0; i < len(best)-1; i++ {
			for k := i + 1; k < len(best); k++ {
				cand := twoOptSwap(best, i, k)
				if d := f.pathDistance(cand); d+1e-9 < bestDist {
					best, bestDist = cand, d
					improved = true
				}
			}
		}
	}
	return best
}

func twoOptSwap(ord []int, i, k int) []int {
	out := append([]int(nil), ord...)
	for a, b := i, k; a < b; a, b = a+1, b-1 {
		out[a], out[b] = out[b], out[a]
	}
	return out
}

func (f *Formulation) pathDistance(route []int) float64 {
	total := 0.0
	for k := 1; k < len(route); k++ {
		total += f.Dist[route[k-1]][route[k]]
	}
	return total
}

func insertAt(route []int, pos, v int) []int {
	route = append(route, 0)
	copy(route[pos+1:], route[pos:])
	route[pos] = v
	return route
}

// Hint records routes as the starting assignment of every model variable:
// visits and legs along each route, order set to the 1-based position, and
// zero everywhere else.
func (f *Formulation) Hint(routes [][]int) {
	m := f.Model
	m.ClearHints()
	for d := 0; d < f.Days; d++ {
		pos := make([]int, f.N())
		var route []int
		if d < len(routes) {
			route = routes[d]
		}
		for k, i := range route {
			pos[i] = k + 1
		}
		for i := 0; i < f.N(); i++ {
			visited := 0.0
			if pos[i] > 0 {
				visited = 1
			}
			m.AddHint(f.Visit[d][i], visited)
			m.AddHint(f.Order[d][i], float64(pos[i]))
		}
		f.eachArc(d, func(i, j int, x mip.Var) {
			leg := 0.0
			if pos[i] > 0 && pos[j] == pos[i]+1 {
				leg = 1
			}
			m.AddHint(x, leg)
		})
	}
}
