package opt

import "itinopt/internal/mip"

// Materialize turns a raw engine value into a boolean. Exactly 0.5 is false.
func Materialize(v float64) bool { return v > 0.5 }

// Selection is a materialized assignment of the visit and arc variables.
type Selection struct {
	Visit [][]bool   // [day][i]
	Arc   [][][]bool // [day][i][j], diagonal always false
}

// Select materializes every visit and arc variable of f using value.
func Select(f *Formulation, value func(mip.Var) float64) Selection {
	n := f.N()
	s := Selection{
		Visit: make([][]bool, f.Days),
		Arc:   make([][][]bool, f.Days),
	}
	for d := 0; d < f.Days; d++ {
		s.Visit[d] = make([]bool, n)
		s.Arc[d] = make([][]bool, n)
		for i := 0; i < n; i++ {
			s.Visit[d][i] = Materialize(value(f.Visit[d][i]))
			s.Arc[d][i] = make([]bool, n)
		}
		f.eachArc(d, func(i, j int, x mip.Var) {
			s.Arc[d][i][j] = Materialize(value(x))
		})
	}
	return s
}

// DecodeDay rebuilds the ordered route of one day. Every assigned attraction
// not yet consumed starts a walk along its successors; a walk stops at a node
// without successor or at one already consumed. Chains are returned in
// discovery order along with their concatenation.
func DecodeDay(names []string, visit []bool, arc [][]bool) (route []string, chains [][]string) {
	n := len(names)
	succ := make([]int, n)
	for i := range succ {
		succ[i] = -1
		if i >= len(arc) {
			continue
		}
		for j, on := range arc[i] {
			if on && j != i && j < n {
				succ[i] = j
				break
			}
		}
	}

	route = []string{}
	chains = [][]string{}
	seen := make([]bool, n)
	for start := 0; start < n && start < len(visit); start++ {
		if !visit[start] || seen[start] {
			continue
		}
		var chain []string
		for cur := start; cur >= 0 && !seen[cur]; cur = succ[cur] {
			seen[cur] = true
			chain = append(chain, names[cur])
		}
		chains = append(chains, chain)
		route = append(route, chain...)
	}
	return route, chains
}

// Decode rebuilds every day of s.
func Decode(f *Formulation, s Selection) (itinerary [][]string, segments [][][]string) {
	itinerary = make([][]string, f.Days)
	segments = make([][][]string, f.Days)
	for d := 0; d < f.Days; d++ {
		itinerary[d], segments[d] = DecodeDay(f.Names, s.Visit[d], s.Arc[d])
	}
	return itinerary, segments
}
