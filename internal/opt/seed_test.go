package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinopt/internal/mip"
)

// seedHints builds req, seeds it and returns the hinted assignment.
func seedHints(t *testing.T, req Request) (*Formulation, [][]int, []float64) {
	t.Helper()
	f, err := Build(req)
	require.NoError(t, err)
	routes := Seed(f, req)
	f.Hint(routes)
	values, complete := f.Model.Hints()
	require.True(t, complete, "every variable needs a hint")
	require.NoError(t, f.Model.Check(values, 1e-9))
	return f, routes, values
}

func TestSeedThreeSights(t *testing.T) {
	f, routes, values := seedHints(t, threeSights())
	// Temple is inserted next to Fort first; Market then slots between them.
	assert.Equal(t, [][]int{{2, 1, 0}}, routes)
	obj, _ := f.Model.Objective()
	assert.InDelta(t, 21-0.01*5, obj.Eval(values), 1e-9)

	it, segments := Decode(f, Select(f, func(v mip.Var) float64 { return values[v] }))
	assert.ElementsMatch(t, []string{"Fort", "Market", "Temple"}, it[0])
	assert.Len(t, segments[0], 3)
}

func TestSeedRespectsDailyLimits(t *testing.T) {
	req := DefaultRequest()
	req.Days = 2
	req.TimePerDay = 7
	req.BudgetPerDay = 500
	req.Alpha = 0
	for _, fun := range []float64{5, 6, 7, 8} {
		req.Attractions = append(req.Attractions, Attraction{
			Name: "S" + string(rune('0'+int(fun)-5)), AvgTimeHr: 3, EntryFee: 100, FunScore: fun,
		})
	}
	req.Distances = DistanceMatrix{
		{0, 2, 3, 4},
		{2, 0, 2, 3},
		{3, 2, 0, 2},
		{4, 3, 2, 0},
	}
	_, routes, _ := seedHints(t, req)
	require.Len(t, routes, 2)
	assert.ElementsMatch(t, []int{2, 3}, routes[0])
	assert.ElementsMatch(t, []int{0, 1}, routes[1])
}

func TestSeedDropsSingleAttractionDays(t *testing.T) {
	req := threeSights()
	req.Days = 2
	for i := range req.Attractions {
		req.Attractions[i].EntryFee = 40
	}
	req.BudgetPerDay = 50
	_, routes, values := seedHints(t, req)
	assert.Equal(t, [][]int{{}, {}}, routes)
	for _, v := range values {
		assert.Zero(t, v)
	}
}

func TestSeedSkipsUnprofitableDetours(t *testing.T) {
	req := threeSights()
	req.Alpha = 10
	req.Distances[0][1], req.Distances[1][0] = 0.5, 0.5
	// Temple is 3km or more from both; at alpha 10 no leg to it pays off.
	_, routes, _ := seedHints(t, req)
	assert.Equal(t, [][]int{{1, 0}}, routes)
}

func TestImprove2OptUncrossesPath(t *testing.T) {
	f := &Formulation{Dist: DistanceMatrix{
		{0, 1, 2, 3},
		{1, 0, 1, 2},
		{2, 1, 0, 1},
		{3, 2, 1, 0},
	}}
	got := f.improve2Opt([]int{0, 2, 1, 3})
	assert.InDelta(t, 3.0, f.pathDistance(got), 1e-9)
}
