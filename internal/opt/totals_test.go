package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinopt/internal/mip"
)

func TestAggregate(t *testing.T) {
	req := threeSights()
	req.Days = 2
	req.Attractions[0].EntryFee = 100
	req.Attractions[2].EntryFee = 50
	req.CategoryWeights = CategoryWeights{"history": 0.5}
	f, err := Build(req)
	require.NoError(t, err)

	sel := Selection{
		Visit: [][]bool{{true, true, false}, {false, false, true}},
		Arc:   [][][]bool{arcs(3, [2]int{1, 0}), arcs(3)},
	}
	got := Aggregate(f, sel, 20)
	assert.Equal(t, 150.0, got.EntryCost)
	assert.Equal(t, 4.0+6+7, got.Fun)
	assert.Equal(t, 2.0, got.DistanceKm)
	assert.Equal(t, 40.0, got.TravelCost)
	assert.Equal(t, 190.0, got.Cost)
	assert.Equal(t, 3, got.VisitedCount)
	assert.Equal(t, 1, got.ArcCount)
}

func TestAggregateEmpty(t *testing.T) {
	f, err := Build(threeSights())
	require.NoError(t, err)
	sel := Select(f, func(mip.Var) float64 { return 0 })
	assert.Equal(t, Totals{}, Aggregate(f, sel, 20))
}
