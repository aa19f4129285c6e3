package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const attractionsCSV = `name,category,avg_time_hr,entry_fee,fun_score,latitude,longitude
Red Fort,History,2,50,8,28.6562,77.2410
Chandni Chowk,food,1.5,0,9,28.6506,77.2303
Lodhi Garden,culture,1,0,6,28.5931,77.2197
`

func TestParseAlignsByName(t *testing.T) {
	// Matrix rows and columns are listed in a different order than the table.
	dist := `,Lodhi Garden,Red Fort,Chandni Chowk
Lodhi Garden,0,8,9
Red Fort,8,0,1.5
Chandni Chowk,9,1.5,0
`
	ds, err := Parse("delhi", strings.NewReader(attractionsCSV), strings.NewReader(dist))
	require.NoError(t, err)
	require.Len(t, ds.Attractions, 3)
	assert.Equal(t, "history", ds.Attractions[0].Category)
	require.NotNil(t, ds.Attractions[0].Location)
	assert.InDelta(t, 28.6562, ds.Attractions[0].Location.Lat, 1e-9)
	assert.Equal(t, [][]float64{
		{0, 1.5, 8},
		{1.5, 0, 9},
		{8, 9, 0},
	}, ds.Distances)
}

func TestParsePositionalWhenLabelsAreNotNames(t *testing.T) {
	dist := `idx,0,1,2
0,0,1,2
1,1,0,3
2,2,3,0
`
	ds, err := Parse("delhi", strings.NewReader(attractionsCSV), strings.NewReader(dist))
	require.NoError(t, err)
	assert.Equal(t, 3.0, ds.Distances[1][2])
}

func TestParseErrors(t *testing.T) {
	_, err := ParseAttractions(strings.NewReader("name,avg_time_hr\nA,1\n"))
	assert.ErrorContains(t, err, "entry_fee")

	_, err = ParseAttractions(strings.NewReader("name,avg_time_hr,entry_fee,fun_score\nA,x,0,1\n"))
	assert.ErrorContains(t, err, "avg_time_hr")

	attrs, err := ParseAttractions(strings.NewReader(attractionsCSV))
	require.NoError(t, err)
	_, err = ParseDistances(strings.NewReader(",a,b\na,0,1\nb,1,0\n"), attrs)
	assert.ErrorContains(t, err, "2x2 matrix for 3 attractions")
}

func TestAdapterLoad(t *testing.T) {
	dir := t.TempDir()
	ap := filepath.Join(dir, "delhi_attractions.csv")
	dp := filepath.Join(dir, "delhi_distance_matrix.csv")
	require.NoError(t, os.WriteFile(ap, []byte(attractionsCSV), 0o600))
	require.NoError(t, os.WriteFile(dp, []byte(",Red Fort,Chandni Chowk,Lodhi Garden\nRed Fort,0,1,2\nChandni Chowk,1,0,3\nLodhi Garden,2,3,0\n"), 0o600))

	ds, err := Adapter{AttractionsPath: ap, DistancesPath: dp}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "delhi_attractions", ds.Name)
	assert.Len(t, ds.In().Attractions, 3)
}
