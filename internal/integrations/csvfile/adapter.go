// Package csvfile reads a dataset from two CSV files: an attraction table
// and a labelled distance matrix.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"itinopt/internal/integrations"
	"itinopt/internal/model"
)

// Attraction table columns. latitude/longitude are optional.
const (
	colName      = "name"
	colCategory  = "category"
	colAvgTime   = "avg_time_hr"
	colEntryFee  = "entry_fee"
	colFunScore  = "fun_score"
	colLatitude  = "latitude"
	colLongitude = "longitude"
)

// Adapter loads a dataset from files on disk.
type Adapter struct {
	DatasetName     string
	AttractionsPath string
	DistancesPath   string
}

var _ integrations.DatasetSource = Adapter{}

func (a Adapter) Name() string { return "csv-file" }

func (a Adapter) Load(ctx context.Context) (integrations.Dataset, error) {
	af, err := os.Open(a.AttractionsPath)
	if err != nil {
		return integrations.Dataset{}, err
	}
	defer func() { _ = af.Close() }()
	df, err := os.Open(a.DistancesPath)
	if err != nil {
		return integrations.Dataset{}, err
	}
	defer func() { _ = df.Close() }()

	name := a.DatasetName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(a.AttractionsPath), filepath.Ext(a.AttractionsPath))
	}
	return Parse(name, af, df)
}

// Parse reads both tables. Distance rows and columns are matched to
// attractions by their labels when the labels are attraction names;
// otherwise the matrix is taken positionally.
func Parse(name string, attractions, distances io.Reader) (integrations.Dataset, error) {
	attrs, err := ParseAttractions(attractions)
	if err != nil {
		return integrations.Dataset{}, err
	}
	dist, err := ParseDistances(distances, attrs)
	if err != nil {
		return integrations.Dataset{}, err
	}
	return integrations.Dataset{Name: name, Attractions: attrs, Distances: dist}, nil
}

// ParseAttractions reads the attraction table.
func ParseAttractions(r io.Reader) ([]model.AttractionIn, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("attractions: read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range []string{colName, colAvgTime, colEntryFee, colFunScore} {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("attractions: missing column %q", c)
		}
	}

	var out []model.AttractionIn
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("attractions: line %d: %w", line, err)
		}
		num := func(col string) (float64, error) {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx[col]]), 64)
			if err != nil {
				return 0, fmt.Errorf("attractions: line %d column %s: %w", line, col, err)
			}
			return v, nil
		}
		a := model.AttractionIn{Name: strings.TrimSpace(rec[idx[colName]])}
		if i, ok := idx[colCategory]; ok {
			a.Category = strings.ToLower(strings.TrimSpace(rec[i]))
		}
		if a.AvgTimeHr, err = num(colAvgTime); err != nil {
			return nil, err
		}
		if a.EntryFee, err = num(colEntryFee); err != nil {
			return nil, err
		}
		if a.FunScore, err = num(colFunScore); err != nil {
			return nil, err
		}
		_, hasLat := idx[colLatitude]
		_, hasLng := idx[colLongitude]
		if hasLat && hasLng {
			lat, err1 := num(colLatitude)
			lng, err2 := num(colLongitude)
			if err1 == nil && err2 == nil {
				a.Location = &model.GeoPoint{Lat: lat, Lng: lng}
			}
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("attractions: no rows")
	}
	return out, nil
}

// ParseDistances reads a matrix whose first row and first column hold labels.
func ParseDistances(r io.Reader, attrs []model.AttractionIn) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("distances: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("distances: need a header row and at least one data row")
	}
	n := len(attrs)
	colLabels := rows[0][1:]
	body := rows[1:]
	if len(colLabels) != n || len(body) != n {
		return nil, fmt.Errorf("distances: %dx%d matrix for %d attractions", len(body), len(colLabels), n)
	}

	pos := map[string]int{}
	for i, a := range attrs {
		pos[a.Name] = i
	}
	rowLabels := make([]string, n)
	for i, rec := range body {
		if len(rec) != n+1 {
			return nil, fmt.Errorf("distances: row %d has %d values, want %d", i+1, len(rec)-1, n)
		}
		rowLabels[i] = strings.TrimSpace(rec[0])
	}
	rowIdx, rowsByName := alignment(rowLabels, pos)
	colIdx, colsByName := alignment(colLabels, pos)
	if rowsByName != colsByName {
		return nil, fmt.Errorf("distances: row and column labels disagree on attraction names")
	}

	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}
	for i, rec := range body {
		for j, cell := range rec[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("distances: row %q column %d: %w", rowLabels[i], j+1, err)
			}
			out[rowIdx[i]][colIdx[j]] = v
		}
	}
	return out, nil
}

// alignment maps label positions to attraction indices. It reports false and
// the identity mapping unless every label names a distinct attraction.
func alignment(labels []string, pos map[string]int) ([]int, bool) {
	idx := make([]int, len(labels))
	used := map[int]bool{}
	for i, l := range labels {
		p, ok := pos[strings.TrimSpace(l)]
		if !ok || used[p] {
			for k := range idx {
				idx[k] = k
			}
			return idx, false
		}
		used[p] = true
		idx[i] = p
	}
	return idx, true
}
