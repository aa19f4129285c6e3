package integrations

import (
	"context"

	"itinopt/internal/model"
)

// DatasetSource defines the minimal interface for external attraction catalogs.
type DatasetSource interface {
	Name() string
	Load(ctx context.Context) (Dataset, error)
}

// Dataset is an attraction list with its aligned distance matrix in km.
type Dataset struct {
	Name        string
	Attractions []model.AttractionIn
	Distances   [][]float64
}

// In converts d into the store input shape.
func (d Dataset) In() model.DatasetIn {
	return model.DatasetIn{Name: d.Name, Attractions: d.Attractions, Distances: d.Distances}
}
