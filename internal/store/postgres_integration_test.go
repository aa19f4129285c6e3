//go:build postgres_integration

package store

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinopt/internal/model"
)

func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(dsn)
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.Ping(t.Context()))
	require.NoError(t, p.MigrateDir("../../db/migrations"))

	ds, err := p.CreateDataset(t.Context(), "t_it", model.DatasetIn{
		Name:        "pair",
		Attractions: []model.AttractionIn{{Name: "A", FunScore: 1}, {Name: "B", FunScore: 2}},
		Distances:   [][]float64{{0, 1}, {1, 0}},
	})
	require.NoError(t, err)
	got, err := p.GetDataset(t.Context(), "t_it", ds.ID)
	require.NoError(t, err)
	assert.Equal(t, ds.Attractions, got.Attractions)
	assert.Equal(t, ds.Distances, got.Distances)

	require.NoError(t, p.SaveOptimizerConfig(t.Context(), "t_it", map[string]any{"days": 2.0}))
	cfg, err := p.GetOptimizerConfig(t.Context(), "t_it")
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg["days"])

	require.NoError(t, p.SavePlanMetrics(t.Context(), model.PlanMetric{TenantID: "t_it", DatasetID: ds.ID, PlanID: "p1", Status: "OPTIMAL", Days: 1, Attractions: 2}))
	items, err := p.ListPlanMetrics(t.Context(), "t_it", ds.ID, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, items)

	wh, err := p.CreateWebhook(t.Context(), "t_it", model.WebhookIn{URL: "http://hooks.example/plan", Events: []string{"plan.completed"}})
	require.NoError(t, err)
	hooks, err := p.WebhooksForEvent(t.Context(), "t_it", "plan.completed")
	require.NoError(t, err)
	assert.NotEmpty(t, hooks)
	hooks, err = p.WebhooksForEvent(t.Context(), "t_it", "plan.started")
	require.NoError(t, err)
	for _, h := range hooks {
		assert.NotEqual(t, wh.ID, h.ID)
	}
	require.NoError(t, p.DeleteWebhook(t.Context(), "t_it", wh.ID))

	require.NoError(t, p.DeleteDataset(t.Context(), "t_it", ds.ID))
	_, err = p.GetDataset(t.Context(), "t_it", ds.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
