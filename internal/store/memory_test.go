package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinopt/internal/model"
)

func sampleDataset(name string) model.DatasetIn {
	return model.DatasetIn{
		Name: name,
		Attractions: []model.AttractionIn{
			{Name: "Fort", Category: "history", AvgTimeHr: 2, EntryFee: 50, FunScore: 8},
			{Name: "Market", Category: "food", AvgTimeHr: 1, FunScore: 6},
		},
		Distances: [][]float64{{0, 3}, {3, 0}},
	}
}

func TestMemoryDatasetLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ds, err := m.CreateDataset(ctx, "t1", sampleDataset("city"))
	require.NoError(t, err)
	assert.NotEmpty(t, ds.ID)

	got, err := m.GetDataset(ctx, "t1", ds.ID)
	require.NoError(t, err)
	assert.Equal(t, "city", got.Name)
	got.Distances[0][1] = 99
	again, _ := m.GetDataset(ctx, "t1", ds.ID)
	assert.Equal(t, 3.0, again.Distances[0][1], "stored matrix must not alias callers")

	_, err = m.GetDataset(ctx, "t2", ds.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.DeleteDataset(ctx, "t1", ds.ID))
	assert.ErrorIs(t, m.DeleteDataset(ctx, "t1", ds.ID), ErrNotFound)
	items, _, err := m.ListDatasets(ctx, "t1", "", 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryListDatasetsPaginates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 5; i++ {
		_, err := m.CreateDataset(ctx, "t1", sampleDataset(fmt.Sprintf("d%d", i)))
		require.NoError(t, err)
	}
	seen := map[string]bool{}
	cursor := ""
	for page := 0; page < 5; page++ {
		items, next, err := m.ListDatasets(ctx, "t1", cursor, 2)
		require.NoError(t, err)
		for _, it := range items {
			assert.False(t, seen[it.ID])
			seen[it.ID] = true
			assert.Equal(t, 2, it.Attractions)
		}
		if next == "" {
			break
		}
		cursor = next
	}
	assert.Len(t, seen, 5)
}

func TestMemoryPlanMetricsNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 3; i++ {
		require.NoError(t, m.SavePlanMetrics(ctx, model.PlanMetric{TenantID: "t1", DatasetID: "ds", PlanID: fmt.Sprintf("p%d", i)}))
	}
	require.NoError(t, m.SavePlanMetrics(ctx, model.PlanMetric{TenantID: "t1", DatasetID: "other", PlanID: "x"}))

	items, err := m.ListPlanMetrics(ctx, "t1", "ds", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p2", items[0].PlanID)
	assert.Equal(t, "p1", items[1].PlanID)
	assert.NotEmpty(t, items[0].ID)

	all, err := m.ListPlanMetrics(ctx, "t1", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestMemoryOptimizerConfig(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	cfg, err := m.GetOptimizerConfig(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, cfg)

	require.NoError(t, m.SaveOptimizerConfig(ctx, "t1", map[string]any{"days": 2}))
	cfg, err = m.GetOptimizerConfig(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg["days"])
}

func TestMemoryWebhooks(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	all, err := m.CreateWebhook(ctx, "t1", model.WebhookIn{URL: "http://a.example/hook"})
	require.NoError(t, err)
	done, err := m.CreateWebhook(ctx, "t1", model.WebhookIn{URL: "http://b.example/hook", Events: []string{"plan.completed"}, Secret: "s3cret-key"})
	require.NoError(t, err)
	assert.Equal(t, "s3cret-key", done.Secret)

	hooks, err := m.WebhooksForEvent(ctx, "t1", "plan.started")
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	assert.Equal(t, all.ID, hooks[0].ID)

	hooks, err = m.WebhooksForEvent(ctx, "t1", "plan.completed")
	require.NoError(t, err)
	assert.Len(t, hooks, 2)

	hooks, err = m.WebhooksForEvent(ctx, "t2", "plan.completed")
	require.NoError(t, err)
	assert.Empty(t, hooks)

	assert.ErrorIs(t, m.DeleteWebhook(ctx, "t2", all.ID), ErrNotFound)
	require.NoError(t, m.DeleteWebhook(ctx, "t1", all.ID))
	list, err := m.ListWebhooks(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, done.ID, list[0].ID)
}
