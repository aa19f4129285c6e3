package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"itinopt/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu       sync.Mutex
	datasets map[string]model.Dataset      // id -> dataset
	byTen    map[string][]string           // tenant -> dataset ids
	planMx   map[string][]model.PlanMetric // tenant -> runs, oldest first
	optCfg   map[string]map[string]any     // tenant -> config
	hooks    map[string][]model.Webhook    // tenant -> webhooks, oldest first
}

func NewMemory() *Memory {
	return &Memory{
		datasets: map[string]model.Dataset{},
		byTen:    map[string][]string{},
		planMx:   map[string][]model.PlanMetric{},
		optCfg:   map[string]map[string]any{},
		hooks:    map[string][]model.Webhook{},
	}
}

func (m *Memory) CreateDataset(ctx context.Context, tenantID string, in model.DatasetIn) (model.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds := model.Dataset{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Name:        in.Name,
		Attractions: append([]model.AttractionIn(nil), in.Attractions...),
		Distances:   copyMatrix(in.Distances),
		CreatedAt:   time.Now().UTC(),
	}
	m.datasets[ds.ID] = ds
	m.byTen[tenantID] = append(m.byTen[tenantID], ds.ID)
	return ds, nil
}

func (m *Memory) GetDataset(ctx context.Context, tenantID, id string) (model.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[id]
	if !ok || ds.TenantID != tenantID {
		return model.Dataset{}, ErrNotFound
	}
	ds.Distances = copyMatrix(ds.Distances)
	return ds, nil
}

func (m *Memory) ListDatasets(ctx context.Context, tenantID, cursor string, limit int) ([]model.DatasetSummary, string, error) {
	limit = clampLimit(limit)
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := append([]string(nil), m.byTen[tenantID]...)
	sort.Strings(ids)
	out := []model.DatasetSummary{}
	for _, id := range ids {
		if cursor != "" && id <= cursor {
			continue
		}
		ds := m.datasets[id]
		out = append(out, model.DatasetSummary{ID: ds.ID, Name: ds.Name, Attractions: len(ds.Attractions), CreatedAt: ds.CreatedAt})
		if len(out) == limit {
			break
		}
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (m *Memory) DeleteDataset(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[id]
	if !ok || ds.TenantID != tenantID {
		return ErrNotFound
	}
	delete(m.datasets, id)
	ids := m.byTen[tenantID]
	for i, x := range ids {
		if x == id {
			m.byTen[tenantID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) SavePlanMetrics(ctx context.Context, pm model.PlanMetric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pm.ID == "" {
		pm.ID = uuid.NewString()
	}
	if pm.CreatedAt.IsZero() {
		pm.CreatedAt = time.Now().UTC()
	}
	m.planMx[pm.TenantID] = append(m.planMx[pm.TenantID], pm)
	return nil
}

// ListPlanMetrics returns the newest runs first; an empty datasetID matches all.
func (m *Memory) ListPlanMetrics(ctx context.Context, tenantID, datasetID string, limit int) ([]model.PlanMetric, error) {
	limit = clampLimit(limit)
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.planMx[tenantID]
	out := []model.PlanMetric{}
	for i := len(items) - 1; i >= 0 && len(out) < limit; i-- {
		if datasetID != "" && items[i].DatasetID != datasetID {
			continue
		}
		out = append(out, items[i])
	}
	return out, nil
}

func (m *Memory) GetOptimizerConfig(ctx context.Context, tenantID string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cfg, ok := m.optCfg[tenantID]; ok {
		out := make(map[string]any, len(cfg))
		for k, v := range cfg {
			out[k] = v
		}
		return out, nil
	}
	return nil, nil
}

func (m *Memory) SaveOptimizerConfig(ctx context.Context, tenantID string, cfg map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.optCfg[tenantID] = cfg
	return nil
}

func (m *Memory) CreateWebhook(ctx context.Context, tenantID string, in model.WebhookIn) (model.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wh := model.Webhook{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		URL:       in.URL,
		Events:    append([]string{}, in.Events...),
		Secret:    in.Secret,
		CreatedAt: time.Now().UTC(),
	}
	m.hooks[tenantID] = append(m.hooks[tenantID], wh)
	return wh, nil
}

func (m *Memory) ListWebhooks(ctx context.Context, tenantID string) ([]model.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Webhook{}, m.hooks[tenantID]...), nil
}

func (m *Memory) DeleteWebhook(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hooks := m.hooks[tenantID]
	for i, wh := range hooks {
		if wh.ID == id {
			m.hooks[tenantID] = append(hooks[:i:i], hooks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) WebhooksForEvent(ctx context.Context, tenantID, eventType string) ([]model.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Webhook{}
	for _, wh := range m.hooks[tenantID] {
		if wh.Matches(eventType) {
			out = append(out, wh)
		}
	}
	return out, nil
}

func copyMatrix(in [][]float64) [][]float64 {
	out := make([][]float64, len(in))
	for i, row := range in {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
