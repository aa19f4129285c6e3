package store

import (
	"context"
	"errors"

	"itinopt/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Datasets
	CreateDataset(ctx context.Context, tenantID string, in model.DatasetIn) (model.Dataset, error)
	GetDataset(ctx context.Context, tenantID, id string) (model.Dataset, error)
	ListDatasets(ctx context.Context, tenantID, cursor string, limit int) ([]model.DatasetSummary, string, error)
	DeleteDataset(ctx context.Context, tenantID, id string) error

	// Plan run metrics
	SavePlanMetrics(ctx context.Context, m model.PlanMetric) error
	ListPlanMetrics(ctx context.Context, tenantID, datasetID string, limit int) ([]model.PlanMetric, error)

	// Optimizer config per tenant
	GetOptimizerConfig(ctx context.Context, tenantID string) (map[string]any, error)
	SaveOptimizerConfig(ctx context.Context, tenantID string, cfg map[string]any) error

	// Webhook registrations per tenant
	CreateWebhook(ctx context.Context, tenantID string, in model.WebhookIn) (model.Webhook, error)
	ListWebhooks(ctx context.Context, tenantID string) ([]model.Webhook, error)
	DeleteWebhook(ctx context.Context, tenantID, id string) error
	WebhooksForEvent(ctx context.Context, tenantID, eventType string) ([]model.Webhook, error)
}

var ErrNotFound = errors.New("not found")

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
