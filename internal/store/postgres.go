package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"itinopt/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Ping checks connectivity for readiness probes.
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// Close releases the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

// MigrateDir applies every *.sql file of dir in name order. Migrations are
// written to be idempotent.
func (p *Postgres) MigrateDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		for _, stmt := range splitSQL(string(b)) {
			if _, err := p.db.Exec(stmt); err != nil {
				return fmt.Errorf("migrate %s: %w", filepath.Base(f), err)
			}
		}
	}
	return nil
}

// splitSQL splits a migration file on statement-terminating semicolons and
// drops "--" comment lines.
func splitSQL(src string) []string {
	var out []string
	var cur strings.Builder
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}

func (p *Postgres) CreateDataset(ctx context.Context, tenantID string, in model.DatasetIn) (model.Dataset, error) {
	attrs, err := json.Marshal(in.Attractions)
	if err != nil {
		return model.Dataset{}, err
	}
	dist, err := json.Marshal(in.Distances)
	if err != nil {
		return model.Dataset{}, err
	}
	ds := model.Dataset{ID: uuid.NewString(), TenantID: tenantID, Name: in.Name, Attractions: in.Attractions, Distances: in.Distances}
	err = p.db.QueryRowContext(ctx, `INSERT INTO datasets (id, tenant_id, name, attractions, distances) VALUES ($1,$2,$3,$4,$5) RETURNING created_at`,
		ds.ID, tenantID, in.Name, string(attrs), string(dist)).Scan(&ds.CreatedAt)
	if err != nil {
		return model.Dataset{}, err
	}
	return ds, nil
}

func (p *Postgres) GetDataset(ctx context.Context, tenantID, id string) (model.Dataset, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Dataset{}, ErrNotFound
	}
	ds := model.Dataset{ID: id, TenantID: tenantID}
	var attrs, dist []byte
	err := p.db.QueryRowContext(ctx, `SELECT name, attractions, distances, created_at FROM datasets WHERE tenant_id=$1 AND id=$2`, tenantID, id).
		Scan(&ds.Name, &attrs, &dist, &ds.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Dataset{}, ErrNotFound
	}
	if err != nil {
		return model.Dataset{}, err
	}
	if err := json.Unmarshal(attrs, &ds.Attractions); err != nil {
		return model.Dataset{}, err
	}
	if err := json.Unmarshal(dist, &ds.Distances); err != nil {
		return model.Dataset{}, err
	}
	return ds, nil
}

func (p *Postgres) ListDatasets(ctx context.Context, tenantID, cursor string, limit int) ([]model.DatasetSummary, string, error) {
	limit = clampLimit(limit)
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, name, jsonb_array_length(attractions), created_at FROM datasets WHERE tenant_id=$1 AND id::text > $2 ORDER BY id::text LIMIT $3`, tenantID, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, name, jsonb_array_length(attractions), created_at FROM datasets WHERE tenant_id=$1 ORDER BY id::text LIMIT $2`, tenantID, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.DatasetSummary{}
	for rows.Next() {
		var s model.DatasetSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Attractions, &s.CreatedAt); err != nil {
			return nil, "", err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (p *Postgres) DeleteDataset(ctx context.Context, tenantID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM datasets WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SavePlanMetrics(ctx context.Context, m model.PlanMetric) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO plan_metrics (id, tenant_id, dataset_id, plan_id, status, days, attractions, visited_count, total_fun, total_cost, total_distance_km, solve_time_ms, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		m.ID, m.TenantID, m.DatasetID, m.PlanID, m.Status, m.Days, m.Attractions, m.VisitedCount, m.TotalFun, m.TotalCost, m.TotalDistanceKm, m.SolveTimeMs, m.CreatedAt,
	)
	return err
}

func (p *Postgres) ListPlanMetrics(ctx context.Context, tenantID, datasetID string, limit int) ([]model.PlanMetric, error) {
	limit = clampLimit(limit)
	base := `SELECT id::text, dataset_id, plan_id, status, days, attractions, visited_count, total_fun, total_cost, total_distance_km, solve_time_ms, created_at FROM plan_metrics WHERE tenant_id=$1`
	args := []any{tenantID}
	if datasetID != "" {
		base += ` AND dataset_id=$2`
		args = append(args, datasetID)
	}
	base += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)
	rows, err := p.db.QueryContext(ctx, base, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.PlanMetric{}
	for rows.Next() {
		m := model.PlanMetric{TenantID: tenantID}
		if err := rows.Scan(&m.ID, &m.DatasetID, &m.PlanID, &m.Status, &m.Days, &m.Attractions, &m.VisitedCount, &m.TotalFun, &m.TotalCost, &m.TotalDistanceKm, &m.SolveTimeMs, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (p *Postgres) GetOptimizerConfig(ctx context.Context, tenantID string) (map[string]any, error) {
	row := p.db.QueryRowContext(ctx, `SELECT config FROM optimizer_config WHERE tenant_id=$1`, tenantID)
	var js []byte
	if err := row.Scan(&js); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var cfg map[string]any
	if err := json.Unmarshal(js, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (p *Postgres) SaveOptimizerConfig(ctx context.Context, tenantID string, cfg map[string]any) error {
	js, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO optimizer_config (tenant_id, config, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (tenant_id) DO UPDATE SET config=$2, updated_at=now()`, tenantID, string(js))
	return err
}

func (p *Postgres) CreateWebhook(ctx context.Context, tenantID string, in model.WebhookIn) (model.Webhook, error) {
	events := append([]string{}, in.Events...)
	js, err := json.Marshal(events)
	if err != nil {
		return model.Webhook{}, err
	}
	wh := model.Webhook{ID: uuid.NewString(), TenantID: tenantID, URL: in.URL, Events: events, Secret: in.Secret}
	err = p.db.QueryRowContext(ctx, `INSERT INTO webhooks (id, tenant_id, url, events, secret) VALUES ($1,$2,$3,$4,$5) RETURNING created_at`,
		wh.ID, tenantID, in.URL, string(js), in.Secret).Scan(&wh.CreatedAt)
	if err != nil {
		return model.Webhook{}, err
	}
	return wh, nil
}

func (p *Postgres) ListWebhooks(ctx context.Context, tenantID string) ([]model.Webhook, error) {
	return p.queryWebhooks(ctx, `SELECT id::text, url, events, secret, created_at FROM webhooks WHERE tenant_id=$1 ORDER BY created_at`, tenantID)
}

func (p *Postgres) DeleteWebhook(ctx context.Context, tenantID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM webhooks WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// WebhooksForEvent matches an empty events array as "all events".
func (p *Postgres) WebhooksForEvent(ctx context.Context, tenantID, eventType string) ([]model.Webhook, error) {
	return p.queryWebhooks(ctx, `SELECT id::text, url, events, secret, created_at FROM webhooks
		WHERE tenant_id=$1 AND (jsonb_array_length(events) = 0 OR events ? $2) ORDER BY created_at`, tenantID, eventType)
}

func (p *Postgres) queryWebhooks(ctx context.Context, query string, args ...any) ([]model.Webhook, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Webhook{}
	for rows.Next() {
		wh := model.Webhook{TenantID: args[0].(string)}
		var events []byte
		if err := rows.Scan(&wh.ID, &wh.URL, &events, &wh.Secret, &wh.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(events, &wh.Events); err != nil {
			return nil, err
		}
		out = append(out, wh)
	}
	return out, rows.Err()
}
