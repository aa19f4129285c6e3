// Package webhooks delivers plan events to URLs registered by tenants.
// Deliveries are queued in memory, signed when the registration carries a
// secret, and retried with exponential backoff.
package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"itinopt/internal/metrics"
	"itinopt/internal/model"
)

// Source lists the registrations subscribed to an event type.
type Source interface {
	WebhooksForEvent(ctx context.Context, tenantID, eventType string) ([]model.Webhook, error)
}

// Options tunes delivery. Zero fields take the defaults of NewDispatcher.
type Options struct {
	MaxAttempts int
	Timeout     time.Duration
	Workers     int
	QueueSize   int
	BaseDelay   time.Duration
}

const maxBackoff = time.Minute

// Payload is the JSON body posted to every webhook.
type Payload struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TenantID  string    `json:"tenantId"`
	Timestamp time.Time `json:"ts"`
	Data      any       `json:"data"`
}

type delivery struct {
	webhookID string
	url       string
	secret    string
	eventID   string
	eventType string
	body      []byte
}

type Dispatcher struct {
	src   Source
	http  *http.Client
	opts  Options
	queue chan delivery
	log   zerolog.Logger
}

func NewDispatcher(src Source, opts Options, log zerolog.Logger) *Dispatcher {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	return &Dispatcher{
		src:   src,
		http:  &http.Client{Timeout: opts.Timeout},
		opts:  opts,
		queue: make(chan delivery, opts.QueueSize),
		log:   log.With().Str("component", "webhooks").Logger(),
	}
}

// Emit queues eventType for every matching registration of tenantID. It
// never waits for delivery; when the queue is full the event is dropped.
func (d *Dispatcher) Emit(ctx context.Context, tenantID, eventType string, data any) {
	hooks, err := d.src.WebhooksForEvent(ctx, tenantID, eventType)
	if err != nil {
		d.log.Warn().Err(err).Str("tenant", tenantID).Msg("webhook lookup failed")
		return
	}
	if len(hooks) == 0 {
		return
	}
	p := Payload{ID: uuid.NewString(), Type: eventType, TenantID: tenantID, Timestamp: time.Now().UTC(), Data: data}
	body, err := json.Marshal(p)
	if err != nil {
		d.log.Error().Err(err).Str("event", eventType).Msg("webhook payload not encodable")
		return
	}
	for _, h := range hooks {
		dl := delivery{webhookID: h.ID, url: h.URL, secret: h.Secret, eventID: p.ID, eventType: eventType, body: body}
		select {
		case d.queue <- dl:
		default:
			metrics.WebhookDeliveries.WithLabelValues("dropped").Inc()
			d.log.Warn().Str("webhook_id", h.ID).Str("event", eventType).Msg("webhook queue full, event dropped")
		}
	}
}

// Run delivers queued events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < d.opts.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case dl := <-d.queue:
					d.deliver(ctx, dl)
				}
			}
		})
	}
	return g.Wait()
}

// deliver posts dl until it succeeds, fails permanently or runs out of
// attempts. It reports whether the receiver accepted the event.
func (d *Dispatcher) deliver(ctx context.Context, dl delivery) bool {
	log := d.log.With().Str("webhook_id", dl.webhookID).Str("event", dl.eventType).Str("event_id", dl.eventID).Logger()
	for attempt := 0; attempt < d.opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(d.backoff(attempt - 1))
			select {
			case <-ctx.Done():
				t.Stop()
				return false
			case <-t.C:
			}
		}
		start := time.Now()
		code, err := d.post(ctx, dl)
		ev := log.Debug()
		if err != nil || code >= 300 {
			ev = log.Warn().Err(err)
		}
		ev.Int("attempt", attempt+1).Int("code", code).Dur("latency", time.Since(start)).Msg("webhook attempt")
		if err == nil && code >= 200 && code < 300 {
			metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()
			return true
		}
		if err == nil && permanent(code) {
			break
		}
	}
	metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
	log.Error().Msg("webhook delivery abandoned")
	return false
}

func (d *Dispatcher) post(ctx context.Context, dl delivery) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dl.url, bytes.NewReader(dl.body))
	if err != nil {
		return 0, err
	}
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", dl.eventType)
	req.Header.Set("X-Event-Id", dl.eventID)
	req.Header.Set("X-Timestamp", ts)
	if dl.secret != "" {
		req.Header.Set("X-Signature", Sign(dl.secret, ts, dl.body))
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// permanent reports client errors that a retry cannot fix.
func permanent(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusRequestTimeout && code != http.StatusTooManyRequests
}

func (d *Dispatcher) backoff(attempt int) time.Duration {
	if attempt > 10 {
		attempt = 10
	}
	b := d.opts.BaseDelay * time.Duration(1<<attempt)
	if b > maxBackoff {
		b = maxBackoff
	}
	return b
}
