package api

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"itinopt/internal/auth"
	"itinopt/internal/config"
	"itinopt/internal/mip/bnb"
	"itinopt/internal/opt"
	"itinopt/internal/store"
	"itinopt/internal/webhooks"
)

type Server struct {
	Store    store.Store
	Planner  *opt.Planner
	Broker   EventBroker
	// Webhooks is optional; when nil plan events only reach the broker.
	Webhooks *webhooks.Dispatcher
	Auth     *auth.Verifier
	Config   config.Config
	Log      zerolog.Logger
	limiter  *tenantLimiter
	runs     *runLog
}

// NewServer wires the service from cfg. An empty DatabaseURL selects the
// in-memory store; an empty RedisURL selects the in-memory broker.
func NewServer(cfg config.Config, log zerolog.Logger) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.DBMigrate {
			if err := sp.MigrateDir(cfg.MigrationsDir); err != nil {
				log.Error().Err(err).Str("dir", cfg.MigrationsDir).Msg("migrations failed")
			}
		}
		s = sp
	}

	var broker EventBroker = NewBroker()
	if cfg.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.RedisURL, log)
		if err != nil {
			log.Warn().Err(err).Msg("redis broker unavailable, using in-memory broker")
		} else {
			broker = rb
		}
	}

	verifier, err := auth.NewVerifier(cfg.Auth.Mode, cfg.Auth.HMACSecret)
	if err != nil {
		return nil, err
	}

	hooks := webhooks.NewDispatcher(s, webhooks.Options{
		MaxAttempts: cfg.Webhooks.MaxAttempts,
		Timeout:     time.Duration(cfg.Webhooks.TimeoutSeconds) * time.Second,
		Workers:     cfg.Webhooks.Workers,
		QueueSize:   cfg.Webhooks.QueueSize,
	}, log)

	return &Server{
		Store:    s,
		Planner:  opt.NewPlanner(bnb.Factory(bnb.WithLogger(log)), log),
		Broker:   broker,
		Webhooks: hooks,
		Auth:     verifier,
		Config:   cfg,
		Log:      log,
		limiter:  newTenantLimiter(cfg.RateRPS, cfg.RateBurst),
		runs:     newRunLog(),
	}, nil
}

// Close releases the store and broker connections.
func (s *Server) Close() error {
	if c, ok := s.Broker.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	if c, ok := s.Store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// publish sends evt to stream subscribers of topic and to the tenant's
// webhooks.
func (s *Server) publish(ctx context.Context, tenant, topic string, evt Event) {
	s.Broker.Publish(topic, evt)
	if s.Webhooks != nil {
		s.Webhooks.Emit(ctx, tenant, evt.Type, evt.Data)
	}
}

type ctxKeyTenant struct{}

func withTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, ctxKeyTenant{}, tenant)
}

// tenantFrom returns the tenant stored by the auth middleware.
func tenantFrom(ctx context.Context) string {
	if t, ok := ctx.Value(ctxKeyTenant{}).(string); ok {
		return t
	}
	return ""
}
