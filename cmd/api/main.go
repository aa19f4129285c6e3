package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"itinopt/internal/api"
	"itinopt/internal/buildinfo"
	"itinopt/internal/config"
	"itinopt/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "path to a YAML config file (default config/itinopt.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	log.Logger = logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	srvDeps, err := api.NewServer(cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init server")
	}
	defer func() { _ = srvDeps.Close() }()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srvDeps.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Interface("build", buildinfo.Info()).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return srvDeps.Webhooks.Run(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
