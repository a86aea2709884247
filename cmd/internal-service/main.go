package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/JeanGrijp/cascade-gateway/internal/adapters/logging"
	"github.com/JeanGrijp/cascade-gateway/internal/adapters/telemetry"
	"github.com/JeanGrijp/cascade-gateway/internal/config"
	"github.com/JeanGrijp/cascade-gateway/internal/core/policy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "cascade-internal")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init telemetry")
	}

	set, err := policy.Load(cfg.Policy.Preset, cfg.Policy.File)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load policy")
	}

	handler, err := newInternalRouter(set)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build internal service")
	}

	// Escuta apenas no host interno; o serviço não deve ser exposto publicamente.
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Internal.Host, cfg.Internal.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil {
			errCh <- err
		}
	}()
	log.Info().Str("addr", srv.Addr).Str("policy", set.Name).Msg("internal service listening")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracer shutdown failed")
	}
}
