package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/JeanGrijp/cascade-gateway/internal/adapters/logging"
	memorystorage "github.com/JeanGrijp/cascade-gateway/internal/adapters/storage/memory"
	redisstorage "github.com/JeanGrijp/cascade-gateway/internal/adapters/storage/redis"
	"github.com/JeanGrijp/cascade-gateway/internal/adapters/telemetry"
	"github.com/JeanGrijp/cascade-gateway/internal/config"
	"github.com/JeanGrijp/cascade-gateway/internal/core/policy"
	"github.com/JeanGrijp/cascade-gateway/internal/core/ports"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "cascade-gateway")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init telemetry")
	}

	set, err := policy.Load(cfg.Policy.Preset, cfg.Policy.File)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load policy")
	}

	storage, closeFn, err := initStorage(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init storage")
	}
	defer closeFn()

	handler, err := newGatewayRouter(cfg, set, storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build gateway")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
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
	log.Info().Str("port", cfg.Server.Port).Str("policy", set.Name).Str("storage", cfg.Storage.Type).Msg("gateway listening")

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

func initStorage(cfg config.StorageConfig) (ports.Storage, func(), error) {
	switch cfg.Type {
	case "memory":
		return memorystorage.NewWindowStorage(cfg.MaxKeys), func() {}, nil
	case "redis":
		redisCfg := redisstorage.Config{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		storage, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return storage, func() {
			if err := storage.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close redis storage")
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
