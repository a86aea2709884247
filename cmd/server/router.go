package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JeanGrijp/cascade-gateway/internal/adapters/evaluator"
	"github.com/JeanGrijp/cascade-gateway/internal/adapters/fetcher"
	httpHandlers "github.com/JeanGrijp/cascade-gateway/internal/adapters/http/handlers"
	httpMiddleware "github.com/JeanGrijp/cascade-gateway/internal/adapters/http/middleware"
	"github.com/JeanGrijp/cascade-gateway/internal/adapters/metrics"
	"github.com/JeanGrijp/cascade-gateway/internal/adapters/render"
	memorystorage "github.com/JeanGrijp/cascade-gateway/internal/adapters/storage/memory"
	"github.com/JeanGrijp/cascade-gateway/internal/adapters/telemetry"
	"github.com/JeanGrijp/cascade-gateway/internal/config"
	"github.com/JeanGrijp/cascade-gateway/internal/core/codec"
	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
	"github.com/JeanGrijp/cascade-gateway/internal/core/pipeline"
	"github.com/JeanGrijp/cascade-gateway/internal/core/policy"
	"github.com/JeanGrijp/cascade-gateway/internal/core/ports"
	"github.com/JeanGrijp/cascade-gateway/internal/core/services"
)

// newGatewayRouter monta o gateway público a partir da política compilada.
func newGatewayRouter(cfg config.Config, set *policy.Set, storage ports.Storage) (http.Handler, error) {
	limiter, err := services.NewRateLimiterService(storage, services.Config{
		ClassRules: cfg.RateLimiter.Apply(set.RateLimits),
		TokenRules: cloneRules(cfg.RateLimiter.TokenRules),
	})
	if err != nil {
		return nil, fmt.Errorf("create limiter: %w", err)
	}

	var (
		recorder        *metrics.Recorder
		stageObserver   pipeline.Observer
		requestObserver httpMiddleware.RequestObserver
	)
	if cfg.Metrics {
		recorder = metrics.New("cascade")
		stageObserver = recorder
		requestObserver = recorder
	}

	builder := pipeline.Builder{
		Policy:    set,
		Limiter:   limiter,
		Directory: memorystorage.NewUserDirectory(memorystorage.DefaultUsers()...),
		Observer:  stageObserver,
	}
	routes := []string{services.RouteProfile, services.RouteFetch, services.RouteEval}
	if set.AdminFlag {
		routes = append(routes, services.RouteAdmin)
	}
	pipelines, err := builder.BuildAll(routes...)
	if err != nil {
		return nil, err
	}

	fetchEncoding, err := codec.ParseChain(set.Fetch.ResponseChain)
	if err != nil {
		return nil, fmt.Errorf("fetch response chain: %w", err)
	}
	httpFetcher := fetcher.New(fetcher.Config{Timeout: cfg.Fetch.Timeout, MaxBytes: cfg.Fetch.MaxBytes})
	if recorder != nil {
		httpFetcher = httpFetcher.WithObserver(recorder.ObserveFetch)
	}
	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		return nil, err
	}

	gateway, err := services.NewGatewayService(services.GatewayConfig{
		Pipelines:     pipelines,
		Renderer:      renderer,
		Fetcher:       httpFetcher,
		Evaluator:     evaluator.NewGojaEvaluator(cfg.Eval.Timeout),
		FetchEncoding: fetchEncoding,
		FlagPath:      cfg.FlagFile,
	})
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(telemetry.HTTPMiddleware("cascade-gateway"))
	r.Use(httpMiddleware.NewRequestLogger(requestObserver))
	r.Use(httpMiddleware.NewClientMiddleware(cfg.Server.TrustProxyHeaders))
	httpHandlers.NewGatewayHandler(gateway).Register(r)
	if recorder != nil {
		r.Handle("/metrics", recorder.Handler())
	}
	return r, nil
}

func cloneRules(src map[string]domain.RateLimitRule) map[string]domain.RateLimitRule {
	if src == nil {
		return nil
	}
	clone := make(map[string]domain.RateLimitRule, len(src))
	for k, v := range src {
		clone[k] = v
	}
	return clone
}
