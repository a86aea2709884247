package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	httpHandlers "github.com/JeanGrijp/cascade-gateway/internal/adapters/http/handlers"
	httpMiddleware "github.com/JeanGrijp/cascade-gateway/internal/adapters/http/middleware"
	"github.com/JeanGrijp/cascade-gateway/internal/adapters/telemetry"
	"github.com/JeanGrijp/cascade-gateway/internal/core/pipeline"
	"github.com/JeanGrijp/cascade-gateway/internal/core/policy"
	"github.com/JeanGrijp/cascade-gateway/internal/core/services"
)

func newInternalRouter(set *policy.Set) (http.Handler, error) {
	builder := pipeline.Builder{Policy: set}
	gate, err := builder.Build(services.RouteData)
	if err != nil {
		return nil, err
	}
	payloads, err := services.NewPayloadService(gate, set.Payload, nil)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(telemetry.HTTPMiddleware("cascade-internal"))
	r.Use(httpMiddleware.NewRequestLogger(nil))
	r.Use(httpMiddleware.NewClientMiddleware(false))
	httpHandlers.NewPayloadHandler(payloads).Register(r)
	return r, nil
}
