// Package pipeline encadeia os estágios de defesa declarados por rota.
// A primeira rejeição encerra a avaliação; estágios posteriores não rodam.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
)

// Request carrega o estado de uma requisição através dos estágios.
// Estágios de transformação (lookup, sanitize, expression) reescrevem Fields.
type Request struct {
	Route  string
	Client domain.Client
	Fields map[string]string
	Now    time.Time
}

func NewRequest(route string, client domain.Client, now time.Time) *Request {
	return &Request{Route: route, Client: client, Fields: make(map[string]string), Now: now}
}

func (r *Request) Field(name string) string {
	return r.Fields[name]
}

func (r *Request) Set(name, value string) *Request {
	r.Fields[name] = value
	return r
}

type Stage interface {
	Name() string
	Apply(ctx context.Context, req *Request) error
}

// Observer recebe o estágio que rejeitou a requisição.
type Observer interface {
	StageRejected(route, stage string, err error)
}

type Pipeline struct {
	route    string
	stages   []Stage
	observer Observer
}

func New(route string, observer Observer, stages ...Stage) *Pipeline {
	return &Pipeline{route: route, stages: stages, observer: observer}
}

func (p *Pipeline) Route() string {
	return p.route
}

// Stages devolve os nomes dos estágios na ordem de avaliação.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

func (p *Pipeline) Run(ctx context.Context, req *Request) error {
	if req.Route == "" {
		req.Route = p.route
	}
	for _, stage := range p.stages {
		if err := stage.Apply(ctx, req); err != nil {
			log.Debug().Str("route", p.route).Str("stage", stage.Name()).Err(err).Msg("pipeline rejected request")
			if p.observer != nil {
				p.observer.StageRejected(p.route, stage.Name(), err)
			}
			return err
		}
	}
	return nil
}
