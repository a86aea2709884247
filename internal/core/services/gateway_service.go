package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/JeanGrijp/cascade-gateway/internal/core/codec"
	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
	"github.com/JeanGrijp/cascade-gateway/internal/core/pipeline"
	"github.com/JeanGrijp/cascade-gateway/internal/core/ports"
)

// Rotas públicas declaradas pelos presets.
const (
	RouteProfile = "profile"
	RouteFetch   = "fetch"
	RouteEval    = "eval"
	RouteAdmin   = "admin"
	RouteData    = "data"
)

// FetchReport é o corpo devolvido pelo proxy de fetch.
type FetchReport struct {
	URL        string `json:"url"`
	StatusCode int    `json:"statusCode"`
	Data       string `json:"data"`
	Encoding   string `json:"encoding"`
}

type GatewayConfig struct {
	Pipelines     map[string]*pipeline.Pipeline
	Renderer      ports.Renderer
	Fetcher       ports.Fetcher
	Evaluator     ports.Evaluator
	FetchEncoding codec.Chain
	FlagPath      string
	Clock         func() time.Time
}

// GatewayService conduz cada superfície pelo seu pipeline e só então chama o colaborador.
type GatewayService struct {
	cfg GatewayConfig
}

func NewGatewayService(cfg GatewayConfig) (*GatewayService, error) {
	for _, route := range []string{RouteProfile, RouteFetch, RouteEval} {
		if cfg.Pipelines[route] == nil {
			return nil, fmt.Errorf("pipeline for route %q is required", route)
		}
	}
	if cfg.Renderer == nil || cfg.Fetcher == nil || cfg.Evaluator == nil {
		return nil, fmt.Errorf("renderer, fetcher and evaluator are required")
	}
	if len(cfg.FetchEncoding) == 0 {
		return nil, fmt.Errorf("fetch encoding chain must not be empty")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &GatewayService{cfg: cfg}, nil
}

// AdminEnabled indica se o preset ativo expõe a rota de flag.
func (s *GatewayService) AdminEnabled() bool {
	return s.cfg.Pipelines[RouteAdmin] != nil
}

func (s *GatewayService) Profile(ctx context.Context, client domain.Client, username string) (string, error) {
	req := pipeline.NewRequest(RouteProfile, client, s.cfg.Clock()).Set("username", username)
	if err := s.cfg.Pipelines[RouteProfile].Run(ctx, req); err != nil {
		return "", err
	}
	html, err := s.cfg.Renderer.Render(ctx, domain.ProfileView{Username: req.Field("username"), Bio: req.Field("bio")})
	if err != nil {
		return "", upstream("render", err)
	}
	return html, nil
}

func (s *GatewayService) Fetch(ctx context.Context, client domain.Client, rawURL, sig string) (FetchReport, error) {
	req := pipeline.NewRequest(RouteFetch, client, s.cfg.Clock()).Set("url", rawURL).Set("sig", sig)
	if err := s.cfg.Pipelines[RouteFetch].Run(ctx, req); err != nil {
		return FetchReport{}, err
	}

	res, err := s.cfg.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return FetchReport{}, upstream("fetch", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return FetchReport{}, upstream("fetch", fmt.Errorf("upstream responded with status %d", res.StatusCode))
	}

	data, err := s.cfg.FetchEncoding.Produce(res.Body)
	if err != nil {
		return FetchReport{}, upstream("fetch", err)
	}
	return FetchReport{
		URL:        rawURL,
		StatusCode: res.StatusCode,
		Data:       string(data),
		Encoding:   s.cfg.FetchEncoding.String(),
	}, nil
}

func (s *GatewayService) Eval(ctx context.Context, client domain.Client, code string) (string, error) {
	req := pipeline.NewRequest(RouteEval, client, s.cfg.Clock()).Set("code", code)
	if err := s.cfg.Pipelines[RouteEval].Run(ctx, req); err != nil {
		return "", err
	}
	result, err := s.cfg.Evaluator.Evaluate(ctx, req.Field(pipeline.ExpressionField))
	if err != nil {
		return "", upstream("eval", err)
	}
	return result, nil
}

// Flag lê o artefato provisionado externamente. Só existe quando o preset declara a rota admin.
func (s *GatewayService) Flag(ctx context.Context, client domain.Client) (string, error) {
	p := s.cfg.Pipelines[RouteAdmin]
	if p == nil {
		return "", domain.ErrNotFound
	}
	if err := p.Run(ctx, pipeline.NewRequest(RouteAdmin, client, s.cfg.Clock())); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(s.cfg.FlagPath)
	if err != nil {
		log.Warn().Err(err).Str("path", s.cfg.FlagPath).Msg("flag artifact unavailable")
		return "", upstream("flag", errors.New("Flag not found"))
	}
	return strings.TrimSpace(string(raw)), nil
}

func upstream(op string, err error) error {
	if _, ok := domain.AsUpstreamError(err); ok {
		return err
	}
	log.Warn().Str("op", op).Err(err).Msg("upstream failure")
	return &domain.UpstreamError{Op: op, Err: err}
}
