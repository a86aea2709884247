package pipeline

import (
	"fmt"
	"sort"

	"github.com/JeanGrijp/cascade-gateway/internal/core/policy"
	"github.com/JeanGrijp/cascade-gateway/internal/core/ports"
)

// Identificadores de estágio aceitos nos presets.
const (
	StageRateLimit  = "ratelimit"
	StageRequired   = "required"
	StageLookup     = "lookup"
	StageSanitize   = "sanitize"
	StageClassify   = "classify"
	StageURLGuard   = "urlguard"
	StageSignature  = "signature"
	StageExpression = "expression"
)

// Builder transforma as rotas declaradas num policy.Set em pipelines.
// Dependências ausentes só são erro quando alguma rota as referencia.
type Builder struct {
	Policy    *policy.Set
	Limiter   ports.RateLimiter
	Directory ports.UserDirectory
	Observer  Observer
}

func (b *Builder) Build(route string) (*Pipeline, error) {
	specs, ok := b.Policy.Routes[route]
	if !ok {
		return nil, fmt.Errorf("route %q is not declared by policy %q", route, b.Policy.Name)
	}
	stages := make([]Stage, 0, len(specs))
	for i, spec := range specs {
		stage, err := b.stage(spec)
		if err != nil {
			return nil, fmt.Errorf("route %q stage %d (%s): %w", route, i, spec.Stage, err)
		}
		stages = append(stages, stage)
	}
	return New(route, b.Observer, stages...), nil
}

// BuildAll compila as rotas informadas, em ordem alfabética para erros determinísticos.
func (b *Builder) BuildAll(routes ...string) (map[string]*Pipeline, error) {
	sort.Strings(routes)
	out := make(map[string]*Pipeline, len(routes))
	for _, route := range routes {
		p, err := b.Build(route)
		if err != nil {
			return nil, err
		}
		out[route] = p
	}
	return out, nil
}

func (b *Builder) stage(spec policy.StageSpec) (Stage, error) {
	switch spec.Stage {
	case StageRateLimit:
		if b.Limiter == nil {
			return nil, fmt.Errorf("rate limiter is not configured")
		}
		if spec.Class == "" {
			return nil, fmt.Errorf("class is required")
		}
		return RateLimit(b.Limiter, spec.Class), nil
	case StageRequired:
		if spec.Field == "" {
			return nil, fmt.Errorf("field is required")
		}
		return Required(spec.Field, spec.Message), nil
	case StageLookup:
		if b.Directory == nil {
			return nil, fmt.Errorf("user directory is not configured")
		}
		return Lookup(b.Directory, spec.Field), nil
	case StageSanitize:
		s, ok := b.Policy.Sanitizers[spec.Ref]
		if !ok {
			return nil, fmt.Errorf("unknown sanitizer %q", spec.Ref)
		}
		return Sanitize(s, spec.Field), nil
	case StageClassify:
		chain, ok := b.Policy.Classifiers[spec.Ref]
		if !ok {
			return nil, fmt.Errorf("unknown classifier %q", spec.Ref)
		}
		return Classify(chain, spec.Field, spec.Message), nil
	case StageURLGuard:
		g, ok := b.Policy.URLGuards[spec.Ref]
		if !ok {
			return nil, fmt.Errorf("unknown url guard %q", spec.Ref)
		}
		return URLGuard(g, spec.Field, spec.Message), nil
	case StageSignature:
		s, ok := b.Policy.Signers[spec.Ref]
		if !ok {
			return nil, fmt.Errorf("unknown signer %q", spec.Ref)
		}
		if spec.PayloadField == "" || spec.TokenField == "" {
			return nil, fmt.Errorf("payload_field and token_field are required")
		}
		if s.RequiresTimestamp() && spec.TimestampField == "" {
			return nil, fmt.Errorf("signer %q has a freshness window but no timestamp_field", spec.Ref)
		}
		return Signature(s, spec.PayloadField, spec.TimestampField, spec.TokenField), nil
	case StageExpression:
		g, ok := b.Policy.Gates[spec.Ref]
		if !ok {
			return nil, fmt.Errorf("unknown gate %q", spec.Ref)
		}
		return Expression(g, spec.Field), nil
	default:
		return nil, fmt.Errorf("unknown stage %q", spec.Stage)
	}
}
