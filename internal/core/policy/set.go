package policy

import (
	"fmt"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
)

// Set é um preset compilado: cada regra nomeada já está pronta para uso.
type Set struct {
	Name        string
	AdminFlag   bool
	RateLimits  map[string]domain.RateLimitRule
	Classifiers map[string]FilterChain
	Sanitizers  map[string]*Sanitizer
	URLGuards   map[string]*URLGuard
	Signers     map[string]*Signer
	Gates       map[string]*Gate
	Fetch       FetchSpec
	Payload     PayloadSpec
	Routes      map[string][]StageSpec
}

func Compile(p Preset) (*Set, error) {
	set := &Set{
		Name:        p.Name,
		AdminFlag:   p.AdminFlag,
		RateLimits:  make(map[string]domain.RateLimitRule, len(p.RateLimits)),
		Classifiers: make(map[string]FilterChain, len(p.Classifiers)),
		Sanitizers:  make(map[string]*Sanitizer, len(p.Sanitizers)),
		URLGuards:   make(map[string]*URLGuard, len(p.URLGuards)),
		Signers:     make(map[string]*Signer, len(p.Signers)),
		Gates:       make(map[string]*Gate, len(p.Gates)),
		Fetch:       p.Fetch,
		Payload:     p.Payload,
		Routes:      p.Routes,
	}

	for class, rule := range p.RateLimits {
		if !rule.Valid() {
			return nil, fmt.Errorf("rate limit class %q must have positive requests and window", class)
		}
		set.RateLimits[class] = rule
	}
	for name, specs := range p.Classifiers {
		chain, err := CompileChain(specs)
		if err != nil {
			return nil, fmt.Errorf("classifier %q: %w", name, err)
		}
		set.Classifiers[name] = chain
	}
	for name, exprs := range p.Sanitizers {
		s, err := NewSanitizer(exprs)
		if err != nil {
			return nil, fmt.Errorf("sanitizer %q: %w", name, err)
		}
		set.Sanitizers[name] = s
	}
	for name, spec := range p.URLGuards {
		g, err := NewURLGuard(spec)
		if err != nil {
			return nil, fmt.Errorf("url guard %q: %w", name, err)
		}
		set.URLGuards[name] = g
	}
	for name, spec := range p.Signers {
		s, err := NewSigner(spec)
		if err != nil {
			return nil, fmt.Errorf("signer %q: %w", name, err)
		}
		set.Signers[name] = s
	}
	for name, spec := range p.Gates {
		g, err := NewGate(spec)
		if err != nil {
			return nil, fmt.Errorf("gate %q: %w", name, err)
		}
		set.Gates[name] = g
	}
	return set, nil
}

// Load carrega e compila um preset. Um arquivo, quando informado, tem precedência sobre o nome.
func Load(name, file string) (*Set, error) {
	var (
		p   Preset
		err error
	)
	if file != "" {
		p, err = LoadPresetFile(file)
	} else {
		p, err = LoadPreset(name)
	}
	if err != nil {
		return nil, err
	}
	return Compile(p)
}
