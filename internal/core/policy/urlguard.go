package policy

// URLGuard decide se uma URL aponta para um destino proibido.
// A URL nunca é resolvida nem normalizada: representações numéricas ou
// codificadas alternativas de um endereço bloqueado passam.
type URLGuard struct {
	literals FilterChain
	ranges   FilterChain
}

type URLGuardSpec struct {
	BlockedSubstrings []string `yaml:"blocked_substrings"`
	BlockedPatterns   []string `yaml:"blocked_patterns"`
}

func NewURLGuard(spec URLGuardSpec) (*URLGuard, error) {
	ranges, err := PatternChain(spec.BlockedPatterns)
	if err != nil {
		return nil, err
	}
	return &URLGuard{literals: KeywordChain(spec.BlockedSubstrings), ranges: ranges}, nil
}

// Check devolve o rótulo da primeira regra que bloqueou a URL.
func (g *URLGuard) Check(rawURL string) (string, bool) {
	if label, ok := g.literals.Classify(rawURL); ok {
		return label, true
	}
	return g.ranges.Classify(rawURL)
}

func (g *URLGuard) IsBlocked(rawURL string) bool {
	_, blocked := g.Check(rawURL)
	return blocked
}
