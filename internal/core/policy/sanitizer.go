package policy

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// Sanitizer remove cada padrão em sequência, numa única passada.
// Um token que só aparece depois de uma remoção posterior sobrevive.
type Sanitizer struct {
	rules []*regexp2.Regexp
}

func NewSanitizer(exprs []string) (*Sanitizer, error) {
	rules := make([]*regexp2.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := compilePattern(expr)
		if err != nil {
			return nil, fmt.Errorf("compile sanitizer rule %q: %w", expr, err)
		}
		rules = append(rules, re)
	}
	return &Sanitizer{rules: rules}, nil
}

// Sanitize devolve "" se alguma regra estourar MatchTimeout.
func (s *Sanitizer) Sanitize(input string) string {
	out := input
	for _, re := range s.rules {
		replaced, err := re.Replace(out, "", -1, -1)
		if err != nil {
			return ""
		}
		out = replaced
	}
	return out
}
