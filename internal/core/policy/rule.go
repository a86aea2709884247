// Package policy reúne os filtros sintáticos aplicados antes dos colaboradores externos.
// Todos os tipos são imutáveis depois de construídos e podem ser usados concorrentemente.
package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// MatchTimeout limita o backtracking de cada regra sobre a entrada do cliente.
const MatchTimeout = 100 * time.Millisecond

// compilePattern usa o dialeto ECMAScript: \s, \w, \b e . seguem as classes
// do JavaScript, não as do RE2.
func compilePattern(expr string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(expr, regexp2.ECMAScript)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = MatchTimeout
	return re, nil
}

// FilterRule é uma palavra-chave (substring sem diferenciar maiúsculas) ou uma regex.
type FilterRule struct {
	Label   string
	keyword string
	pattern *regexp2.Regexp
}

func Keyword(label, keyword string) FilterRule {
	if label == "" {
		label = keyword
	}
	return FilterRule{Label: label, keyword: strings.ToLower(keyword)}
}

// Pattern compila expr exatamente como declarada; sensibilidade a maiúsculas vem de (?i).
func Pattern(label, expr string) (FilterRule, error) {
	re, err := compilePattern(expr)
	if err != nil {
		return FilterRule{}, fmt.Errorf("compile rule %q: %w", label, err)
	}
	if label == "" {
		label = expr
	}
	return FilterRule{Label: label, pattern: re}, nil
}

func (r FilterRule) Match(input string) bool {
	if r.pattern != nil {
		matched, err := r.pattern.MatchString(input)
		// Tempo esgotado conta como casamento.
		return matched || err != nil
	}
	if r.keyword == "" {
		return false
	}
	return strings.Contains(strings.ToLower(input), r.keyword)
}

// FilterChain é avaliada da esquerda para a direita; a primeira regra que casa vence.
type FilterChain []FilterRule

func (c FilterChain) Classify(input string) (string, bool) {
	for _, rule := range c {
		if rule.Match(input) {
			return rule.Label, true
		}
	}
	return "", false
}

// RuleSpec é a forma declarativa de uma FilterRule nos presets.
type RuleSpec struct {
	Label   string `yaml:"label"`
	Keyword string `yaml:"keyword"`
	Pattern string `yaml:"pattern"`
}

func (s RuleSpec) Compile() (FilterRule, error) {
	switch {
	case s.Keyword != "" && s.Pattern != "":
		return FilterRule{}, fmt.Errorf("rule %q: keyword and pattern are mutually exclusive", s.Label)
	case s.Keyword != "":
		return Keyword(s.Label, s.Keyword), nil
	case s.Pattern != "":
		return Pattern(s.Label, s.Pattern)
	default:
		return FilterRule{}, fmt.Errorf("rule %q: keyword or pattern is required", s.Label)
	}
}

func CompileChain(specs []RuleSpec) (FilterChain, error) {
	chain := make(FilterChain, 0, len(specs))
	for _, spec := range specs {
		rule, err := spec.Compile()
		if err != nil {
			return nil, err
		}
		chain = append(chain, rule)
	}
	return chain, nil
}

// KeywordChain monta uma cadeia só de palavras-chave, rotuladas por elas mesmas.
func KeywordChain(keywords []string) FilterChain {
	chain := make(FilterChain, 0, len(keywords))
	for _, kw := range keywords {
		chain = append(chain, Keyword(kw, kw))
	}
	return chain
}

func PatternChain(exprs []string) (FilterChain, error) {
	chain := make(FilterChain, 0, len(exprs))
	for _, expr := range exprs {
		rule, err := Pattern(expr, expr)
		if err != nil {
			return nil, err
		}
		chain = append(chain, rule)
	}
	return chain, nil
}
