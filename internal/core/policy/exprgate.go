package policy

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
)

const codePlaceholder = "{code}"

type GateSpec struct {
	Keywords           []string `yaml:"keywords"`
	EncodingPatterns   []string `yaml:"encoding_patterns"`
	MaxLength          int      `yaml:"max_length"`
	SuspiciousPatterns []string `yaml:"suspicious_patterns"`
	Template           string   `yaml:"template"`
}

// Gate valida código antes do avaliador. É puramente sintático.
type Gate struct {
	keywords   FilterChain
	encodings  FilterChain
	suspicious FilterChain
	maxLength  int
	template   string
}

func NewGate(spec GateSpec) (*Gate, error) {
	encodings, err := PatternChain(spec.EncodingPatterns)
	if err != nil {
		return nil, err
	}
	suspicious, err := PatternChain(spec.SuspiciousPatterns)
	if err != nil {
		return nil, err
	}
	if spec.MaxLength <= 0 {
		return nil, fmt.Errorf("gate max_length must be positive: %d", spec.MaxLength)
	}
	template := spec.Template
	if template == "" {
		template = "(function() { return {code}; })()"
	}
	if !strings.Contains(template, codePlaceholder) {
		return nil, fmt.Errorf("gate template must reference %s", codePlaceholder)
	}
	return &Gate{
		keywords:   KeywordChain(spec.Keywords),
		encodings:  encodings,
		suspicious: suspicious,
		maxLength:  spec.MaxLength,
		template:   template,
	}, nil
}

func (g *Gate) MaxLength() int {
	return g.maxLength
}

// Admit aplica as quatro verificações em ordem e para na primeira rejeição.
func (g *Gate) Admit(code string) error {
	if label, ok := g.keywords.Classify(code); ok {
		return &domain.ValidationError{Stage: domain.StageKeyword, Label: label, Message: "Blocked keyword: " + label}
	}
	if label, ok := g.encodings.Classify(code); ok {
		return &domain.ValidationError{Stage: domain.StageEncoding, Label: label, Message: "Encoding pattern detected and blocked"}
	}
	if codeUnits(code) > g.maxLength {
		return &domain.ValidationError{
			Stage:   domain.StageLength,
			Label:   "max_length",
			Message: fmt.Sprintf("Code too long. Maximum %d characters allowed.", g.maxLength),
		}
	}
	if label, ok := g.suspicious.Classify(code); ok {
		return &domain.ValidationError{Stage: domain.StageSuspicious, Label: label, Message: "Suspicious pattern detected"}
	}
	return nil
}

// codeUnits conta unidades UTF-16, como String.length no JavaScript.
func codeUnits(code string) int {
	n := 0
	for _, r := range code {
		n += utf16.RuneLen(r)
	}
	return n
}

// Wrap insere o código no template fixo entregue ao avaliador.
func (g *Gate) Wrap(code string) string {
	return strings.Replace(g.template, codePlaceholder, code, 1)
}
