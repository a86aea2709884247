package policy

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// StageSpec declara um estágio de pipeline e seus parâmetros.
type StageSpec struct {
	Stage          string `yaml:"stage"`
	Class          string `yaml:"class,omitempty"`
	Field          string `yaml:"field,omitempty"`
	Ref            string `yaml:"ref,omitempty"`
	Message        string `yaml:"message,omitempty"`
	PayloadField   string `yaml:"payload_field,omitempty"`
	TimestampField string `yaml:"timestamp_field,omitempty"`
	TokenField     string `yaml:"token_field,omitempty"`
}

type PayloadSpec struct {
	Plaintext  string   `yaml:"plaintext"`
	InnerChain []string `yaml:"inner_chain"`
	OuterChain []string `yaml:"outer_chain"`
	Algorithm  string   `yaml:"algorithm"`
	Hint       string   `yaml:"hint"`
	Message    string   `yaml:"message"`
}

type FetchSpec struct {
	ResponseChain []string `yaml:"response_chain"`
}

// Preset é uma variante de implantação completa: limites, regras e rotas.
type Preset struct {
	Name        string                          `yaml:"name"`
	AdminFlag   bool                            `yaml:"admin_flag"`
	RateLimits  map[string]domain.RateLimitRule `yaml:"rate_limits"`
	Classifiers map[string][]RuleSpec           `yaml:"classifiers"`
	Sanitizers  map[string][]string             `yaml:"sanitizers"`
	URLGuards   map[string]URLGuardSpec         `yaml:"url_guards"`
	Signers     map[string]SignerSpec           `yaml:"signers"`
	Gates       map[string]GateSpec             `yaml:"gates"`
	Fetch       FetchSpec                       `yaml:"fetch"`
	Payload     PayloadSpec                     `yaml:"payload"`
	Routes      map[string][]StageSpec          `yaml:"routes"`
}

// PresetNames lista os presets embutidos.
func PresetNames() []string {
	entries, err := presetFS.ReadDir("presets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// LoadPreset carrega um preset embutido pelo nome.
func LoadPreset(name string) (Preset, error) {
	raw, err := presetFS.ReadFile("presets/" + strings.ToLower(strings.TrimSpace(name)) + ".yaml")
	if err != nil {
		return Preset{}, fmt.Errorf("unknown policy preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return ParsePreset(raw)
}

// LoadPresetFile carrega um preset de um arquivo YAML externo.
func LoadPresetFile(path string) (Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePreset(raw)
}

func ParsePreset(raw []byte) (Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Preset{}, fmt.Errorf("decode policy preset: %w", err)
	}
	if len(p.Routes) == 0 {
		return Preset{}, fmt.Errorf("policy preset %q declares no routes", p.Name)
	}
	return p, nil
}
