// Package domain concentra entidades e estruturas centrais do gateway.
package domain

import "time"

// Classes de rate limiting declaradas pelos presets.
const (
	ClassStandard = "standard"
	ClassLookup   = "lookup"
	ClassEval     = "eval"
)

type RateLimitRule struct {
	Requests      int           `yaml:"requests"`
	Window        time.Duration `yaml:"window"`
	BlockDuration time.Duration `yaml:"block_duration"`
}

// Valid indica se a regra possui valores utilizáveis.
func (r RateLimitRule) Valid() bool {
	return r.Requests > 0 && r.Window > 0
}

type RateLimitRequest struct {
	Class string
	IP    string
	Token string
}

type Decision struct {
	Allowed      bool
	Identifier   string
	AppliedRule  RateLimitRule
	CurrentCount int64
}

// Client identifica quem originou a requisição.
type Client struct {
	IP    string
	Token string
}
