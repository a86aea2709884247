package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
	"github.com/JeanGrijp/cascade-gateway/internal/core/ports"
)

// Config agrega os limites utilizados pelo serviço de rate limiting.
type Config struct {
	ClassRules map[string]domain.RateLimitRule
	TokenRules map[string]domain.RateLimitRule
}

// RateLimiterService implementa a lógica central de rate limiting.
type RateLimiterService struct {
	storage ports.Storage
	config  Config
}

var _ ports.RateLimiter = (*RateLimiterService)(nil)

// NewRateLimiterService cria uma nova instância do serviço.
func NewRateLimiterService(storage ports.Storage, cfg Config) (*RateLimiterService, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if rule, ok := cfg.ClassRules[domain.ClassStandard]; !ok || !rule.Valid() {
		return nil, fmt.Errorf("%s class rule must have positive values", domain.ClassStandard)
	}
	for class, rule := range cfg.ClassRules {
		if !rule.Valid() {
			return nil, fmt.Errorf("%s class rule must have positive values", class)
		}
	}
	for token, rule := range cfg.TokenRules {
		if !rule.Valid() {
			return nil, fmt.Errorf("token %q rule must have positive values", token)
		}
	}
	if cfg.TokenRules == nil {
		cfg.TokenRules = make(map[string]domain.RateLimitRule)
	}

	return &RateLimiterService{storage: storage, config: cfg}, nil
}

// Allow avalia se a requisição pode prosseguir de acordo com as regras configuradas.
func (s *RateLimiterService) Allow(ctx context.Context, req domain.RateLimitRequest) (domain.Decision, error) {
	rule, keys, err := s.resolveRule(req)
	if err != nil {
		return domain.Decision{}, err
	}

	blocked, err := s.storage.IsBlocked(ctx, keys.blockKey)
	if err != nil {
		return domain.Decision{}, err
	}
	if blocked {
		return domain.Decision{Allowed: false, Identifier: keys.identifier, AppliedRule: rule}, domain.ErrBlocked
	}

	currentCount, err := s.storage.Increment(ctx, keys.counterKey, rule.Window)
	if err != nil {
		return domain.Decision{}, err
	}

	if int(currentCount) > rule.Requests {
		if rule.BlockDuration > 0 {
			if setErr := s.storage.SetBlock(ctx, keys.blockKey, rule.BlockDuration); setErr != nil {
				return domain.Decision{}, setErr
			}
		}
		return domain.Decision{Allowed: false, Identifier: keys.identifier, AppliedRule: rule, CurrentCount: currentCount}, domain.ErrBlocked
	}

	return domain.Decision{Allowed: true, Identifier: keys.identifier, AppliedRule: rule, CurrentCount: currentCount}, nil
}

type resolvedKeys struct {
	counterKey string
	blockKey   string
	identifier string
}

func (s *RateLimiterService) resolveRule(req domain.RateLimitRequest) (domain.RateLimitRule, resolvedKeys, error) {
	class := strings.ToLower(strings.TrimSpace(req.Class))
	classRule, ok := s.config.ClassRules[class]
	if !ok {
		class = domain.ClassStandard
		classRule = s.config.ClassRules[domain.ClassStandard]
	}

	token := strings.TrimSpace(req.Token)
	if token != "" {
		if rule, ok := s.config.TokenRules[token]; ok {
			return rule, buildKeys(class, "token", token), nil
		}
	}

	ip := strings.TrimSpace(req.IP)
	if ip == "" {
		return domain.RateLimitRule{}, resolvedKeys{}, fmt.Errorf("ip address is required when token has no override")
	}

	return classRule, buildKeys(class, "ip", ip), nil
}

func buildKeys(class, prefix, identifier string) resolvedKeys {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	return resolvedKeys{
		counterKey: fmt.Sprintf("ratelimit:%s:%s:%s", class, prefix, identifier),
		blockKey:   fmt.Sprintf("ratelimit:%s:%s:%s:block", class, prefix, identifier),
		identifier: identifier,
	}
}
