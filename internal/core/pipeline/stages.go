package pipeline

import (
	"context"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
	"github.com/JeanGrijp/cascade-gateway/internal/core/policy"
	"github.com/JeanGrijp/cascade-gateway/internal/core/ports"
)

// ExpressionField recebe a expressão embrulhada pelo gate.
const ExpressionField = "expression"

type rateLimitStage struct {
	limiter ports.RateLimiter
	class   string
}

func RateLimit(limiter ports.RateLimiter, class string) Stage {
	return &rateLimitStage{limiter: limiter, class: class}
}

func (s *rateLimitStage) Name() string { return "ratelimit:" + s.class }

func (s *rateLimitStage) Apply(ctx context.Context, req *Request) error {
	decision, err := s.limiter.Allow(ctx, domain.RateLimitRequest{Class: s.class, IP: req.Client.IP, Token: req.Client.Token})
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return domain.ErrBlocked
	}
	return nil
}

type requiredStage struct {
	field   string
	message string
}

func Required(field, message string) Stage {
	if message == "" {
		message = "Missing " + field + " parameter"
	}
	return &requiredStage{field: field, message: message}
}

func (s *requiredStage) Name() string { return "required:" + s.field }

func (s *requiredStage) Apply(_ context.Context, req *Request) error {
	if req.Field(s.field) == "" {
		return &domain.ValidationError{Stage: domain.StageRequired, Label: s.field, Message: s.message}
	}
	return nil
}

type lookupStage struct {
	directory ports.UserDirectory
	field     string
}

// Lookup resolve o usuário em field e publica username e bio canônicos.
func Lookup(directory ports.UserDirectory, field string) Stage {
	if field == "" {
		field = "username"
	}
	return &lookupStage{directory: directory, field: field}
}

func (s *lookupStage) Name() string { return "lookup" }

func (s *lookupStage) Apply(ctx context.Context, req *Request) error {
	user, err := s.directory.Lookup(ctx, req.Field(s.field))
	if err != nil {
		return err
	}
	req.Set("username", user.Username).Set("bio", user.Bio)
	return nil
}

type sanitizeStage struct {
	sanitizer *policy.Sanitizer
	field     string
}

func Sanitize(sanitizer *policy.Sanitizer, field string) Stage {
	return &sanitizeStage{sanitizer: sanitizer, field: field}
}

func (s *sanitizeStage) Name() string { return "sanitize:" + s.field }

func (s *sanitizeStage) Apply(_ context.Context, req *Request) error {
	req.Set(s.field, s.sanitizer.Sanitize(req.Field(s.field)))
	return nil
}

type classifyStage struct {
	chain   policy.FilterChain
	field   string
	message string
}

func Classify(chain policy.FilterChain, field, message string) Stage {
	if message == "" {
		message = "Blocked pattern"
	}
	return &classifyStage{chain: chain, field: field, message: message}
}

func (s *classifyStage) Name() string { return "classify:" + s.field }

func (s *classifyStage) Apply(_ context.Context, req *Request) error {
	if label, ok := s.chain.Classify(req.Field(s.field)); ok {
		return &domain.ValidationError{Stage: domain.StagePattern, Label: label, Message: s.message + ": " + label}
	}
	return nil
}

type urlGuardStage struct {
	guard   *policy.URLGuard
	field   string
	message string
}

func URLGuard(guard *policy.URLGuard, field, message string) Stage {
	if message == "" {
		message = "Blocked URL pattern"
	}
	return &urlGuardStage{guard: guard, field: field, message: message}
}

func (s *urlGuardStage) Name() string { return "urlguard:" + s.field }

func (s *urlGuardStage) Apply(_ context.Context, req *Request) error {
	if label, blocked := s.guard.Check(req.Field(s.field)); blocked {
		return &domain.ValidationError{Stage: domain.StageURL, Label: label, Message: s.message}
	}
	return nil
}

type signatureStage struct {
	signer         *policy.Signer
	payloadField   string
	timestampField string
	tokenField     string
}

func Signature(signer *policy.Signer, payloadField, timestampField, tokenField string) Stage {
	return &signatureStage{signer: signer, payloadField: payloadField, timestampField: timestampField, tokenField: tokenField}
}

func (s *signatureStage) Name() string { return "signature:" + s.tokenField }

func (s *signatureStage) Apply(_ context.Context, req *Request) error {
	var ts string
	if s.timestampField != "" {
		ts = req.Field(s.timestampField)
	}
	return s.signer.Verify(req.Field(s.payloadField), ts, req.Field(s.tokenField), req.Now)
}

type expressionStage struct {
	gate  *policy.Gate
	field string
}

func Expression(gate *policy.Gate, field string) Stage {
	return &expressionStage{gate: gate, field: field}
}

func (s *expressionStage) Name() string { return "expression:" + s.field }

func (s *expressionStage) Apply(_ context.Context, req *Request) error {
	code := req.Field(s.field)
	if err := s.gate.Admit(code); err != nil {
		return err
	}
	req.Set(ExpressionField, s.gate.Wrap(code))
	return nil
}
