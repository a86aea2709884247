package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JeanGrijp/cascade-gateway/internal/core/codec"
	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
	"github.com/JeanGrijp/cascade-gateway/internal/core/pipeline"
	"github.com/JeanGrijp/cascade-gateway/internal/core/policy"
)

type payloadDocument struct {
	Encrypted string `json:"encrypted"`
	Algorithm string `json:"algorithm"`
	Hint      string `json:"hint"`
}

// PayloadService é o serviço interno que entrega o blob em camadas após validar o token.
type PayloadService struct {
	gate  *pipeline.Pipeline
	inner codec.Chain
	outer codec.Chain
	spec  policy.PayloadSpec
	clock func() time.Time
}

func NewPayloadService(gate *pipeline.Pipeline, spec policy.PayloadSpec, clock func() time.Time) (*PayloadService, error) {
	if gate == nil {
		return nil, fmt.Errorf("payload pipeline is required")
	}
	inner, err := codec.ParseChain(spec.InnerChain)
	if err != nil {
		return nil, fmt.Errorf("inner chain: %w", err)
	}
	outer, err := codec.ParseChain(spec.OuterChain)
	if err != nil {
		return nil, fmt.Errorf("outer chain: %w", err)
	}
	if len(outer) == 0 {
		return nil, fmt.Errorf("outer chain must not be empty")
	}
	if clock == nil {
		clock = time.Now
	}
	return &PayloadService{gate: gate, inner: inner, outer: outer, spec: spec, clock: clock}, nil
}

func (s *PayloadService) Data(ctx context.Context, client domain.Client, token, ts string) (domain.DataEnvelope, error) {
	req := pipeline.NewRequest(RouteData, client, s.clock()).Set("token", token).Set("ts", ts)
	if err := s.gate.Run(ctx, req); err != nil {
		return domain.DataEnvelope{}, err
	}
	return s.Produce()
}

// Produce monta o envelope: texto interno pela cadeia interna, documento JSON pela externa.
func (s *PayloadService) Produce() (domain.DataEnvelope, error) {
	encrypted, err := s.inner.Produce([]byte(s.spec.Plaintext))
	if err != nil {
		return domain.DataEnvelope{}, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	doc := payloadDocument{Encrypted: string(encrypted), Algorithm: s.spec.Algorithm, Hint: s.spec.Hint}
	if err := enc.Encode(doc); err != nil {
		return domain.DataEnvelope{}, fmt.Errorf("render payload document: %w", err)
	}

	blob, err := s.outer.Produce(bytes.TrimRight(buf.Bytes(), "\n"))
	if err != nil {
		return domain.DataEnvelope{}, err
	}
	return domain.DataEnvelope{Data: string(blob), Encoding: s.outer.String(), Message: s.spec.Message}, nil
}
