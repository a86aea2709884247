// Package fetcher implementa o fetch de saída do proxy.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
	"github.com/JeanGrijp/cascade-gateway/internal/core/ports"
)

const (
	DefaultTimeout  = 5 * time.Second
	DefaultMaxBytes = 1 << 20
)

type Config struct {
	Timeout  time.Duration
	MaxBytes int64
}

// HTTPFetcher faz um único GET por chamada: sem retry e sem seguir redirects.
// O contexto da requisição de entrada aborta o fetch quando o cliente desconecta.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
	observe  func(time.Duration, error)
}

var _ ports.Fetcher = (*HTTPFetcher)(nil)

func New(cfg Config) *HTTPFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxBytes: cfg.MaxBytes,
	}
}

// WithObserver registra um callback com a duração de cada fetch.
func (f *HTTPFetcher) WithObserver(observe func(time.Duration, error)) *HTTPFetcher {
	f.observe = observe
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (res domain.FetchResult, err error) {
	if f.observe != nil {
		start := time.Now()
		defer func() { f.observe(time.Since(start), err) }()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.FetchResult{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return domain.FetchResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return domain.FetchResult{}, err
	}
	if int64(len(body)) > f.maxBytes {
		return domain.FetchResult{}, fmt.Errorf("response body exceeds %d bytes", f.maxBytes)
	}
	return domain.FetchResult{URL: rawURL, StatusCode: resp.StatusCode, Body: body}, nil
}
