// Package middleware disponibiliza middlewares HTTP específicos da aplicação.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
)

type clientKey struct{}

// NewClientMiddleware resolve a identidade do chamador uma única vez por requisição.
// Cabeçalhos de proxy só são considerados quando trustProxy é verdadeiro.
func NewClientMiddleware(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := domain.Client{
				IP:    extractIP(r, trustProxy),
				Token: strings.TrimSpace(r.Header.Get("API_KEY")),
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientKey{}, client)))
		})
	}
}

// ClientFromRequest devolve o cliente resolvido pelo middleware, ou o RemoteAddr cru.
func ClientFromRequest(r *http.Request) domain.Client {
	if client, ok := r.Context().Value(clientKey{}).(domain.Client); ok {
		return client
	}
	return domain.Client{IP: extractIP(r, false)}
}

func extractIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
		if xForwardedFor != "" {
			parts := strings.Split(xForwardedFor, ",")
			if len(parts) > 0 {
				return strings.TrimSpace(parts[0])
			}
		}

		xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
		if xRealIP != "" {
			return xRealIP
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}

	return host
}
