// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"
	"time"
)

// Storage mantém as janelas de contagem. Increment deve ser atômico por chave:
// inicia uma nova janela com contagem 1 quando a anterior expirou.
type Storage interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	IsBlocked(ctx context.Context, key string) (bool, error)
	SetBlock(ctx context.Context, key string, duration time.Duration) error
}
