package ports

import (
	"context"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
)

// UserDirectory resolve usuários pelo nome. Retorna domain.ErrNotFound quando ausente.
type UserDirectory interface {
	Lookup(ctx context.Context, username string) (domain.User, error)
}

type Renderer interface {
	Render(ctx context.Context, view domain.ProfileView) (string, error)
}

// Evaluator executa uma expressão já embrulhada pelo gate e devolve o resultado como string.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string) (string, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (domain.FetchResult, error)
}
