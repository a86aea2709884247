package memory

import (
	"context"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
	"github.com/JeanGrijp/cascade-gateway/internal/core/ports"
)

type UserDirectory struct {
	users map[string]domain.User
}

var _ ports.UserDirectory = (*UserDirectory)(nil)

func NewUserDirectory(users ...domain.User) *UserDirectory {
	d := &UserDirectory{users: make(map[string]domain.User, len(users))}
	for _, u := range users {
		d.users[u.Username] = u
	}
	return d
}

// DefaultUsers é o diretório semeado na inicialização.
func DefaultUsers() []domain.User {
	return []domain.User{
		{ID: 1, Username: "user1", Email: "user1@example.com", Bio: "Hello world"},
		{ID: 2, Username: "user2", Email: "user2@example.com", Bio: "Another user"},
	}
}

func (d *UserDirectory) Lookup(_ context.Context, username string) (domain.User, error) {
	u, ok := d.users[username]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}
