package memory

import (
	"context"
	"testing"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
)

func TestUserDirectory_Lookup(t *testing.T) {
	dir := NewUserDirectory(DefaultUsers()...)

	user, err := dir.Lookup(context.Background(), "user1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Bio != "Hello world" {
		t.Fatalf("unexpected bio: %q", user.Bio)
	}

	if _, err := dir.Lookup(context.Background(), "USER1"); !domain.IsNotFoundError(err) {
		t.Fatalf("expected lookups to be exact, got %v", err)
	}
	if _, err := dir.Lookup(context.Background(), ""); !domain.IsNotFoundError(err) {
		t.Fatalf("expected not found for empty username, got %v", err)
	}
}
