package services

import (
	"context"
	"testing"
	"time"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
)

func standardRules(requests int) map[string]domain.RateLimitRule {
	return map[string]domain.RateLimitRule{
		domain.ClassStandard: {Requests: requests, Window: time.Second},
	}
}

func TestRateLimiter_AllowsWithinClassLimit(t *testing.T) {
	storage := newMockStorage()
	service := newTestLimiter(t, storage, Config{ClassRules: standardRules(3)})

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision, err := service.Allow(ctx, domain.RateLimitRequest{Class: domain.ClassStandard, IP: "192.168.1.1"})
		if err != nil {
			t.Fatalf("unexpected error at attempt %d: %v", i+1, err)
		}
		if !decision.Allowed {
			t.Fatalf("expected request %d to be allowed", i+1)
		}
		if decision.CurrentCount != int64(i+1) {
			t.Fatalf("expected count %d, got %d", i+1, decision.CurrentCount)
		}
	}
}

func TestRateLimiter_RejectsAfterCapacity(t *testing.T) {
	storage := newMockStorage()
	service := newTestLimiter(t, storage, Config{ClassRules: standardRules(2)})

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := service.Allow(ctx, domain.RateLimitRequest{IP: "10.0.0.1"}); err != nil {
			t.Fatalf("unexpected error on warmup %d: %v", i+1, err)
		}
	}

	decision, err := service.Allow(ctx, domain.RateLimitRequest{IP: "10.0.0.1"})
	if err == nil || !domain.IsBlockedError(err) {
		t.Fatalf("expected blocked error, got decision=%+v err=%v", decision, err)
	}
	if decision.Allowed {
		t.Fatalf("expected decision.Allowed=false after exceeding limit")
	}
	if len(storage.blocks) != 0 {
		t.Fatalf("expected no block key without block duration, got %v", storage.blocks)
	}
}

func TestRateLimiter_BlockDurationShortCircuits(t *testing.T) {
	storage := newMockStorage()
	service := newTestLimiter(t, storage, Config{ClassRules: map[string]domain.RateLimitRule{
		domain.ClassStandard: {Requests: 1, Window: time.Second, BlockDuration: time.Minute},
	}})

	ctx := context.Background()
	req := domain.RateLimitRequest{IP: "10.0.0.2"}

	if _, err := service.Allow(ctx, req); err != nil {
		t.Fatalf("unexpected error on first request: %v", err)
	}
	if _, err := service.Allow(ctx, req); !domain.IsBlockedError(err) {
		t.Fatalf("expected blocked error, got %v", err)
	}

	countBefore := storage.counts["ratelimit:standard:ip:10.0.0.2"]
	// Once blocked, the next call should be short-circuited by IsBlocked.
	if _, err := service.Allow(ctx, req); !domain.IsBlockedError(err) {
		t.Fatalf("expected blocked error on subsequent call, got %v", err)
	}
	if storage.counts["ratelimit:standard:ip:10.0.0.2"] != countBefore {
		t.Fatalf("blocked call must not touch the counter")
	}
}

func TestRateLimiter_ClassesAreIndependent(t *testing.T) {
	storage := newMockStorage()
	service := newTestLimiter(t, storage, Config{ClassRules: map[string]domain.RateLimitRule{
		domain.ClassStandard: {Requests: 5, Window: time.Second},
		domain.ClassEval:     {Requests: 1, Window: time.Second},
	}})

	ctx := context.Background()
	ip := "198.51.100.7"

	if _, err := service.Allow(ctx, domain.RateLimitRequest{Class: domain.ClassEval, IP: ip}); err != nil {
		t.Fatalf("unexpected error on eval request: %v", err)
	}
	if _, err := service.Allow(ctx, domain.RateLimitRequest{Class: domain.ClassEval, IP: ip}); !domain.IsBlockedError(err) {
		t.Fatalf("expected eval class to be exhausted, got %v", err)
	}
	decision, err := service.Allow(ctx, domain.RateLimitRequest{Class: domain.ClassStandard, IP: ip})
	if err != nil || !decision.Allowed {
		t.Fatalf("expected standard class to be untouched, decision=%+v err=%v", decision, err)
	}
}

func TestRateLimiter_UnknownClassFallsBackToStandard(t *testing.T) {
	storage := newMockStorage()
	service := newTestLimiter(t, storage, Config{ClassRules: standardRules(1)})

	decision, err := service.Allow(context.Background(), domain.RateLimitRequest{Class: "mystery", IP: "203.0.113.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.AppliedRule.Requests != 1 {
		t.Fatalf("expected standard rule, got %+v", decision.AppliedRule)
	}
	if _, ok := storage.counts["ratelimit:standard:ip:203.0.113.1"]; !ok {
		t.Fatalf("expected counter under standard class, got %v", storage.counts)
	}
}

func TestRateLimiter_UsesTokenOverride(t *testing.T) {
	storage := newMockStorage()
	tokenRule := domain.RateLimitRule{
		Requests:      5,
		Window:        time.Second,
		BlockDuration: time.Minute,
	}

	service := newTestLimiter(t, storage, Config{
		ClassRules: standardRules(1),
		TokenRules: map[string]domain.RateLimitRule{
			"abc123": tokenRule,
		},
	})

	ctx := context.Background()

	for i := 0; i < tokenRule.Requests; i++ {
		decision, err := service.Allow(ctx, domain.RateLimitRequest{IP: "203.0.113.10", Token: "abc123"})
		if err != nil {
			t.Fatalf("unexpected error for token request %d: %v", i+1, err)
		}
		if !decision.Allowed {
			t.Fatalf("expected token request %d to be allowed", i+1)
		}
		if decision.AppliedRule != tokenRule {
			t.Fatalf("expected token rule to be applied, got %+v", decision.AppliedRule)
		}
	}
}

func TestRateLimiter_UnknownTokenUsesIP(t *testing.T) {
	storage := newMockStorage()
	service := newTestLimiter(t, storage, Config{ClassRules: standardRules(1)})

	ctx := context.Background()

	if decision, err := service.Allow(ctx, domain.RateLimitRequest{IP: "198.51.100.5", Token: "dynamic"}); err != nil || !decision.Allowed {
		t.Fatalf("expected first request to be allowed, decision=%+v err=%v", decision, err)
	}
	// Sem override o token não cria uma identidade nova.
	if _, err := service.Allow(ctx, domain.RateLimitRequest{IP: "198.51.100.5", Token: "other"}); !domain.IsBlockedError(err) {
		t.Fatalf("expected blocked error keyed by ip, got %v", err)
	}
}

func TestRateLimiter_RequiresIPWithoutTokenOverride(t *testing.T) {
	service := newTestLimiter(t, newMockStorage(), Config{ClassRules: standardRules(1)})

	if _, err := service.Allow(context.Background(), domain.RateLimitRequest{}); err == nil {
		t.Fatalf("expected error when ip is missing")
	}
}

func TestNewRateLimiterService_ValidatesRules(t *testing.T) {
	if _, err := NewRateLimiterService(nil, Config{ClassRules: standardRules(1)}); err == nil {
		t.Fatalf("expected error for nil storage")
	}
	if _, err := NewRateLimiterService(newMockStorage(), Config{}); err == nil {
		t.Fatalf("expected error when standard class is missing")
	}
	_, err := NewRateLimiterService(newMockStorage(), Config{ClassRules: map[string]domain.RateLimitRule{
		domain.ClassStandard: {Requests: 1, Window: time.Second},
		domain.ClassEval:     {Requests: 0, Window: time.Second},
	}})
	if err == nil {
		t.Fatalf("expected error for invalid eval rule")
	}
}

func TestNewRateLimiterService_ValidatesTokenRules(t *testing.T) {
	_, err := NewRateLimiterService(newMockStorage(), Config{
		ClassRules: standardRules(1),
		TokenRules: map[string]domain.RateLimitRule{"abc": {Requests: 0, Window: 0}},
	})
	if err == nil {
		t.Fatalf("expected error for zero token rule")
	}

	_, err = NewRateLimiterService(newMockStorage(), Config{
		ClassRules: standardRules(1),
		TokenRules: map[string]domain.RateLimitRule{"abc": {Requests: 5, Window: 0}},
	})
	if err == nil {
		t.Fatalf("expected error for token rule without window")
	}
}

// newTestLimiter is a helper that fails the test immediately if creation fails.
func newTestLimiter(t *testing.T, storage *mockStorage, cfg Config) *RateLimiterService {
	t.Helper()
	service, err := NewRateLimiterService(storage, cfg)
	if err != nil {
		t.Fatalf("failed to create rate limiter service: %v", err)
	}
	return service
}

type mockStorage struct {
	counts map[string]int64
	blocks map[string]time.Time
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		counts: make(map[string]int64),
		blocks: make(map[string]time.Time),
	}
}

func (m *mockStorage) Increment(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.counts[key]++
	return m.counts[key], nil
}

func (m *mockStorage) IsBlocked(_ context.Context, key string) (bool, error) {
	expiration, ok := m.blocks[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiration) {
		delete(m.blocks, key)
		return false, nil
	}
	return true, nil
}

func (m *mockStorage) SetBlock(_ context.Context, key string, duration time.Duration) error {
	if duration <= 0 {
		delete(m.blocks, key)
		return nil
	}
	m.blocks[key] = time.Now().Add(duration)
	return nil
}
