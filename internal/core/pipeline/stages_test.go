package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
	"github.com/JeanGrijp/cascade-gateway/internal/core/policy"
)

type stubLimiter struct {
	decision domain.Decision
	err      error
	requests []domain.RateLimitRequest
}

func (l *stubLimiter) Allow(_ context.Context, req domain.RateLimitRequest) (domain.Decision, error) {
	l.requests = append(l.requests, req)
	return l.decision, l.err
}

type stubDirectory map[string]domain.User

func (d stubDirectory) Lookup(_ context.Context, username string) (domain.User, error) {
	user, ok := d[username]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func newReq(fields map[string]string) *Request {
	req := NewRequest("test", domain.Client{IP: "203.0.113.9", Token: "tok"}, time.Unix(1700000000, 0))
	for k, v := range fields {
		req.Set(k, v)
	}
	return req
}

func TestRateLimitStage(t *testing.T) {
	ctx := context.Background()

	allowed := &stubLimiter{decision: domain.Decision{Allowed: true}}
	stage := RateLimit(allowed, domain.ClassEval)
	require.Equal(t, "ratelimit:eval", stage.Name())
	require.NoError(t, stage.Apply(ctx, newReq(nil)))
	require.Equal(t, []domain.RateLimitRequest{{Class: domain.ClassEval, IP: "203.0.113.9", Token: "tok"}}, allowed.requests)

	denied := &stubLimiter{decision: domain.Decision{Allowed: false}}
	require.ErrorIs(t, RateLimit(denied, domain.ClassEval).Apply(ctx, newReq(nil)), domain.ErrBlocked)

	blocked := &stubLimiter{err: domain.ErrBlocked}
	require.True(t, domain.IsBlockedError(RateLimit(blocked, domain.ClassEval).Apply(ctx, newReq(nil))))
}

func TestRequiredStage(t *testing.T) {
	err := Required("code", "").Apply(context.Background(), newReq(nil))
	v, ok := domain.AsValidationError(err)
	require.True(t, ok)
	require.Equal(t, domain.StageRequired, v.Stage)
	require.Equal(t, "Missing code parameter", v.Error())

	require.NoError(t, Required("code", "").Apply(context.Background(), newReq(map[string]string{"code": "1"})))
}

func TestLookupStage(t *testing.T) {
	dir := stubDirectory{"user1": {ID: 1, Username: "user1", Bio: "Hello world"}}

	req := newReq(map[string]string{"username": "user1"})
	require.NoError(t, Lookup(dir, "").Apply(context.Background(), req))
	require.Equal(t, "Hello world", req.Field("bio"))

	err := Lookup(dir, "").Apply(context.Background(), newReq(map[string]string{"username": "ghost"}))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSanitizeThenClassify(t *testing.T) {
	set, err := policy.Load("strict", "")
	require.NoError(t, err)

	req := newReq(map[string]string{"bio": "$${{x}}"})
	require.NoError(t, Sanitize(set.Sanitizers["template"], "bio").Apply(context.Background(), req))
	require.Equal(t, "${x}}", req.Field("bio"))

	err = Classify(set.Classifiers["template_markers"], "bio", "Blocked template content").Apply(context.Background(), req)
	v, ok := domain.AsValidationError(err)
	require.True(t, ok)
	require.Equal(t, domain.StagePattern, v.Stage)
	require.Equal(t, "interpolation", v.Label)
	require.Equal(t, "Blocked template content: interpolation", v.Error())
}

func TestURLGuardStage(t *testing.T) {
	set, err := policy.Load("strict", "")
	require.NoError(t, err)
	stage := URLGuard(set.URLGuards["fetch"], "url", "")

	err = stage.Apply(context.Background(), newReq(map[string]string{"url": "http://127.0.0.1/"}))
	v, ok := domain.AsValidationError(err)
	require.True(t, ok)
	require.Equal(t, domain.StageURL, v.Stage)
	require.Equal(t, "Blocked URL pattern", v.Error())

	require.NoError(t, stage.Apply(context.Background(), newReq(map[string]string{"url": "http://example.com/"})))
}

func TestSignatureStage_UsesRequestClock(t *testing.T) {
	set, err := policy.Load("strict", "")
	require.NoError(t, err)
	signer := set.Signers["data"]
	stage := Signature(signer, "ts", "ts", "token")

	fresh := newReq(map[string]string{"ts": "1700000000", "token": signer.Derive("1700000000")})
	require.NoError(t, stage.Apply(context.Background(), fresh))

	stale := newReq(map[string]string{"ts": "1699999000", "token": signer.Derive("1699999000")})
	a, ok := domain.AsAuthError(stage.Apply(context.Background(), stale))
	require.True(t, ok)
	require.Equal(t, domain.AuthExpired, a.Reason)
}

func TestExpressionStage_WrapsAdmittedCode(t *testing.T) {
	set, err := policy.Load("strict", "")
	require.NoError(t, err)
	stage := Expression(set.Gates["eval"], "code")

	req := newReq(map[string]string{"code": "1+1"})
	require.NoError(t, stage.Apply(context.Background(), req))
	require.Equal(t, "(function() { return 1+1; })()", req.Field(ExpressionField))

	req = newReq(map[string]string{"code": "require('fs')"})
	require.Error(t, stage.Apply(context.Background(), req))
	require.Empty(t, req.Field(ExpressionField))
}
