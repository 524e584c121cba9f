package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/internal/infrastructure/ratelimit"
	"github.com/fastygo/gateway/pkg/httpcontext"
)

func newCtx(authorization string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.SetRequestURI("/api/services")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, &net.TCPAddr{IP: net.ParseIP("198.51.100.7"), Port: 41000}, nil)
	return ctx
}

func okHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBodyString("ok")
}

type fakeAuth struct {
	token string
	err   error
	seen  []string
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*domain.User, *domain.Session, error) {
	f.seen = append(f.seen, token)
	if f.err != nil {
		return nil, nil, f.err
	}
	if token == "" {
		return nil, nil, domain.ErrMissingToken
	}
	if token != f.token {
		return nil, nil, domain.ErrInvalidToken
	}
	return &domain.User{ID: "u1"}, &domain.Session{ID: "s1", Token: token}, nil
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
			return func(ctx *fasthttp.RequestCtx) {
				order = append(order, name)
				next(ctx)
			}
		}
	}

	h := Chain(func(*fasthttp.RequestCtx) { order = append(order, "handler") }, mark("outer"), nil, mark("inner"))
	h(newCtx(""))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestSessionAuthAcceptsValidToken(t *testing.T) {
	auth := &fakeAuth{token: "tok-1"}
	var userID string
	h := SessionAuth(auth, nil, nil)(func(ctx *fasthttp.RequestCtx) {
		user, _, ok := httpcontext.Identity(ctx)
		require.True(t, ok)
		userID = user.ID
		okHandler(ctx)
	})

	ctx := newCtx("Bearer tok-1")
	h(ctx)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "u1", userID)
}

func TestSessionAuthUniformRejection(t *testing.T) {
	auth := &fakeAuth{token: "tok-1"}
	h := SessionAuth(auth, nil, nil)(okHandler)

	var bodies []string
	for _, header := range []string{"", "Bearer", "Bearer tok-2", "Token   tok-3"} {
		ctx := newCtx(header)
		h(ctx)
		assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode(), header)
		bodies = append(bodies, string(ctx.Response.Body()))
	}
	for _, body := range bodies {
		assert.Equal(t, bodies[0], body)
	}
	assert.Contains(t, bodies[0], `"code":"UNAUTHORIZED"`)
	assert.Equal(t, []string{"", "", "tok-2", "tok-3"}, auth.seen)
}

func TestSessionAuthStorageFailure(t *testing.T) {
	auth := &fakeAuth{err: domain.StorageError("find session", errors.New("connection refused"))}
	h := SessionAuth(auth, nil, nil)(okHandler)

	ctx := newCtx("Bearer tok-1")
	h(ctx)
	assert.Equal(t, http.StatusInternalServerError, ctx.Response.StatusCode())
	assert.NotContains(t, string(ctx.Response.Body()), "connection refused")
}

type fakeAllower struct {
	decision ratelimit.Decision
	err      error
	keys     []string
}

func (f *fakeAllower) Allow(_ context.Context, key string) (ratelimit.Decision, error) {
	f.keys = append(f.keys, key)
	return f.decision, f.err
}

func TestRateLimitAllows(t *testing.T) {
	limiter := &fakeAllower{decision: ratelimit.Decision{Allowed: true, Limit: 100, Remaining: 99, ResetAt: time.Now().Add(time.Minute)}}
	ctx := newCtx("")
	RateLimit(limiter, nil, nil)(okHandler)(ctx)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "100", string(ctx.Response.Header.Peek("X-RateLimit-Limit")))
	assert.Equal(t, "99", string(ctx.Response.Header.Peek("X-RateLimit-Remaining")))
	assert.Equal(t, []string{"198.51.100.7"}, limiter.keys)
}

func TestRateLimitRejects(t *testing.T) {
	limiter := &fakeAllower{decision: ratelimit.Decision{Allowed: false, Limit: 100, Remaining: 0, ResetAt: time.Now().Add(30 * time.Second)}}
	called := false
	ctx := newCtx("")
	RateLimit(limiter, nil, nil)(func(*fasthttp.RequestCtx) { called = true })(ctx)

	assert.False(t, called)
	assert.Equal(t, http.StatusTooManyRequests, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"code":"RATE_LIMITED"`)
	assert.NotEmpty(t, ctx.Response.Header.Peek("Retry-After"))
	assert.Equal(t, "0", string(ctx.Response.Header.Peek("X-RateLimit-Remaining")))
}

func TestRateLimitFailsOpen(t *testing.T) {
	limiter := &fakeAllower{err: errors.New("redis down")}
	ctx := newCtx("")
	RateLimit(limiter, nil, nil)(okHandler)(ctx)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Empty(t, ctx.Response.Header.Peek("X-RateLimit-Limit"))
}

func TestRateLimitNilLimiter(t *testing.T) {
	ctx := newCtx("")
	RateLimit(nil, nil, nil)(okHandler)(ctx)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
}

func TestRecoverWritesJSON(t *testing.T) {
	ctx := newCtx("")
	Recover(nil)(func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString("partial")
		panic("boom")
	})(ctx)

	assert.Equal(t, http.StatusInternalServerError, ctx.Response.StatusCode())
	body := string(ctx.Response.Body())
	assert.True(t, strings.HasPrefix(body, "{"), body)
	assert.Contains(t, body, `"code":"INTERNAL"`)
	assert.NotContains(t, body, "boom")
}

func TestRequestLogPassesThrough(t *testing.T) {
	ctx := newCtx("")
	RequestLog(nil, nil)(okHandler)(ctx)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.NotEmpty(t, ctx.Response.Header.Peek("X-Request-ID"))
}

func TestRequestLogUsesForwardedClientIP(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	adapter := httpcontext.NewAdapter(time.Second, true)
	limiter := &fakeAllower{decision: ratelimit.Decision{Allowed: true, Limit: 10, Remaining: 9, ResetAt: time.Now().Add(time.Minute)}}

	ctx := newCtx("")
	ctx.Request.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	Chain(okHandler, RequestLog(zap.New(core), adapter), RateLimit(limiter, adapter, nil))(ctx)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "203.0.113.9", entries[0].ContextMap()["client_ip"])
	assert.Equal(t, []string{"203.0.113.9"}, limiter.keys)
}
