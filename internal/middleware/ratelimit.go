package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/gateway/api/transport"
	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/internal/infrastructure/ratelimit"
	"github.com/fastygo/gateway/pkg/httpcontext"
)

type Allower interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
}

// RateLimit caps requests per client address within a fixed window. When the
// counter store fails the request is let through.
func RateLimit(limiter Allower, adapter *httpcontext.Adapter, log *zap.Logger) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0, false)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		if limiter == nil {
			return next
		}
		return func(ctx *fasthttp.RequestCtx) {
			stdCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			decision, err := limiter.Allow(stdCtx, adapter.ClientIP(ctx))
			cancel()
			if err != nil {
				log.Warn("rate limit store unavailable", zap.Error(err))
				next(ctx)
				return
			}

			h := &ctx.Response.Header
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				retry := int(time.Until(decision.ResetAt).Seconds()) + 1
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				transport.WriteJSON(ctx, http.StatusTooManyRequests,
					transport.NewError(domain.ErrCodeRateLimited, domain.ErrRateLimited.Message))
				return
			}
			next(ctx)
		}
	}
}
