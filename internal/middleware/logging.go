package middleware

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/gateway/pkg/httpcontext"
)

// RequestLog writes one line per request after it completes. The client
// address comes from adapter so it matches rate limiting and session metadata.
func RequestLog(log *zap.Logger, adapter *httpcontext.Adapter) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0, false)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			reqID := httpcontext.RequestID(ctx)

			next(ctx)

			status := ctx.Response.StatusCode()
			fields := []zap.Field{
				zap.String("request_id", reqID),
				zap.ByteString("method", ctx.Method()),
				zap.ByteString("path", ctx.Path()),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("client_ip", adapter.ClientIP(ctx)),
			}
			switch {
			case status >= fasthttp.StatusInternalServerError:
				log.Error("request", fields...)
			case status >= fasthttp.StatusBadRequest:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
		}
	}
}
