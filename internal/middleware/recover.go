package middleware

import (
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/gateway/api/transport"
	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/pkg/httpcontext"
)

// Recover turns a panic anywhere below it into a JSON 500.
func Recover(log *zap.Logger) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered",
						zap.String("request_id", httpcontext.RequestID(ctx)),
						zap.ByteString("path", ctx.Path()),
						zap.String("panic", fmt.Sprint(rec)),
						zap.Stack("stack"))
					ctx.ResetBody()
					transport.WriteJSON(ctx, http.StatusInternalServerError,
						transport.NewError(domain.ErrCodeInternal, "internal server error"))
				}
			}()
			next(ctx)
		}
	}
}
