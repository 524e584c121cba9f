package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/gateway/api/transport"
	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/pkg/httpcontext"
	"github.com/fastygo/gateway/pkg/logger"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0, false)
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return h.adapter.Attach(ctx)
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	transport.WriteJSON(ctx, status, payload)
}

// respondError renders err and logs server-side failures with their cause.
func (h baseHandler) respondError(stdCtx context.Context, ctx *fasthttp.RequestCtx, err error) {
	status, _ := transport.StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.WithRequestID(stdCtx, h.logger).Error("request failed",
			zap.ByteString("path", ctx.Path()),
			zap.Error(err))
	}
	transport.WriteError(ctx, err)
}

// identity returns the authenticated user; routes using it sit behind SessionAuth.
func (h baseHandler) identity(ctx *fasthttp.RequestCtx) (*domain.User, *domain.Session, bool) {
	user, session, ok := httpcontext.Identity(ctx)
	if !ok {
		transport.WriteJSON(ctx, http.StatusUnauthorized, transport.NewError(domain.ErrCodeUnauthorized, "authentication required"))
	}
	return user, session, ok
}
