package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/gateway/api/transport"
	"github.com/fastygo/gateway/pkg/httpcontext"
	catalogUC "github.com/fastygo/gateway/usecase/catalog"
)

type ResourceHandler struct {
	baseHandler
	uc *catalogUC.UseCase
}

func NewResourceHandler(uc *catalogUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ResourceHandler {
	return &ResourceHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List the caller's services, newest first
// @Tags resources
// @Router /api/services [get]
func (h *ResourceHandler) Services(ctx *fasthttp.RequestCtx) {
	user, _, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	services, err := h.uc.ListServices(stdCtx, user.ID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.ServicesResponse{Success: true, Services: services})
}

// @Summary Latest published client version
// @Tags resources
// @Router /api/version [get]
func (h *ResourceHandler) Version(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	version, err := h.uc.LatestVersion(stdCtx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.VersionResponse{Success: true, Version: version})
}
