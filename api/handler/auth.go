package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/gateway/api/transport"
	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/pkg/httpcontext"
	authUC "github.com/fastygo/gateway/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Exchange credentials for a session token
// @Tags auth
// @Router /api/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(domain.ErrCodeInvalid, domain.ErrInvalidPayload.Message))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.Login(stdCtx, authUC.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		DeviceID:  req.DeviceID,
		IPAddress: h.adapter.ClientIP(ctx),
		UserAgent: httpcontext.UserAgent(ctx),
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	h.respondJSON(ctx, http.StatusOK, transport.LoginResponse{
		Success:   true,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      res.User,
	})
}

// @Summary Invalidate the presented session
// @Tags auth
// @Router /api/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	_, session, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Logout(stdCtx, session.Token); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.LogoutResponse{Success: true})
}

// @Summary Invalidate every session of the caller
// @Tags auth
// @Router /api/sessions/revoke [post]
func (h *AuthHandler) RevokeAll(ctx *fasthttp.RequestCtx) {
	user, _, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	n, err := h.uc.RevokeAll(stdCtx, user.ID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.RevokeResponse{Success: true, Revoked: n})
}
