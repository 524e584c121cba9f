package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/gateway/api/transport"
	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/pkg/httpcontext"
	"github.com/fastygo/gateway/pkg/logger"
)

// Authenticator resolves a bearer token to its user and session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, *domain.Session, error)
}

// SessionAuth rejects requests without a valid session token and records the
// resolved identity for downstream handlers. A missing token and an unknown,
// inactive or expired one produce the same response.
func SessionAuth(auth Authenticator, adapter *httpcontext.Adapter, log *zap.Logger) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0, false)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			stdCtx, cancel := adapter.Attach(ctx)
			user, session, err := auth.Authenticate(stdCtx, extractToken(ctx))
			cancel()

			if err != nil {
				reqLog := logger.WithRequestID(stdCtx, log)
				switch {
				case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
					reqLog.Debug("authentication failed", zap.String("reason", "missing_token"))
				case domain.IsDomainError(err, domain.ErrCodeForbidden):
					reqLog.Warn("authentication failed", zap.String("reason", "invalid_token"),
						zap.String("client_ip", adapter.ClientIP(ctx)))
				default:
					reqLog.Error("authentication lookup failed", zap.Error(err))
					transport.WriteError(ctx, err)
					return
				}
				transport.WriteJSON(ctx, http.StatusUnauthorized,
					transport.NewError(domain.ErrCodeUnauthorized, "authentication required"))
				return
			}

			httpcontext.SetIdentity(ctx, user, session)
			next(ctx)
		}
	}
}

// extractToken returns the second whitespace-delimited field of the Authorization header.
func extractToken(ctx *fasthttp.RequestCtx) string {
	fields := strings.Fields(string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
