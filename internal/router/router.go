package router

import (
	"net/http"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/gateway/api/handler"
	"github.com/fastygo/gateway/api/transport"
	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/internal/middleware"
	"github.com/fastygo/gateway/pkg/httpcontext"
)

type Handlers struct {
	Auth     *apiHandler.AuthHandler
	Resource *apiHandler.ResourceHandler
	Health   *apiHandler.HealthHandler
}

type Options struct {
	// Auth guards protected routes.
	Auth middleware.Middleware
	// RateLimit applies to every route when set.
	RateLimit           middleware.Middleware
	VersionRequiresAuth bool
	// Adapter resolves client addresses for the access log.
	Adapter *httpcontext.Adapter
	Logger  *zap.Logger
}

// New builds the route table and wraps it in the global middleware chain.
func New(handlers Handlers, opts Options) fasthttp.RequestHandler {
	r := router.New()
	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		transport.WriteJSON(ctx, http.StatusNotFound, transport.NewError(domain.ErrCodeNotFound, "route not found"))
	}
	r.MethodNotAllowed = func(ctx *fasthttp.RequestCtx) {
		transport.WriteJSON(ctx, http.StatusMethodNotAllowed, transport.NewError(domain.ErrCodeInvalid, "method not allowed"))
	}

	protect := opts.Auth
	if protect == nil {
		protect = func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}

	r.GET("/", handlers.Health.Root)
	r.GET("/api/health", handlers.Health.Check)
	r.GET("/api/health/full", handlers.Health.Full)

	// Auth routes
	r.POST("/api/login", handlers.Auth.Login)
	r.POST("/api/logout", protect(handlers.Auth.Logout))
	r.POST("/api/sessions/revoke", protect(handlers.Auth.RevokeAll))

	// Resources
	r.GET("/api/services", protect(handlers.Resource.Services))
	if opts.VersionRequiresAuth {
		r.GET("/api/version", protect(handlers.Resource.Version))
	} else {
		r.GET("/api/version", handlers.Resource.Version)
	}

	return middleware.Chain(r.Handler,
		middleware.Recover(opts.Logger),
		middleware.RequestLog(opts.Logger, opts.Adapter),
		opts.RateLimit,
	)
}
