package httpcontext

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/gateway/domain"
	appLogger "github.com/fastygo/gateway/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeyUserID     Key = "user_id"
)

// fasthttp user value keys.
const (
	userValueRequestID = "httpcontext.request_id"
	userValueUser      = "httpcontext.user"
	userValueSession   = "httpcontext.session"
)

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout    time.Duration
	trustProxy bool
}

// NewAdapter constructs a new Adapter. With trustProxy the first X-Forwarded-For
// hop is taken as the client address.
func NewAdapter(timeout time.Duration, trustProxy bool) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout:    timeout,
		trustProxy: trustProxy,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches it with request metadata.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	stdCtx = appLogger.ContextWithRequestID(stdCtx, RequestID(ctx))
	stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, a.ClientIP(ctx))
	if ua := UserAgent(ctx); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	if user, _, ok := Identity(ctx); ok {
		stdCtx = context.WithValue(stdCtx, KeyUserID, user.ID)
	}

	return stdCtx, cancel
}

// ClientIP returns the caller address used for session metadata and rate limiting.
func (a *Adapter) ClientIP(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return ""
	}
	if a != nil && a.trustProxy {
		if fwd := string(ctx.Request.Header.Peek("X-Forwarded-For")); fwd != "" {
			first := strings.TrimSpace(strings.Split(fwd, ",")[0])
			if ip := net.ParseIP(first); ip != nil {
				return ip.String()
			}
		}
	}
	return ctx.RemoteIP().String()
}

func UserAgent(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return ""
	}
	return string(ctx.Request.Header.UserAgent())
}

// RequestID returns a stable id for the request: the inbound X-Request-ID when
// present, otherwise a generated one. It is echoed on the response.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if id, ok := ctx.UserValue(userValueRequestID).(string); ok && id != "" {
		return id
	}
	id := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID")))
	if id == "" {
		id = uuid.NewString()
	}
	ctx.SetUserValue(userValueRequestID, id)
	ctx.Response.Header.Set("X-Request-ID", id)
	return id
}

// SetIdentity records the authenticated user and session for downstream handlers.
func SetIdentity(ctx *fasthttp.RequestCtx, user *domain.User, session *domain.Session) {
	ctx.SetUserValue(userValueUser, user)
	ctx.SetUserValue(userValueSession, session)
}

// Identity returns what SetIdentity stored; ok is false on unauthenticated requests.
func Identity(ctx *fasthttp.RequestCtx) (*domain.User, *domain.Session, bool) {
	if ctx == nil {
		return nil, nil, false
	}
	user, _ := ctx.UserValue(userValueUser).(*domain.User)
	session, _ := ctx.UserValue(userValueSession).(*domain.Session)
	if user == nil || session == nil {
		return nil, nil, false
	}
	return user, session, true
}
