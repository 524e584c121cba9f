package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/gateway/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

func NewError(code domain.ErrorCode, message string) ErrorResponse {
	return ErrorResponse{Code: string(code), Error: message}
}

type RootResponse struct {
	Success bool   `json:"success"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

type HealthResponse struct {
	Success       bool            `json:"success"`
	Status        string          `json:"status"`
	Timestamp     time.Time       `json:"timestamp"`
	UptimeSeconds *float64        `json:"uptime_seconds,omitempty"`
	Checks        map[string]bool `json:"checks,omitempty"`
}

type LoginResponse struct {
	Success   bool              `json:"success"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      domain.PublicUser `json:"user"`
}

type ServicesResponse struct {
	Success  bool             `json:"success"`
	Services []domain.Service `json:"services"`
}

type VersionResponse struct {
	Success bool            `json:"success"`
	Version *domain.Version `json:"version"`
}

type LogoutResponse struct {
	Success bool `json:"success"`
}

type RevokeResponse struct {
	Success bool  `json:"success"`
	Revoked int64 `json:"revoked"`
}

// WriteJSON serializes payload with the given status.
func WriteJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(NewError(domain.ErrCodeInternal, "internal server error"))
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

// WriteError renders err with the status derived from its domain code.
func WriteError(ctx *fasthttp.RequestCtx, err error) {
	status, code := StatusFor(err)
	WriteJSON(ctx, status, NewError(code, domain.PublicMessage(err)))
}

// StatusFor maps an error to an HTTP status and wire code.
func StatusFor(err error) (int, domain.ErrorCode) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, domain.ErrCodeInvalid
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, domain.ErrCodeUnauthorized
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, domain.ErrCodeForbidden
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, domain.ErrCodeNotFound
	case domain.IsDomainError(err, domain.ErrCodeRateLimited):
		return http.StatusTooManyRequests, domain.ErrCodeRateLimited
	default:
		return http.StatusInternalServerError, domain.ErrCodeInternal
	}
}
