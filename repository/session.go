package repository

import (
	"context"
	"time"

	"github.com/fastygo/gateway/domain"
)

// SessionRepository persists sessions in a single table. Rows are never deleted;
// invalidation flips the active flag.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	// FindActiveByToken resolves an active session and its owner by exact token match.
	// It returns domain.ErrSessionNotFound when the token is unknown or inactive.
	// Expiry is left to the caller.
	FindActiveByToken(ctx context.Context, token string) (*domain.Session, *domain.User, error)
	DeactivateByToken(ctx context.Context, token string) error
	DeactivateAllForUser(ctx context.Context, userID string) (int64, error)
	DeactivateExpired(ctx context.Context, before time.Time) (int64, error)
}
