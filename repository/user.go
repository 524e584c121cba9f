package repository

import (
	"context"

	"github.com/fastygo/gateway/domain"
)

type UserRepository interface {
	// GetByEmail matches email case-insensitively and returns
	// domain.ErrUserNotFound when no row matches.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
