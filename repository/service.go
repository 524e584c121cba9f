package repository

import (
	"context"

	"github.com/fastygo/gateway/domain"
)

type ServiceRepository interface {
	// ListByUser returns the user's services, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Service, error)
}
