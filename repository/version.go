package repository

import (
	"context"

	"github.com/fastygo/gateway/domain"
)

type VersionRepository interface {
	// Latest returns the newest published version, or nil when none is published.
	Latest(ctx context.Context) (*domain.Version, error)
}
