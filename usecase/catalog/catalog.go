package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/repository"
)

type UseCase struct {
	services repository.ServiceRepository
	versions repository.VersionRepository
	logger   *zap.Logger
}

func New(services repository.ServiceRepository, versions repository.VersionRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		services: services,
		versions: versions,
		logger:   logger,
	}
}

// ListServices returns the services owned by userID, newest first. No rows is an empty slice.
func (uc *UseCase) ListServices(ctx context.Context, userID string) ([]domain.Service, error) {
	if userID == "" {
		return nil, domain.ErrInvalidPayload
	}
	services, err := uc.services.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.StorageError("list services", err)
	}
	if services == nil {
		services = []domain.Service{}
	}
	return services, nil
}

// LatestVersion returns the newest published version; nil means nothing is published yet.
func (uc *UseCase) LatestVersion(ctx context.Context) (*domain.Version, error) {
	version, err := uc.versions.Latest(ctx)
	if err != nil {
		return nil, domain.StorageError("get latest version", err)
	}
	return version, nil
}
