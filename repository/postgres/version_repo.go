package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/repository"
)

type versionRepository struct {
	pool *pgxpool.Pool
}

// NewVersionRepository reads the app_versions table. It only needs the public role.
func NewVersionRepository(pool *pgxpool.Pool) repository.VersionRepository {
	return &versionRepository{pool: pool}
}

func (r *versionRepository) Latest(ctx context.Context) (*domain.Version, error) {
	const query = `
	SELECT id, version, COALESCE(notes, ''), COALESCE(download_url, ''), is_mandatory, is_published, published_at, created_at
	FROM app_versions
	WHERE is_published = TRUE
	ORDER BY COALESCE(published_at, created_at) DESC
	LIMIT 1
	`
	var v domain.Version
	if err := r.pool.QueryRow(ctx, query).Scan(
		&v.ID,
		&v.Version,
		&v.Notes,
		&v.DownloadURL,
		&v.Mandatory,
		&v.Published,
		&v.PublishedAt,
		&v.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}
