package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/repository"
)

type serviceRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRepository returns a Postgres-backed implementation of ServiceRepository.
func NewServiceRepository(pool *pgxpool.Pool) repository.ServiceRepository {
	return &serviceRepository{pool: pool}
}

func (r *serviceRepository) ListByUser(ctx context.Context, userID string) ([]domain.Service, error) {
	const query = `
	SELECT id, user_id, name, status, COALESCE(plan, ''), COALESCE(endpoint, ''), created_at, updated_at
	FROM services
	WHERE user_id = $1
	ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]domain.Service, 0)
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.Name,
			&s.Status,
			&s.Plan,
			&s.Endpoint,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}
