package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/repository"
)

type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a Postgres-backed SessionRepository. Token
// uniqueness is enforced by the sessions_token_key index.
func NewSessionRepository(pool *pgxpool.Pool) repository.SessionRepository {
	return &sessionRepository{pool: pool}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if session == nil || session.Token == "" || session.UserID == "" {
		return domain.ErrInvalidPayload
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO sessions (id, user_id, token, created_at, expires_at, is_active, device_id, ip_address, user_agent)
	VALUES ($1, $2, $3, COALESCE($4, NOW()), $5, $6, $7, $8, $9)
	RETURNING created_at
	`

	return r.pool.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		nullTime(session.CreatedAt),
		session.ExpiresAt,
		session.Active,
		nullString(session.DeviceID),
		nullString(session.IPAddress),
		nullString(session.UserAgent),
	).Scan(&session.CreatedAt)
}

func (r *sessionRepository) FindActiveByToken(ctx context.Context, token string) (*domain.Session, *domain.User, error) {
	const query = `
	SELECT s.id, s.user_id, s.token, s.created_at, s.expires_at, s.is_active,
		COALESCE(s.device_id, ''), COALESCE(s.ip_address, ''), COALESCE(s.user_agent, ''),
		u.id, u.email, u.password_hash, COALESCE(u.name, ''), COALESCE(u.subscription_tier, ''), u.created_at, u.updated_at
	FROM sessions s
	JOIN users u ON u.id = s.user_id
	WHERE s.token = $1 AND s.is_active = TRUE
	`

	var (
		session domain.Session
		user    domain.User
	)
	if err := r.pool.QueryRow(ctx, query, token).Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.Active,
		&session.DeviceID,
		&session.IPAddress,
		&session.UserAgent,
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.SubscriptionTier,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, domain.ErrSessionNotFound
		}
		return nil, nil, err
	}
	return &session, &user, nil
}

func (r *sessionRepository) DeactivateByToken(ctx context.Context, token string) error {
	const query = `UPDATE sessions SET is_active = FALSE WHERE token = $1`
	tag, err := r.pool.Exec(ctx, query, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepository) DeactivateAllForUser(ctx context.Context, userID string) (int64, error) {
	const query = `UPDATE sessions SET is_active = FALSE WHERE user_id = $1 AND is_active = TRUE`
	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *sessionRepository) DeactivateExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `UPDATE sessions SET is_active = FALSE WHERE is_active = TRUE AND expires_at <= $1`
	tag, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
