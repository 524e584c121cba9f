package postgres

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fastygo/gateway/internal/config"
)

// Role selects which database credential a pool connects with.
type Role string

const (
	// RoleService is the privileged role used for users, sessions and services.
	RoleService Role = "service"
	// RolePublic is the unprivileged role used for public reads.
	RolePublic Role = "public"
)

// DSN injects the role's credentials into the configured store URL.
func DSN(cfg config.DatabaseConfig, role Role) (string, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported DATABASE_URL scheme %q", u.Scheme)
	}
	switch role {
	case RolePublic:
		u.User = url.UserPassword(cfg.PublicUser, cfg.PublicKey)
	default:
		u.User = url.UserPassword(cfg.ServiceUser, cfg.ServiceKey)
	}
	return u.String(), nil
}

// NewPool creates and validates a pgx connection pool for role.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, role Role, logger *zap.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connString, err := DSN(cfg, role)
	if err != nil {
		return nil, err
	}

	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		pgxCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pgxCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		pgxCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if role == RolePublic && pgxCfg.MaxConns > 5 {
		pgxCfg.MaxConns = 5
	}
	if pgxCfg.MinConns > pgxCfg.MaxConns {
		pgxCfg.MinConns = pgxCfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres",
		zap.String("role", string(role)),
		zap.String("host", pgxCfg.ConnConfig.Host),
		zap.String("db", pgxCfg.ConnConfig.Database))
	return pool, nil
}
