package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/gateway/repository"
)

// WindowPurger drops elapsed rate-limit windows.
type WindowPurger interface {
	Purge(ctx context.Context) (int, error)
}

// SweeperConfig controls how often housekeeping runs.
type SweeperConfig struct {
	Interval time.Duration
}

// SessionSweeper periodically flips expired sessions to inactive and purges
// stale rate-limit counters. Expired sessions are already rejected on lookup;
// the sweep keeps the active set small. Rows are never deleted.
type SessionSweeper struct {
	sessions repository.SessionRepository
	windows  WindowPurger
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      SweeperConfig
	now      func() time.Time
}

func NewSessionSweeper(
	sessions repository.SessionRepository,
	windows WindowPurger,
	logger *zap.Logger,
	cfg SweeperConfig,
) *SessionSweeper {
	if cfg.Interval < time.Second {
		cfg.Interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sw := &SessionSweeper{
		sessions: sessions,
		windows:  windows,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
		now:      time.Now,
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = sw.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := sw.Sweep(ctx); err != nil {
			sw.logger.Error("session sweep failed", zap.Error(err))
		}
	})

	return sw
}

// Start launches the cron scheduler.
func (sw *SessionSweeper) Start() {
	if sw == nil || sw.cron == nil {
		return
	}
	sw.cron.Start()
	sw.logger.Info("session sweeper started", zap.Duration("interval", sw.cfg.Interval))
}

// Stop waits for a running sweep or for ctx, whichever ends first.
func (sw *SessionSweeper) Stop(ctx context.Context) {
	if sw == nil || sw.cron == nil {
		return
	}
	stopCtx := sw.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	sw.logger.Info("session sweeper stopped")
}

// Sweep runs one housekeeping pass synchronously.
func (sw *SessionSweeper) Sweep(ctx context.Context) error {
	if sw == nil || sw.sessions == nil {
		return nil
	}

	n, err := sw.sessions.DeactivateExpired(ctx, sw.now())
	if err != nil {
		return fmt.Errorf("deactivate expired sessions: %w", err)
	}
	if n > 0 {
		sw.logger.Info("expired sessions deactivated", zap.Int64("count", n))
	}

	if sw.windows != nil {
		removed, err := sw.windows.Purge(ctx)
		if err != nil {
			sw.logger.Warn("rate limit purge failed", zap.Error(err))
		} else if removed > 0 {
			sw.logger.Debug("rate limit windows purged", zap.Int("count", removed))
		}
	}
	return nil
}
