package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CheckFunc probes one dependency; a nil error means reachable.
type CheckFunc func(ctx context.Context) error

type check struct {
	name     string
	fn       CheckFunc
	required bool
	timeout  time.Duration
}

// Monitor polls registered dependencies in the background.
type Monitor struct {
	checks    []check
	startedAt time.Time

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		startedAt: time.Now(),
		interval:  interval,
		stopCh:    make(chan struct{}),
		logger:    logger,
	}
}

// Register adds a dependency check. Required checks decide IsOnline.
// Register before Start.
func (m *Monitor) Register(name string, required bool, timeout time.Duration, fn CheckFunc) {
	if fn == nil {
		return
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	m.checks = append(m.checks, check{name: name, fn: fn, required: required, timeout: timeout})
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether every required dependency answered on the last refresh.
func (m *Monitor) IsOnline() bool {
	return m.GetStatus().Healthy(m.requiredNames()...)
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Uptime is the time since the monitor was created.
func (m *Monitor) Uptime() time.Duration {
	return time.Since(m.startedAt)
}

// Refresh runs every check once, synchronously.
func (m *Monitor) Refresh() {
	results := make(map[string]bool, len(m.checks))
	for _, c := range m.checks {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		err := c.fn(ctx)
		cancel()
		if err != nil {
			m.logger.Warn("dependency check failed", zap.String("dependency", c.name), zap.Error(err))
		}
		results[c.name] = err == nil
	}

	m.mu.Lock()
	m.status = Status{Checks: results, LastCheck: time.Now()}
	m.mu.Unlock()
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) requiredNames() []string {
	var names []string
	for _, c := range m.checks {
		if c.required {
			names = append(names, c.name)
		}
	}
	return names
}
