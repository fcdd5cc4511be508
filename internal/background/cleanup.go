package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper drops in-memory entries that have been idle for at least idle
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// CleanupManager periodically sweeps idle rate-limit windows and expired blacklist entries
type CleanupManager struct {
	sweepers map[string]Sweeper
	idle     time.Duration
	interval time.Duration
	onTick   func()
	logger   *slog.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCleanupManager creates a new cleanup manager. sweepers is keyed by a name used in logs.
func NewCleanupManager(sweepers map[string]Sweeper, interval, idle time.Duration, logger *slog.Logger) *CleanupManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupManager{
		sweepers: sweepers,
		idle:     idle,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// OnTick registers fn to run after every sweep, e.g. to log pool stats
func (cm *CleanupManager) OnTick(fn func()) {
	cm.onTick = fn
}

// Start begins the periodic cleanup task and blocks until stopped
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cm.RunOnce()
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// RunOnce sweeps every registered store and returns the total number of removed keys
func (cm *CleanupManager) RunOnce() int {
	total := 0
	for name, s := range cm.sweepers {
		removed := s.Sweep(cm.idle)
		if removed > 0 {
			cm.logger.Debug("swept idle entries",
				slog.String("store", name),
				slog.Int("removed", removed),
			)
		}
		total += removed
	}

	if cm.onTick != nil {
		cm.onTick()
	}
	return total
}

// Stop signals the cleanup manager to stop; calling it twice is safe
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
