package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Purger removes expired records and reports how many went.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// JanitorConfig holds configuration for the share link janitor
type JanitorConfig struct {
	// Interval is how often expired links are purged (default: 1h)
	Interval time.Duration
}

// DefaultJanitorConfig returns sensible defaults
func DefaultJanitorConfig() JanitorConfig {
	return JanitorConfig{Interval: time.Hour}
}

// Janitor periodically purges expired share links.
type Janitor struct {
	purger Purger
	config JanitorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewJanitor(purger Purger, config JanitorConfig) *Janitor {
	if config.Interval <= 0 {
		config.Interval = DefaultJanitorConfig().Interval
	}
	return &Janitor{purger: purger, config: config}
}

// Start begins the purge loop. Returns an error if already running.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return fmt.Errorf("janitor is already running")
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	stopCh, doneCh := j.stopCh, j.doneCh
	j.mu.Unlock()

	go j.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Share janitor started", "interval", j.config.Interval)
	return nil
}

// Stop signals the loop and waits for it to finish or for ctx to expire.
func (j *Janitor) Stop(ctx context.Context) error {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return nil
	}
	stopCh, doneCh := j.stopCh, j.doneCh
	j.running = false
	j.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Share janitor stopped")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Share janitor stop timed out")
		return ctx.Err()
	}
}

func (j *Janitor) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *Janitor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	// purge once on startup so links expired during downtime go first
	j.purge(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.purge(ctx)
		}
	}
}

func (j *Janitor) purge(ctx context.Context) {
	if _, err := j.purger.PurgeExpired(ctx); err != nil {
		slog.ErrorContext(ctx, "Share janitor failed", "error", err)
	}
}
