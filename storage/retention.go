package storage

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetentionManager prunes old analysis records on an interval.
type RetentionManager struct {
	history  *HistoryStorage
	days     int
	interval time.Duration
	logger   *zap.SugaredLogger
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
}

// NewRetentionManager creates a retention job. days <= 0 disables pruning.
func NewRetentionManager(history *HistoryStorage, days int, interval time.Duration, logger *zap.SugaredLogger) *RetentionManager {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionManager{
		history:  history,
		days:     days,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background prune loop. A first prune runs immediately
// so a long-stopped instance catches up at boot.
func (r *RetentionManager) Start() {
	r.started = true
	if r.days <= 0 {
		close(r.doneCh)
		r.logger.Info("History retention disabled")
		return
	}

	go func() {
		defer close(r.doneCh)
		r.prune()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.prune()
			case <-r.stopCh:
				return
			}
		}
	}()
	r.logger.Infow("History retention started", "days", r.days, "interval", r.interval)
}

// Stop terminates the prune loop and waits for it to exit.
func (r *RetentionManager) Stop() {
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
	// Only Start closes doneCh, so waiting without a prior Start would
	// block forever.
	if !r.started {
		return
	}
	<-r.doneCh
}

func (r *RetentionManager) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -r.days)
	removed, err := r.history.PruneOlderThan(ctx, cutoff)
	if err != nil {
		r.logger.Errorw("History prune failed", "error", err)
		return
	}
	if removed > 0 {
		r.logger.Infow("Pruned analysis history", "removed", removed, "cutoff", cutoff)
	}
}
