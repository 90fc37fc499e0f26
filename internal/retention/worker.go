// Package retention periodically deletes chat interactions older than the
// configured age.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultInterval is how often the worker prunes when none is given.
const DefaultInterval = time.Hour

// Pruner deletes interactions created before a cutoff. *storage.Store
// satisfies it.
type Pruner interface {
	PruneInteractions(cutoff time.Time) (int64, error)
}

// Worker prunes interactions older than maxAge on a fixed interval.
type Worker struct {
	store    Pruner
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewWorker creates a Worker with the given dependencies.
// If interval is <= 0, it defaults to DefaultInterval.
func NewWorker(store Pruner, maxAge, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Worker{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		logger:   slog.Default(),
		now:      time.Now,
	}
}

// Run prunes once immediately and then every interval until ctx is
// cancelled. A non-positive maxAge disables pruning and Run returns at once.
func (w *Worker) Run(ctx context.Context) {
	if w.maxAge <= 0 {
		return
	}
	for {
		if ctx.Err() != nil {
			return
		}

		if _, err := w.RunOnce(ctx); err != nil {
			w.logger.Error("retention pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.interval):
		}
	}
}

// RunOnce deletes interactions older than maxAge and returns how many
// were removed.
func (w *Worker) RunOnce(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cutoff := w.now().Add(-w.maxAge)
	n, err := w.store.PruneInteractions(cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning interactions before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if n > 0 {
		w.logger.Info("pruned chat interactions", "count", n, "cutoff", cutoff)
	}
	return n, nil
}
