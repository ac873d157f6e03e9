package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperengineering/recipebox/internal/dedupe"
)

// CleanupRunner performs one duplicate cleanup pass.
// Implemented by dedupe.Remover.
type CleanupRunner interface {
	Run(ctx context.Context) dedupe.Result
}

// CleanupWorker periodically removes duplicate recipes.
type CleanupWorker struct {
	runner   CleanupRunner
	interval time.Duration
}

// NewCleanupWorker creates a worker with the given runner and interval.
func NewCleanupWorker(runner CleanupRunner, interval time.Duration) *CleanupWorker {
	return &CleanupWorker{
		runner:   runner,
		interval: interval,
	}
}

// Run starts the worker loop. Blocks until ctx is cancelled.
// Does NOT run immediately on start; startup cleanup is the caller's job.
func (w *CleanupWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "duplicate-cleanup",
		"interval", w.interval.String(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "duplicate-cleanup",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.runCleanup(ctx)
		}
	}
}

// runCleanup executes a single cleanup cycle. Failures are logged and the
// loop carries on.
func (w *CleanupWorker) runCleanup(ctx context.Context) {
	result := w.runner.Run(ctx)
	if !result.OK() {
		// Check for graceful shutdown
		if ctx.Err() != nil {
			return
		}
		slog.Warn("cleanup cycle failed",
			"component", "worker",
			"worker", "duplicate-cleanup",
			"error", result.Err,
		)
		return
	}

	slog.Debug("cleanup cycle completed",
		"component", "worker",
		"worker", "duplicate-cleanup",
		"removed", result.Removed,
	)
}
