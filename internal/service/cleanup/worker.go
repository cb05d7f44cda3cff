package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper is anything holding state that goes stale.
type Sweeper interface {
	SweepIdle(ctx context.Context) []string
}

type Worker struct {
	rooms    Sweeper
	interval time.Duration
	logger   *zap.Logger
}

func NewWorker(rooms Sweeper, interval time.Duration, logger *zap.Logger) *Worker {
	return &Worker{rooms: rooms, interval: interval, logger: logger.Named("cleanup")}
}

// Start runs the sweep on a ticker until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("background worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("background worker stopped")
			return
		case <-ticker.C:
			w.runCleanup(ctx)
		}
	}
}

// runCleanup executes the actual cleanup logic
func (w *Worker) runCleanup(ctx context.Context) {
	if removed := w.rooms.SweepIdle(ctx); len(removed) > 0 {
		w.logger.Info("removed idle rooms", zap.Strings("rooms", removed))
	}
}
