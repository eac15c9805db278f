package notify

import (
	"context"
	"log/slog"
	"time"
)

type BatchProcessor interface {
	ProcessBatch(ctx context.Context) (Summary, error)
}

// Worker runs a pass on every tick and whenever Wake fires.
type Worker struct {
	Processor BatchProcessor
	Interval  time.Duration
	Wake      <-chan struct{}
	Logger    *slog.Logger
}

func (w *Worker) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.pass(ctx, logger)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pass(ctx, logger)
		case <-w.Wake:
			w.pass(ctx, logger)
		}
	}
}

func (w *Worker) pass(ctx context.Context, logger *slog.Logger) {
	if ctx.Err() != nil {
		return
	}
	if _, err := w.Processor.ProcessBatch(ctx); err != nil {
		logger.Error("notification worker pass", "error", err)
	}
}
