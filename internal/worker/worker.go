package worker

import (
	"context"
	"errors"
	"time"

	"blogfront/internal/model"
	"blogfront/internal/store"

	"go.uber.org/zap"
)

// Store is the part of the cache the worker drives.
type Store interface {
	PopQueue(ctx context.Context) (store.Job, error)
	Invalidate(ctx context.Context) (int64, error)
}

// Warmer refills the cache after an invalidation. content.Service fits.
type Warmer interface {
	FetchAll(ctx context.Context) ([]model.ListItem, error)
}

type Worker struct {
	store  Store
	warmer Warmer
	logger *zap.Logger
}

// NewWorker builds an invalidation worker. warmer may be nil to skip
// re-warming.
func NewWorker(st Store, warmer Warmer, logger *zap.Logger) *Worker {
	return &Worker{
		store:  st,
		warmer: warmer,
		logger: logger.With(zap.String("component", "worker")),
	}
}

// Start runs the worker loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Worker started. Waiting for invalidation jobs...")

	for {
		job, err := w.store.PopQueue(ctx)
		if ctx.Err() != nil {
			w.logger.Info("Worker shutting down")
			return
		}
		if errors.Is(err, store.ErrQueueEmpty) {
			continue
		}
		if err != nil {
			w.logger.Error("Queue error", zap.Error(err))
			select {
			case <-ctx.Done():
				w.logger.Info("Worker shutting down")
				return
			case <-time.After(time.Second):
			}
			continue
		}

		w.processJob(ctx, job)
	}
}

func (w *Worker) processJob(ctx context.Context, job store.Job) {
	logger := w.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("reason", job.Reason),
		zap.String("content_id", job.ContentID),
	)
	logger.Info("Invalidation started")

	gen, err := w.store.Invalidate(ctx)
	if err != nil {
		logger.Error("Invalidation failed", zap.Error(err))
		return
	}
	logger.Info("Cache generation bumped", zap.Int64("generation", gen))

	if w.warmer == nil {
		return
	}

	start := time.Now()
	items, err := w.warmer.FetchAll(ctx)
	if err != nil {
		logger.Warn("Cache warm failed", zap.Error(err))
		return
	}
	logger.Info("Cache warmed",
		zap.Int("articles", len(items)),
		zap.Duration("took", time.Since(start)),
	)
}
