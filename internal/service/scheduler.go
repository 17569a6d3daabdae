package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Resolver - the work a scheduled task performs: one AI move resolution
// for one game.
type Resolver interface {
	ResolveAIMove(ctx context.Context, gameID string) error
}

// Scheduler - a worker pool for deferred AI move resolution. SubmitMove
// hands it a game ID and returns to the caller; a worker picks the ID up
// and runs the resolver under its own context, independent of the request
// that scheduled it.
type Scheduler struct {
	logger *slog.Logger

	tasks          chan string
	workers        int
	resolveTimeout time.Duration
}

func NewScheduler(logger *slog.Logger, workers, queueSize int, resolveTimeout time.Duration) *Scheduler {
	return &Scheduler{
		logger:         logger.With("component", "ai_scheduler"),
		tasks:          make(chan string, queueSize),
		workers:        workers,
		resolveTimeout: resolveTimeout,
	}
}

// Schedule - enqueues a resolution task without blocking. A full queue
// drops the task; the caller can re-trigger resolution through the move
// endpoint, which the resolver's state re-check makes safe.
func (that *Scheduler) Schedule(gameID string) {
	select {
	case that.tasks <- gameID:
	default:
		that.logger.Warn("ai task queue is full, dropping task", "gameID", gameID)
	}
}

// Run - starts the workers and blocks until ctx is canceled.
func (that *Scheduler) Run(ctx context.Context, resolver Resolver) {
	var wg sync.WaitGroup

	for i := 0; i < that.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			that.work(ctx, resolver)
		}()
	}

	wg.Wait()
}

func (that *Scheduler) work(ctx context.Context, resolver Resolver) {
	for {
		select {
		case <-ctx.Done():
			return
		case gameID := <-that.tasks:
			// the triggering request has already returned, so the task
			// gets its own deadline instead of inheriting one
			taskCtx, cancel := context.WithTimeout(context.Background(), that.resolveTimeout)
			if err := resolver.ResolveAIMove(taskCtx, gameID); err != nil {
				that.logger.Error("ai move resolution failed", "gameID", gameID, "error", err)
			}
			cancel()
		}
	}
}
