package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/metrics"
)

// Expirer finds live attempts that ran out of time.
type Expirer interface {
	ExpireOverdue(ctx context.Context, batch int) ([]int64, error)
}

// ExpiryWorker periodically sweeps live attempts and queues the overdue ones for
// auto-completion.
type ExpiryWorker struct {
	expirer Expirer
	queue   Queue
	every   time.Duration
	batch   int
	log     zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(expirer Expirer, queue Queue, every time.Duration, batch int, log zerolog.Logger) *ExpiryWorker {
	if every <= 0 {
		every = 30 * time.Second
	}
	if batch <= 0 {
		batch = 200
	}
	return &ExpiryWorker{
		expirer: expirer,
		queue:   queue,
		every:   every,
		batch:   batch,
		log:     log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start runs the sweep loop until ctx is cancelled. Call in a goroutine.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("every", w.every).Msg("Worker started")
	ticker := time.NewTicker(w.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns how many attempts were queued.
func (w *ExpiryWorker) Sweep(ctx context.Context) int {
	ids, err := w.expirer.ExpireOverdue(ctx, w.batch)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Expiry sweep failed")
		}
		return 0
	}
	if len(ids) == 0 {
		return 0
	}
	if err := w.queue.Push(ctx, ids...); err != nil {
		w.log.Error().Err(err).Int("count", len(ids)).Msg("Failed to queue expired attempts")
		return 0
	}
	metrics.AttemptsExpired.Add(float64(len(ids)))
	w.log.Info().Int("count", len(ids)).Msg("Queued expired attempts")
	return len(ids)
}
