package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/model"
	"github.com/stemsi/gramtest-backend/internal/service"
)

const (
	completionPollTimeout = time.Second
	drainTimeout          = 5 * time.Second
)

// Completer finalizes an attempt without an ownership check.
type Completer interface {
	AutoComplete(ctx context.Context, attemptID int64) (*model.Attempt, error)
}

// CompletionWorker consumes the completion queue and auto-completes each attempt.
type CompletionWorker struct {
	completer Completer
	queue     Queue
	workers   int
	log       zerolog.Logger
}

// NewCompletionWorker creates a pool of n consumers.
func NewCompletionWorker(completer Completer, queue Queue, n int, log zerolog.Logger) *CompletionWorker {
	if n <= 0 {
		n = 1
	}
	return &CompletionWorker{
		completer: completer,
		queue:     queue,
		workers:   n,
		log:       log.With().Str("component", "completion_worker").Logger(),
	}
}

// Start runs the consumers and blocks until they all stop. Call in a goroutine.
func (w *CompletionWorker) Start(ctx context.Context) {
	w.log.Info().Int("workers", w.workers).Msg("Worker started")

	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				w.processNext(ctx)
			}
		}()
	}
	wg.Wait()

	w.log.Info().Msg("Worker stopping...")
	w.drain()
	w.log.Info().Msg("Worker stopped")
}

func (w *CompletionWorker) processNext(ctx context.Context) {
	id, ok, err := w.queue.Pop(ctx, completionPollTimeout)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Pop error")
			time.Sleep(completionPollTimeout)
		}
		return
	}
	if !ok {
		return
	}
	w.complete(ctx, id)
}

func (w *CompletionWorker) complete(ctx context.Context, id int64) {
	a, err := w.completer.AutoComplete(ctx, id)
	switch {
	case err == nil:
		w.log.Debug().Int64("attempt_id", id).Int("score", a.Score).Msg("Attempt auto-completed")
	case errors.Is(err, service.ErrAttemptNotFound):
		w.log.Warn().Int64("attempt_id", id).Msg("Queued attempt no longer exists")
	default:
		w.log.Error().Err(err).Int64("attempt_id", id).Msg("Auto-complete failed, requeueing")
		requeueCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := w.queue.Push(requeueCtx, id); err != nil {
			w.log.Error().Err(err).Int64("attempt_id", id).Msg("Requeue failed")
		}
	}
}

// drain completes whatever is already queued before shutdown.
func (w *CompletionWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	count := 0
	for ctx.Err() == nil {
		id, ok, err := w.queue.Pop(ctx, 10*time.Millisecond)
		if err != nil || !ok {
			break
		}
		if _, err := w.completer.AutoComplete(ctx, id); err != nil {
			w.log.Error().Err(err).Int64("attempt_id", id).Msg("Drain auto-complete failed")
			continue
		}
		count++
	}
	if count > 0 {
		w.log.Info().Int("count", count).Msg("Drained queued completions")
	}
}
