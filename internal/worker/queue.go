package worker

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Queue carries attempt ids between the expiry sweep and the completion workers.
type Queue interface {
	Push(ctx context.Context, ids ...int64) error
	// Pop waits up to timeout for an id. ok is false when nothing arrived.
	Pop(ctx context.Context, timeout time.Duration) (id int64, ok bool, err error)
}

// RedisQueue is a Redis list consumed with BLPOP, shared by every instance.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

// NewRedisQueue creates a queue on the given list key.
func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key}
}

// Push appends ids to the tail of the list.
func (q *RedisQueue) Push(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return q.rdb.RPush(ctx, q.key, values...).Err()
}

// Pop blocks on the head of the list.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (int64, bool, error) {
	item, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return 0, false, nil
		}
		return 0, false, err
	}
	if len(item) < 2 {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(item[1], 10, 64)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// ChanQueue is an in-process queue for single-instance deployments and tests.
type ChanQueue struct {
	ch chan int64
}

// NewChanQueue creates a ChanQueue with the given buffer size.
func NewChanQueue(size int) *ChanQueue {
	return &ChanQueue{ch: make(chan int64, size)}
}

// Push enqueues ids, blocking while the buffer is full.
func (q *ChanQueue) Push(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		select {
		case q.ch <- id:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Pop waits for the next id.
func (q *ChanQueue) Pop(ctx context.Context, timeout time.Duration) (int64, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case id := <-q.ch:
		return id, true, nil
	case <-timer.C:
		return 0, false, nil
	case <-ctx.Done():
		return 0, false, nil
	}
}
