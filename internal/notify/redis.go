package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/gramtest-backend/internal/config"
	"github.com/stemsi/gramtest-backend/internal/model"
)

// RedisNotifier publishes events on the per-test activity channel, which the teacher
// activity stream subscribes to.
type RedisNotifier struct {
	rdb *redis.Client
}

// NewRedisNotifier creates a RedisNotifier.
func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

// Publish sends event as JSON on test:{id}:activity.
func (n *RedisNotifier) Publish(ctx context.Context, event model.AttemptEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	channel := config.CacheKey.TestActivityChannel(event.TestID)
	if err := n.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// Subscribe listens on test:{id}:activity. The returned channel closes after cancel.
func (n *RedisNotifier) Subscribe(ctx context.Context, testID int64) (<-chan []byte, func(), error) {
	channel := config.CacheKey.TestActivityChannel(testID)
	pubsub := n.rdb.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so a dead Redis fails here, not silently.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe to %s: %w", channel, err)
	}

	out := make(chan []byte, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			default:
				// Slow reader, drop.
			}
		}
	}()
	var once sync.Once
	return out, func() { once.Do(func() { pubsub.Close() }) }, nil
}
