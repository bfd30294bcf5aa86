package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/stemsi/gramtest-backend/internal/model"
)

const subscriberBuffer = 32

// Hub is an in-process Notifier and Subscriber for single-instance deployments
// without Redis. Events for a test fan out to every current subscriber of that test.
type Hub struct {
	mu   sync.Mutex
	subs map[int64]map[*hubSub]struct{}
}

type hubSub struct {
	ch   chan []byte
	once sync.Once
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[*hubSub]struct{})}
}

// Publish delivers event to the subscribers of its test. Full subscriber buffers drop it.
func (h *Hub) Publish(_ context.Context, event model.AttemptEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[event.TestID] {
		select {
		case s.ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registers a listener for one test.
func (h *Hub) Subscribe(_ context.Context, testID int64) (<-chan []byte, func(), error) {
	s := &hubSub{ch: make(chan []byte, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[testID] == nil {
		h.subs[testID] = make(map[*hubSub]struct{})
	}
	h.subs[testID][s] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		s.once.Do(func() {
			h.mu.Lock()
			delete(h.subs[testID], s)
			if len(h.subs[testID]) == 0 {
				delete(h.subs, testID)
			}
			h.mu.Unlock()
			close(s.ch)
		})
	}
	return s.ch, cancel, nil
}
