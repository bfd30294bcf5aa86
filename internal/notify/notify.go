// Package notify delivers attempt lifecycle events to activity observers.
package notify

import (
	"context"

	"github.com/stemsi/gramtest-backend/internal/model"
)

// Notifier publishes one event. Callers treat delivery as best effort.
type Notifier interface {
	Publish(ctx context.Context, event model.AttemptEvent) error
}

// Nop discards every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, model.AttemptEvent) error { return nil }

// Multi fans one event out to several notifiers and returns the first error.
type Multi []Notifier

// Publish delivers to every notifier even if an earlier one fails.
func (m Multi) Publish(ctx context.Context, event model.AttemptEvent) error {
	var first error
	for _, n := range m {
		if err := n.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Subscriber streams the raw JSON events of one test until cancel is called.
type Subscriber interface {
	Subscribe(ctx context.Context, testID int64) (events <-chan []byte, cancel func(), err error)
}
