package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stemsi/gramtest-backend/internal/model"
)

type recorder struct {
	events []model.AttemptEvent
	err    error
}

func (r *recorder) Publish(_ context.Context, e model.AttemptEvent) error {
	r.events = append(r.events, e)
	return r.err
}

func TestMultiDeliversToAll(t *testing.T) {
	failing := &recorder{err: errors.New("broker down")}
	ok := &recorder{}
	m := Multi{failing, ok, Nop{}}

	err := m.Publish(context.Background(), model.AttemptEvent{Type: model.EventAttemptStarted, AttemptID: 1})
	if err == nil || err.Error() != "broker down" {
		t.Fatalf("got %v, want first error", err)
	}
	if len(failing.events) != 1 || len(ok.events) != 1 {
		t.Errorf("deliveries: failing=%d ok=%d, want 1 each", len(failing.events), len(ok.events))
	}
}

func TestHubFanOutPerTest(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()

	a, cancelA, _ := hub.Subscribe(ctx, 1)
	b, cancelB, _ := hub.Subscribe(ctx, 1)
	other, cancelOther, _ := hub.Subscribe(ctx, 2)
	defer cancelB()
	defer cancelOther()

	if err := hub.Publish(ctx, model.AttemptEvent{Type: model.EventAttemptCompleted, TestID: 1, AttemptID: 5}); err != nil {
		t.Fatal(err)
	}

	for name, ch := range map[string]<-chan []byte{"a": a, "b": b} {
		select {
		case raw := <-ch:
			var e model.AttemptEvent
			if err := json.Unmarshal(raw, &e); err != nil || e.AttemptID != 5 {
				t.Errorf("%s received %s (%v)", name, raw, err)
			}
		default:
			t.Errorf("%s received nothing", name)
		}
	}
	select {
	case raw := <-other:
		t.Errorf("subscriber of another test received %s", raw)
	default:
	}

	cancelA()
	cancelA()
	if _, open := <-a; open {
		t.Error("channel should be closed after cancel")
	}
	if err := hub.Publish(ctx, model.AttemptEvent{TestID: 1}); err != nil {
		t.Errorf("publish after unsubscribe: %v", err)
	}
}
