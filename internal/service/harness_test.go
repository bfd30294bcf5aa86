package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/model"
	"github.com/stemsi/gramtest-backend/internal/repository"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type eventSink struct {
	events chan model.AttemptEvent
}

func (s *eventSink) Publish(_ context.Context, e model.AttemptEvent) error {
	s.events <- e
	return nil
}

func (s *eventSink) next(t *testing.T) model.AttemptEvent {
	t.Helper()
	select {
	case e := <-s.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
		return model.AttemptEvent{}
	}
}

const (
	testStudent  = 10
	otherStudent = 11
	testClass    = 100
)

type harness struct {
	stores  *repository.MemoryStores
	clock   *clock
	sink    *eventSink
	catalog *TestCatalog
	gate    *AssignmentGate
	manager *AttemptManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zerolog.Nop()
	stores := repository.NewMemoryStores()
	stores.Classes.SetStudentClass(testStudent, testClass)
	stores.Classes.SetStudentClass(otherStudent, testClass)

	c := &clock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	sink := &eventSink{events: make(chan model.AttemptEvent, 64)}

	engine := NewEngine(stores.Stores, EngineOptions{TimeBuffer: 30 * time.Second, Notifier: sink}, log)
	engine.Guard.now = c.Now
	engine.Gate.now = c.Now
	catalog, gate, manager := engine.Catalog, engine.Gate, engine.Manager

	t.Cleanup(manager.Wait)

	return &harness{stores: stores, clock: c, sink: sink, catalog: catalog, gate: gate, manager: manager}
}

// addTest stores an active test assigned to testClass together with its questions.
func (h *harness) addTest(t *testing.T, test model.Test, questions ...model.Question) (*model.Test, []model.Question) {
	t.Helper()
	ctx := context.Background()
	test.IsActive = true
	if err := h.stores.Tests.Create(ctx, &test); err != nil {
		t.Fatalf("create test: %v", err)
	}
	for i := range questions {
		questions[i].TestID = test.ID
		questions[i].OrderIndex = i + 1
		if err := h.stores.Questions.Create(ctx, &questions[i]); err != nil {
			t.Fatalf("create question: %v", err)
		}
	}
	if err := h.stores.Assignments.Create(ctx, &model.Assignment{TestID: test.ID, ClassID: testClass}); err != nil {
		t.Fatalf("assign test: %v", err)
	}
	return &test, questions
}

func (h *harness) spellingTest(t *testing.T, limitMinutes int) (*model.Test, []model.Question) {
	return h.addTest(t,
		model.Test{Format: model.FormatSpelling, Title: "Безударные гласные", TimeLimitMinutes: limitMinutes},
		model.Question{Points: 2, Prompt: "з..леный", Key: model.QuestionKey{CorrectLetters: "е"}},
		model.Question{Points: 1, Prompt: "г..ра", Key: model.QuestionKey{CorrectLetters: "о"}},
		model.Question{Points: 3, Prompt: "ноч..", Key: model.QuestionKey{CorrectLetters: "ь"}},
	)
}

func text(s string) model.AnswerPayload { return model.AnswerPayload{Text: s} }
