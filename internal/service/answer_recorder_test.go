package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/model"
	"github.com/stemsi/gramtest-backend/internal/repository"
)

func TestSaveAnswerOverwritesInPlace(t *testing.T) {
	ctx := context.Background()
	answers := repository.NewMemoryAnswerStore()
	r := NewAnswerRecorder(answers, zerolog.Nop())

	first, err := r.SaveAnswer(ctx, 1, 5, text("а"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := r.SaveAnswer(ctx, 1, 5, text("о"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("overwrite created a new record: %d -> %d", first.ID, second.ID)
	}
	if second.Payload.Text != "о" || second.IsCorrect || second.PointsAwarded != 0 {
		t.Errorf("unexpected stored answer %+v", second)
	}
	if answers.Len() != 1 {
		t.Errorf("%d records, want 1", answers.Len())
	}
}

func TestSaveAnswerResetsVerdict(t *testing.T) {
	ctx := context.Background()
	answers := repository.NewMemoryAnswerStore()
	r := NewAnswerRecorder(answers, zerolog.Nop())

	scored := &model.Answer{AttemptID: 1, QuestionID: 5, IsCorrect: true, PointsAwarded: 2}
	_ = answers.Create(ctx, scored)

	got, err := r.SaveAnswer(ctx, 1, 5, text("и"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got.IsCorrect || got.PointsAwarded != 0 {
		t.Errorf("verdict survived a rewrite: %+v", got)
	}
}

func TestSaveAnswerReconcilesExistingDuplicates(t *testing.T) {
	ctx := context.Background()
	answers := repository.NewMemoryAnswerStore()
	r := NewAnswerRecorder(answers, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_ = answers.Create(ctx, &model.Answer{AttemptID: 1, QuestionID: 5})
	}
	_ = answers.Create(ctx, &model.Answer{AttemptID: 1, QuestionID: 6})

	got, err := r.SaveAnswer(ctx, 1, 5, text("е"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got.ID != 3 || got.Payload.Text != "е" {
		t.Errorf("survivor = %+v, want id 3 with the new payload", got)
	}

	list, _ := answers.ListByParent(ctx, 1)
	if len(list) != 2 {
		t.Fatalf("%d records left, want 2 (one per question)", len(list))
	}
}

func TestSaveAnswerConcurrentWritersConverge(t *testing.T) {
	ctx := context.Background()
	answers := repository.NewMemoryAnswerStore()
	r := NewAnswerRecorder(answers, zerolog.Nop())

	sent := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		input := fmt.Sprintf("н%d", i)
		sent[input] = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.SaveAnswer(ctx, 7, 3, text(input)); err != nil {
				t.Errorf("save %q: %v", input, err)
			}
		}()
	}
	wg.Wait()

	list, _ := answers.ListByParent(ctx, 7)
	if len(list) != 1 {
		t.Fatalf("%d records after concurrent saves, want 1", len(list))
	}
	if !sent[list[0].Payload.Text] {
		t.Errorf("survivor payload %q was never sent", list[0].Payload.Text)
	}
}

func TestResultAggregatorUsesNewestDuplicate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	test, qs := h.spellingTest(t, 0)

	a, _ := h.manager.Start(ctx, testStudent, test.ID)
	_ = h.stores.Answers.Create(ctx, &model.Answer{AttemptID: a.ID, QuestionID: qs[0].ID, Payload: text("е")})
	_ = h.stores.Answers.Create(ctx, &model.Answer{AttemptID: a.ID, QuestionID: qs[0].ID, Payload: text("и")})

	agg := h.manager.aggregator
	res, err := agg.RecomputeResult(ctx, a.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if res.Score != 0 || res.MaxScore != 6 || res.Answered != 1 {
		t.Errorf("result = %+v, want newest (wrong) answer scored", res)
	}

	again, _ := agg.RecomputeResult(ctx, a.ID)
	if again != res {
		t.Errorf("second pass differs: %+v vs %+v", again, res)
	}

	if _, err := agg.RecomputeResult(ctx, 12345); err != ErrAttemptNotFound {
		t.Errorf("missing attempt: got %v", err)
	}
}

func TestResultAggregatorEmptyTest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	test, _ := h.addTest(t, model.Test{Format: model.FormatPunctuation, Title: "Пусто"})

	a, err := h.manager.Start(ctx, testStudent, test.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	done, err := h.manager.Complete(ctx, testStudent, a.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.MaxScore != 0 || done.Percentage != 0 || done.Grade != 2 {
		t.Errorf("empty test result = %d/%d %.1f%% grade %d", done.Score, done.MaxScore, done.Percentage, done.Grade)
	}
}
