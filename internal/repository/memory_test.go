package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stemsi/gramtest-backend/internal/model"
)

func TestMemoryTableIdentitiesAreMonotonic(t *testing.T) {
	ctx := context.Background()
	answers := NewMemoryAnswerStore()

	var last int64
	for i := 0; i < 5; i++ {
		a := &model.Answer{AttemptID: 1, QuestionID: 7}
		if err := answers.Create(ctx, a); err != nil {
			t.Fatalf("create: %v", err)
		}
		if a.ID <= last {
			t.Fatalf("id %d not greater than previous %d", a.ID, last)
		}
		last = a.ID
	}

	if err := answers.Delete(ctx, last); err != nil {
		t.Fatalf("delete: %v", err)
	}
	next := &model.Answer{AttemptID: 1, QuestionID: 7}
	_ = answers.Create(ctx, next)
	if next.ID <= last {
		t.Errorf("id reused after delete: got %d, last was %d", next.ID, last)
	}
}

func TestMemoryTableNotFound(t *testing.T) {
	ctx := context.Background()
	tests := NewMemoryTestStore()

	if _, err := tests.GetByID(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID: got %v, want ErrNotFound", err)
	}
	if err := tests.Update(ctx, &model.Test{ID: 42}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update: got %v, want ErrNotFound", err)
	}
	if err := tests.Delete(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: got %v, want ErrNotFound", err)
	}
}

func TestMemoryTableReturnsCopies(t *testing.T) {
	ctx := context.Background()
	questions := NewMemoryQuestionStore()

	q := &model.Question{TestID: 1, Options: []model.Option{{Text: "a", IsCorrect: true}, {Text: "b"}}}
	if err := questions.Create(ctx, q); err != nil {
		t.Fatalf("create: %v", err)
	}
	if q.Options[0].ID == 0 || q.Options[0].QuestionID != q.ID {
		t.Fatalf("options not assigned ids: %+v", q.Options)
	}

	got, _ := questions.GetByID(ctx, q.ID)
	got.Options[0].IsCorrect = false

	again, _ := questions.GetByID(ctx, q.ID)
	if !again.Options[0].IsCorrect {
		t.Error("mutating a returned question changed the stored one")
	}
}

func TestMemoryQuestionOrdering(t *testing.T) {
	ctx := context.Background()
	questions := NewMemoryQuestionStore()
	for _, idx := range []int{3, 1, 2} {
		_ = questions.Create(ctx, &model.Question{TestID: 9, OrderIndex: idx})
	}
	_ = questions.Create(ctx, &model.Question{TestID: 10, OrderIndex: 0})

	list, err := questions.ListByParent(ctx, 9)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	for i, q := range list {
		if q.OrderIndex != i+1 {
			t.Errorf("position %d has order index %d", i, q.OrderIndex)
		}
	}
}

func TestMemoryAttemptStoreSingleLiveAttempt(t *testing.T) {
	ctx := context.Background()
	attempts := NewMemoryAttemptStore()

	first := &model.Attempt{StudentID: 1, TestID: 5, AttemptNumber: 1}
	if err := attempts.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := attempts.Create(ctx, &model.Attempt{StudentID: 1, TestID: 5, AttemptNumber: 2}); !errors.Is(err, ErrConflict) {
		t.Fatalf("second live attempt: got %v, want ErrConflict", err)
	}
	if err := attempts.Create(ctx, &model.Attempt{StudentID: 2, TestID: 5, AttemptNumber: 1}); err != nil {
		t.Fatalf("other student: %v", err)
	}

	first.IsCompleted = true
	if err := attempts.Update(ctx, first); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := attempts.Create(ctx, &model.Attempt{StudentID: 1, TestID: 5, AttemptNumber: 2}); err != nil {
		t.Fatalf("after completion: %v", err)
	}

	live, err := attempts.FindInProgress(ctx, 1, 5)
	if err != nil {
		t.Fatalf("find in progress: %v", err)
	}
	if live.AttemptNumber != 2 {
		t.Errorf("live attempt number = %d, want 2", live.AttemptNumber)
	}

	all, _ := attempts.ListByStudentAndTest(ctx, 1, 5)
	if len(all) != 2 || all[0].AttemptNumber != 1 || all[1].AttemptNumber != 2 {
		t.Errorf("unexpected attempts: %+v", all)
	}

	inProgress, _ := attempts.ListInProgress(ctx, 0, 10)
	if len(inProgress) != 2 {
		t.Errorf("in progress = %d, want 2", len(inProgress))
	}
	limited, _ := attempts.ListInProgress(ctx, 0, 1)
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %d", len(limited))
	}
	next, _ := attempts.ListInProgress(ctx, limited[0].ID, 1)
	if len(next) != 1 || next[0].ID <= limited[0].ID {
		t.Fatalf("second page = %+v after id %d", next, limited[0].ID)
	}
	if rest, _ := attempts.ListInProgress(ctx, next[0].ID, 1); len(rest) != 0 {
		t.Errorf("page after the last live attempt = %+v", rest)
	}
}

func TestMemoryAttemptStoreConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	attempts := NewMemoryAttemptStore()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := attempts.Create(ctx, &model.Attempt{StudentID: 3, TestID: 3, AttemptNumber: 1}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("created %d live attempts, want 1", created)
	}
}

func TestMemoryAssignmentStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAssignmentStore()
	s.SetStudentClass(10, 100)
	s.SetStudentClass(11, 200)

	a := &model.Assignment{TestID: 1, ClassID: 100}
	_ = s.Create(ctx, a)
	dup := &model.Assignment{TestID: 1, ClassID: 100}
	_ = s.Create(ctx, dup)
	if dup.ID != a.ID {
		t.Errorf("duplicate assignment got new id %d, want %d", dup.ID, a.ID)
	}

	tests := []struct {
		name      string
		testID    int64
		studentID int
		want      bool
	}{
		{"assigned class", 1, 10, true},
		{"other class", 1, 11, false},
		{"unknown student", 1, 99, false},
		{"unassigned test", 2, 10, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.IsAssigned(ctx, tc.testID, tc.studentID)
			if err != nil {
				t.Fatalf("IsAssigned: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}
