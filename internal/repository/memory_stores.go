package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stemsi/gramtest-backend/internal/model"
)

// NewMemoryTestStore keeps tests grouped by teacher.
func NewMemoryTestStore() *MemoryTable[model.Test] {
	t := NewMemoryTable(
		func(v *model.Test) int64 { return v.ID },
		func(v *model.Test, id int64) { v.ID = id },
		func(v *model.Test) int64 { return int64(v.TeacherID) },
	)
	t.onCreate = func(v *model.Test, now time.Time) { v.CreatedAt, v.UpdatedAt = now, now }
	t.onUpdate = func(v *model.Test, now time.Time) { v.UpdatedAt = now }
	return t
}

// NewMemoryQuestionStore keeps questions grouped by test, ordered by OrderIndex.
// Options receive identities from their own sequence.
func NewMemoryQuestionStore() *MemoryTable[model.Question] {
	var optionSeq int64
	assignOptions := func(v *model.Question, _ time.Time) {
		for i := range v.Options {
			v.Options[i].QuestionID = v.ID
			if v.Options[i].ID == 0 {
				optionSeq++
				v.Options[i].ID = optionSeq
			}
		}
	}

	t := NewMemoryTable(
		func(v *model.Question) int64 { return v.ID },
		func(v *model.Question, id int64) { v.ID = id },
		func(v *model.Question) int64 { return v.TestID },
	)
	t.less = func(a, b *model.Question) bool { return a.OrderIndex < b.OrderIndex }
	t.clone = func(v model.Question) model.Question {
		v.Options = append([]model.Option(nil), v.Options...)
		v.Key.CorrectPositions = append([]int(nil), v.Key.CorrectPositions...)
		return v
	}
	t.onCreate = assignOptions
	t.onUpdate = assignOptions
	return t
}

// MemoryAttemptStore is the in-memory AttemptStore. Like the Postgres partial unique
// index, it refuses a second live attempt for the same student and test.
type MemoryAttemptStore struct {
	*MemoryTable[model.Attempt]
}

// NewMemoryAttemptStore creates an empty MemoryAttemptStore.
func NewMemoryAttemptStore() *MemoryAttemptStore {
	t := NewMemoryTable(
		func(v *model.Attempt) int64 { return v.ID },
		func(v *model.Attempt, id int64) { v.ID = id },
		func(v *model.Attempt) int64 { return v.TestID },
	)
	t.less = func(a, b *model.Attempt) bool {
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		return a.AttemptNumber < b.AttemptNumber
	}
	t.clone = func(v model.Attempt) model.Attempt {
		if v.CompletedAt != nil {
			at := *v.CompletedAt
			v.CompletedAt = &at
		}
		if v.RemainingSeconds != nil {
			rs := *v.RemainingSeconds
			v.RemainingSeconds = &rs
		}
		return v
	}
	t.conflicts = func(existing, candidate *model.Attempt) bool {
		return !existing.IsCompleted && !candidate.IsCompleted &&
			existing.StudentID == candidate.StudentID && existing.TestID == candidate.TestID
	}
	t.onCreate = func(v *model.Attempt, now time.Time) {
		if v.StartedAt.IsZero() {
			v.StartedAt = now
		}
	}
	return &MemoryAttemptStore{MemoryTable: t}
}

// ListByStudentAndTest lists a student's attempts of one test ordered by attempt number.
func (s *MemoryAttemptStore) ListByStudentAndTest(_ context.Context, studentID int, testID int64) ([]model.Attempt, error) {
	return s.Filter(func(a *model.Attempt) bool {
		return a.StudentID == studentID && a.TestID == testID
	}), nil
}

// FindInProgress returns the live attempt of the pair.
func (s *MemoryAttemptStore) FindInProgress(_ context.Context, studentID int, testID int64) (*model.Attempt, error) {
	live := s.Filter(func(a *model.Attempt) bool {
		return a.StudentID == studentID && a.TestID == testID && !a.IsCompleted
	})
	if len(live) == 0 {
		return nil, ErrNotFound
	}
	return &live[0], nil
}

// ListInProgress returns up to limit live attempts after afterID, ordered by id.
func (s *MemoryAttemptStore) ListInProgress(_ context.Context, afterID int64, limit int) ([]model.Attempt, error) {
	live := s.Filter(func(a *model.Attempt) bool { return !a.IsCompleted && a.ID > afterID })
	sort.Slice(live, func(i, j int) bool { return live[i].ID < live[j].ID })
	if limit > 0 && len(live) > limit {
		live = live[:limit]
	}
	return live, nil
}

// NewMemoryAnswerStore keeps answers grouped by attempt. There is no uniqueness rule
// on (attempt, question); callers reconcile duplicates.
func NewMemoryAnswerStore() *MemoryTable[model.Answer] {
	t := NewMemoryTable(
		func(v *model.Answer) int64 { return v.ID },
		func(v *model.Answer, id int64) { v.ID = id },
		func(v *model.Answer) int64 { return v.AttemptID },
	)
	t.clone = func(v model.Answer) model.Answer {
		if v.Payload.Index != nil {
			idx := *v.Payload.Index
			v.Payload.Index = &idx
		}
		if v.Payload.OptionID != nil {
			id := *v.Payload.OptionID
			v.Payload.OptionID = &id
		}
		return v
	}
	t.onCreate = func(v *model.Answer, now time.Time) { v.CreatedAt, v.UpdatedAt = now, now }
	t.onUpdate = func(v *model.Answer, now time.Time) { v.UpdatedAt = now }
	return t
}

// MemoryAssignmentStore keeps assignments and the student-to-class mapping in memory.
type MemoryAssignmentStore struct {
	mu           sync.RWMutex
	seq          int64
	assignments  []model.Assignment
	studentClass map[int]int
}

// NewMemoryAssignmentStore creates an empty MemoryAssignmentStore.
func NewMemoryAssignmentStore() *MemoryAssignmentStore {
	return &MemoryAssignmentStore{studentClass: make(map[int]int)}
}

// SetStudentClass records which class a student belongs to.
func (s *MemoryAssignmentStore) SetStudentClass(studentID, classID int) {
	s.mu.Lock()
	s.studentClass[studentID] = classID
	s.mu.Unlock()
}

// Create assigns a test to a class. Assigning twice is a no-op.
func (s *MemoryAssignmentStore) Create(_ context.Context, a *model.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assignments {
		if existing.TestID == a.TestID && existing.ClassID == a.ClassID {
			a.ID = existing.ID
			return nil
		}
	}
	s.seq++
	a.ID = s.seq
	s.assignments = append(s.assignments, *a)
	return nil
}

// ListByTest lists the classes a test is assigned to.
func (s *MemoryAssignmentStore) ListByTest(_ context.Context, testID int64) ([]model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Assignment
	for _, a := range s.assignments {
		if a.TestID == testID {
			out = append(out, a)
		}
	}
	return out, nil
}

// IsAssigned reports whether the test is assigned to the student's class.
func (s *MemoryAssignmentStore) IsAssigned(_ context.Context, testID int64, studentID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	classID, ok := s.studentClass[studentID]
	if !ok {
		return false, nil
	}
	for _, a := range s.assignments {
		if a.TestID == testID && a.ClassID == classID {
			return true, nil
		}
	}
	return false, nil
}

// MemoryStores is a complete in-memory backend.
type MemoryStores struct {
	Stores
	Classes *MemoryAssignmentStore
}

// NewMemoryStores wires every in-memory store.
func NewMemoryStores() *MemoryStores {
	assignments := NewMemoryAssignmentStore()
	return &MemoryStores{
		Stores: Stores{
			Tests:       NewMemoryTestStore(),
			Questions:   NewMemoryQuestionStore(),
			Attempts:    NewMemoryAttemptStore(),
			Answers:     NewMemoryAnswerStore(),
			Assignments: assignments,
		},
		Classes: assignments,
	}
}
