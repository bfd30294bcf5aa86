package repository

import (
	"context"

	"github.com/stemsi/gramtest-backend/internal/model"
)

// Store is the CRUD surface every entity store offers. ListByParent lists the children
// of the owning entity: questions of a test, attempts of a test, answers of an attempt.
type Store[T any] interface {
	GetByID(ctx context.Context, id int64) (*T, error)
	ListByParent(ctx context.Context, parentID int64) ([]T, error)
	Create(ctx context.Context, v *T) error
	Update(ctx context.Context, v *T) error
	Delete(ctx context.Context, id int64) error
}

// TestStore lists tests by teacher.
type TestStore interface {
	Store[model.Test]
}

// QuestionStore lists the questions of a test ordered by OrderIndex, options included.
type QuestionStore interface {
	Store[model.Question]
}

// AttemptStore adds the per-student lookups the attempt lifecycle needs.
type AttemptStore interface {
	Store[model.Attempt]
	// ListByStudentAndTest returns every attempt of the pair ordered by attempt number.
	ListByStudentAndTest(ctx context.Context, studentID int, testID int64) ([]model.Attempt, error)
	// FindInProgress returns the live attempt of the pair or ErrNotFound.
	FindInProgress(ctx context.Context, studentID int, testID int64) (*model.Attempt, error)
	// ListInProgress returns up to limit live attempts with an id above afterID,
	// ordered by id. Pass the last id of a page to fetch the next one.
	ListInProgress(ctx context.Context, afterID int64, limit int) ([]model.Attempt, error)
}

// AnswerStore lists answers of an attempt ordered by id.
type AnswerStore interface {
	Store[model.Answer]
}

// AssignmentStore resolves which classes a test is assigned to.
type AssignmentStore interface {
	Create(ctx context.Context, a *model.Assignment) error
	ListByTest(ctx context.Context, testID int64) ([]model.Assignment, error)
	// IsAssigned reports whether the test is assigned to the student's class.
	IsAssigned(ctx context.Context, testID int64, studentID int) (bool, error)
}

// Stores bundles one backend's stores.
type Stores struct {
	Tests       TestStore
	Questions   QuestionStore
	Attempts    AttemptStore
	Answers     AnswerStore
	Assignments AssignmentStore
}
