package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/gramtest-backend/internal/model"
)

// AssignmentRepository handles test-to-class assignments.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// Create assigns a test to a class. Assigning twice is a no-op.
func (r *AssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO test_assignments (test_id, class_id)
		 VALUES ($1, $2)
		 ON CONFLICT (test_id, class_id) DO UPDATE SET class_id = EXCLUDED.class_id
		 RETURNING id`,
		a.TestID, a.ClassID,
	).Scan(&a.ID)
	return mapErr(err)
}

// ListByTest lists the classes a test is assigned to.
func (r *AssignmentRepository) ListByTest(ctx context.Context, testID int64) ([]model.Assignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, class_id FROM test_assignments WHERE test_id = $1 ORDER BY id`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.TestID, &a.ClassID); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// IsAssigned reports whether the test is assigned to the class the student belongs to.
func (r *AssignmentRepository) IsAssigned(ctx context.Context, testID int64, studentID int) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM test_assignments ta
		   JOIN students s ON s.class_id = ta.class_id
		   WHERE ta.test_id = $1 AND s.id = $2
		 )`, testID, studentID,
	).Scan(&ok)
	return ok, err
}

// NewPostgresStores wires every Postgres-backed store over one pool.
func NewPostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Tests:       NewTestRepository(pool),
		Questions:   NewQuestionRepository(pool),
		Attempts:    NewAttemptRepository(pool),
		Answers:     NewAnswerRepository(pool),
		Assignments: NewAssignmentRepository(pool),
	}
}
