package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/gramtest-backend/internal/model"
)

const attemptColumns = `id, student_id, test_id, attempt_number, started_at, completed_at,
	score, max_score, percentage, grade, is_completed, remaining_seconds, auto_completed`

// AttemptRepository handles attempt (test result) data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func scanAttempt(row pgx.Row, a *model.Attempt) error {
	return row.Scan(&a.ID, &a.StudentID, &a.TestID, &a.AttemptNumber, &a.StartedAt, &a.CompletedAt,
		&a.Score, &a.MaxScore, &a.Percentage, &a.Grade, &a.IsCompleted, &a.RemainingSeconds, &a.AutoCompleted)
}

func (r *AttemptRepository) list(ctx context.Context, query string, args ...any) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := scanAttempt(rows, &a); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// GetByID retrieves an attempt by its ID.
func (r *AttemptRepository) GetByID(ctx context.Context, id int64) (*model.Attempt, error) {
	a := &model.Attempt{}
	row := r.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id)
	if err := scanAttempt(row, a); err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

// ListByParent lists every attempt of a test.
func (r *AttemptRepository) ListByParent(ctx context.Context, testID int64) ([]model.Attempt, error) {
	return r.list(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE test_id = $1 ORDER BY student_id, attempt_number`, testID)
}

// ListByStudentAndTest lists a student's attempts of one test ordered by attempt number.
func (r *AttemptRepository) ListByStudentAndTest(ctx context.Context, studentID int, testID int64) ([]model.Attempt, error) {
	return r.list(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE student_id = $1 AND test_id = $2
		 ORDER BY attempt_number`, studentID, testID)
}

// FindInProgress returns the live attempt of the pair.
func (r *AttemptRepository) FindInProgress(ctx context.Context, studentID int, testID int64) (*model.Attempt, error) {
	a := &model.Attempt{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE student_id = $1 AND test_id = $2 AND NOT is_completed`, studentID, testID)
	if err := scanAttempt(row, a); err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

// ListInProgress pages through live attempts by id.
func (r *AttemptRepository) ListInProgress(ctx context.Context, afterID int64, limit int) ([]model.Attempt, error) {
	return r.list(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE NOT is_completed AND id > $1
		 ORDER BY id
		 LIMIT $2`, afterID, limit)
}

// Create inserts a new attempt. The partial unique index on live attempts turns a
// concurrent second start into an empty RETURNING, reported as ErrConflict.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attempts (student_id, test_id, attempt_number, max_score, started_at)
		 VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
		 ON CONFLICT (student_id, test_id) WHERE NOT is_completed DO NOTHING
		 RETURNING id, started_at`,
		a.StudentID, a.TestID, a.AttemptNumber, a.MaxScore, startedAt(a),
	).Scan(&a.ID, &a.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrConflict
	}
	return mapErr(err)
}

// Update persists the mutable fields of an attempt.
func (r *AttemptRepository) Update(ctx context.Context, a *model.Attempt) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET completed_at = $1, score = $2, max_score = $3, percentage = $4, grade = $5,
		     is_completed = $6, remaining_seconds = $7, auto_completed = $8
		 WHERE id = $9`,
		a.CompletedAt, a.Score, a.MaxScore, a.Percentage, a.Grade,
		a.IsCompleted, a.RemainingSeconds, a.AutoCompleted, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an attempt; its answers cascade.
func (r *AttemptRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM attempts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func startedAt(a *model.Attempt) *time.Time {
	if a.StartedAt.IsZero() {
		return nil
	}
	return &a.StartedAt
}
