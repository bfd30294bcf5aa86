package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/gramtest-backend/internal/model"
)

const testColumns = `id, format, title, teacher_id, time_limit_minutes, max_attempts,
	available_from, available_until, is_active, created_at, updated_at`

// TestRepository handles test definition data access.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

func scanTest(row pgx.Row, t *model.Test) error {
	return row.Scan(&t.ID, &t.Format, &t.Title, &t.TeacherID, &t.TimeLimitMinutes, &t.MaxAttempts,
		&t.AvailableFrom, &t.AvailableUntil, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID retrieves a test by its ID.
func (r *TestRepository) GetByID(ctx context.Context, id int64) (*model.Test, error) {
	t := &model.Test{}
	row := r.pool.QueryRow(ctx, `SELECT `+testColumns+` FROM tests WHERE id = $1`, id)
	if err := scanTest(row, t); err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

// ListByParent lists the tests authored by a teacher, newest first.
func (r *TestRepository) ListByParent(ctx context.Context, teacherID int64) ([]model.Test, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+testColumns+` FROM tests WHERE teacher_id = $1 ORDER BY created_at DESC, id DESC`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		var t model.Test
		if err := scanTest(rows, &t); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// Create inserts a new test.
func (r *TestRepository) Create(ctx context.Context, t *model.Test) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO tests (format, title, teacher_id, time_limit_minutes, max_attempts,
		                    available_from, available_until, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		t.Format, t.Title, t.TeacherID, t.TimeLimitMinutes, t.MaxAttempts,
		t.AvailableFrom, t.AvailableUntil, t.IsActive,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// Update modifies an existing test.
func (r *TestRepository) Update(ctx context.Context, t *model.Test) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE tests
		 SET format = $1, title = $2, time_limit_minutes = $3, max_attempts = $4,
		     available_from = $5, available_until = $6, is_active = $7, updated_at = NOW()
		 WHERE id = $8
		 RETURNING updated_at`,
		t.Format, t.Title, t.TimeLimitMinutes, t.MaxAttempts,
		t.AvailableFrom, t.AvailableUntil, t.IsActive, t.ID,
	).Scan(&t.UpdatedAt)
	return mapErr(err)
}

// Delete deactivates a test. Tests referenced by attempts are never removed.
func (r *TestRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tests SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
