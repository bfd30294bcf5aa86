package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/gramtest-backend/internal/model"
)

const answerColumns = `id, attempt_id, question_id, payload, is_correct, points_awarded, created_at, updated_at`

// AnswerRepository handles per-question answer data access.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

func scanAnswer(row pgx.Row, a *model.Answer) error {
	return row.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.Payload, &a.IsCorrect, &a.PointsAwarded,
		&a.CreatedAt, &a.UpdatedAt)
}

// GetByID retrieves an answer by its ID.
func (r *AnswerRepository) GetByID(ctx context.Context, id int64) (*model.Answer, error) {
	a := &model.Answer{}
	row := r.pool.QueryRow(ctx, `SELECT `+answerColumns+` FROM answers WHERE id = $1`, id)
	if err := scanAnswer(row, a); err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

// ListByParent lists the answers of an attempt ordered by id.
func (r *AnswerRepository) ListByParent(ctx context.Context, attemptID int64) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+answerColumns+` FROM answers WHERE attempt_id = $1 ORDER BY id`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := scanAnswer(rows, &a); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// Create inserts an answer. A concurrent insert for the same question collapses into
// the existing row, which receives the new payload.
func (r *AnswerRepository) Create(ctx context.Context, a *model.Answer) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO answers (attempt_id, question_id, payload, is_correct, points_awarded)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (attempt_id, question_id) DO UPDATE
		   SET payload = EXCLUDED.payload,
		       is_correct = EXCLUDED.is_correct,
		       points_awarded = EXCLUDED.points_awarded,
		       updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		a.AttemptID, a.QuestionID, a.Payload, a.IsCorrect, a.PointsAwarded,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// Update persists payload and evaluation fields of an existing answer.
func (r *AnswerRepository) Update(ctx context.Context, a *model.Answer) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE answers
		 SET payload = $1, is_correct = $2, points_awarded = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING updated_at`,
		a.Payload, a.IsCorrect, a.PointsAwarded, a.ID,
	).Scan(&a.UpdatedAt)
	return mapErr(err)
}

// Delete removes an answer.
func (r *AnswerRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM answers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
