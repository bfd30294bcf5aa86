package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/gramtest-backend/internal/model"
)

// QuestionRepository handles question data access. Options of choice questions live in
// their own table and are loaded alongside.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetByID retrieves a question with its options.
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, test_id, order_index, points, prompt, answer_key
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.TestID, &q.OrderIndex, &q.Points, &q.Prompt, &q.Key)
	if err != nil {
		return nil, mapErr(err)
	}
	opts, err := r.listOptions(ctx, `WHERE question_id = $1`, id)
	if err != nil {
		return nil, err
	}
	q.Options = opts[q.ID]
	return q, nil
}

// ListByParent retrieves all questions of a test ordered by order_index.
func (r *QuestionRepository) ListByParent(ctx context.Context, testID int64) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, order_index, points, prompt, answer_key
		 FROM questions WHERE test_id = $1
		 ORDER BY order_index, id`, testID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.TestID, &q.OrderIndex, &q.Points, &q.Prompt, &q.Key); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	opts, err := r.listOptions(ctx,
		`WHERE question_id IN (SELECT id FROM questions WHERE test_id = $1)`, testID)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		questions[i].Options = opts[questions[i].ID]
	}
	return questions, nil
}

func (r *QuestionRepository) listOptions(ctx context.Context, where string, arg int64) (map[int64][]model.Option, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_id, text, is_correct FROM question_options `+where+` ORDER BY id`, arg)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	defer rows.Close()

	byQuestion := make(map[int64][]model.Option)
	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect); err != nil {
			return nil, err
		}
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
	}
	return byQuestion, rows.Err()
}

// Create inserts a question and its options in one transaction.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO questions (test_id, order_index, points, prompt, answer_key)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			q.TestID, q.OrderIndex, q.Points, q.Prompt, q.Key,
		).Scan(&q.ID)
		if err != nil {
			return mapErr(err)
		}
		return insertOptions(ctx, tx, q)
	})
}

// Update replaces a question and its options.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE questions SET order_index = $1, points = $2, prompt = $3, answer_key = $4
			 WHERE id = $5`,
			q.OrderIndex, q.Points, q.Prompt, q.Key, q.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM question_options WHERE question_id = $1`, q.ID); err != nil {
			return err
		}
		return insertOptions(ctx, tx, q)
	})
}

func insertOptions(ctx context.Context, tx pgx.Tx, q *model.Question) error {
	for i := range q.Options {
		o := &q.Options[i]
		o.QuestionID = q.ID
		err := tx.QueryRow(ctx,
			`INSERT INTO question_options (question_id, text, is_correct)
			 VALUES ($1, $2, $3) RETURNING id`,
			o.QuestionID, o.Text, o.IsCorrect,
		).Scan(&o.ID)
		if err != nil {
			return fmt.Errorf("insert option: %w", err)
		}
	}
	return nil
}

// Delete removes a question; options cascade.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
