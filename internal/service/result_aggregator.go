package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/grading"
	"github.com/stemsi/gramtest-backend/internal/metrics"
	"github.com/stemsi/gramtest-backend/internal/model"
	"github.com/stemsi/gramtest-backend/internal/repository"
)

// Result is the aggregate score of one attempt.
type Result struct {
	Score      int     `json:"score"`
	MaxScore   int     `json:"max_score"`
	Percentage float64 `json:"percentage"`
	Grade      int     `json:"grade"`
	Answered   int     `json:"answered"`
	Correct    int     `json:"correct"`
}

// ResultAggregator re-scores every stored answer of an attempt. The result is always
// derived from storage, so running it twice gives the same numbers.
type ResultAggregator struct {
	attempts   repository.AttemptStore
	answers    repository.AnswerStore
	catalog    *TestCatalog
	dispatcher *grading.Dispatcher
	log        zerolog.Logger
}

// NewResultAggregator creates a new ResultAggregator.
func NewResultAggregator(
	attempts repository.AttemptStore,
	answers repository.AnswerStore,
	catalog *TestCatalog,
	dispatcher *grading.Dispatcher,
	log zerolog.Logger,
) *ResultAggregator {
	return &ResultAggregator{
		attempts:   attempts,
		answers:    answers,
		catalog:    catalog,
		dispatcher: dispatcher,
		log:        log.With().Str("component", "result_aggregator").Logger(),
	}
}

// RecomputeResult loads the attempt and re-scores it.
func (g *ResultAggregator) RecomputeResult(ctx context.Context, attemptID int64) (Result, error) {
	attempt, err := g.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Result{}, ErrAttemptNotFound
		}
		return Result{}, fmt.Errorf("get attempt: %w", err)
	}
	return g.Recompute(ctx, attempt)
}

// Recompute scores every question of the attempt's test against its surviving answer
// and persists changed per-answer verdicts. Unanswered questions count toward the
// maximum only.
func (g *ResultAggregator) Recompute(ctx context.Context, attempt *model.Attempt) (Result, error) {
	start := time.Now()
	defer func() { metrics.RecomputeDuration.Observe(time.Since(start).Seconds()) }()

	test, err := g.catalog.Test(ctx, attempt.TestID)
	if err != nil {
		return Result{}, err
	}
	questions, err := g.catalog.Questions(ctx, attempt.TestID)
	if err != nil {
		return Result{}, err
	}
	answers, err := g.answers.ListByParent(ctx, attempt.ID)
	if err != nil {
		return Result{}, fmt.Errorf("list answers: %w", err)
	}
	latest := latestPerQuestion(answers)

	var res Result
	for i := range questions {
		q := &questions[i]
		res.MaxScore += grading.PointsFor(test.Format, q)

		a, ok := latest[q.ID]
		if !ok {
			continue
		}
		res.Answered++

		correct, points := g.dispatcher.Score(test.Format, q, a.Payload)
		if correct {
			res.Correct++
		}
		res.Score += points

		if a.IsCorrect == correct && a.PointsAwarded == points {
			continue
		}
		a.IsCorrect = correct
		a.PointsAwarded = points
		if err := g.answers.Update(ctx, a); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return Result{}, fmt.Errorf("persist verdict of answer %d: %w", a.ID, err)
		}
	}

	if res.Score > res.MaxScore {
		res.Score = res.MaxScore
	}
	res.Percentage = grading.Percentage(res.Score, res.MaxScore)
	res.Grade = grading.Grade(res.Percentage)

	g.log.Debug().
		Int64("attempt_id", attempt.ID).
		Int("score", res.Score).
		Int("max_score", res.MaxScore).
		Int("answered", res.Answered).
		Msg("Attempt re-scored")
	return res, nil
}
