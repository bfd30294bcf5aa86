package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/metrics"
	"github.com/stemsi/gramtest-backend/internal/model"
	"github.com/stemsi/gramtest-backend/internal/repository"
)

// AnswerRecorder upserts one answer per (attempt, question). It does not score.
type AnswerRecorder struct {
	answers repository.AnswerStore
	log     zerolog.Logger
}

// NewAnswerRecorder creates a new AnswerRecorder.
func NewAnswerRecorder(answers repository.AnswerStore, log zerolog.Logger) *AnswerRecorder {
	return &AnswerRecorder{
		answers: answers,
		log:     log.With().Str("component", "answer_recorder").Logger(),
	}
}

// SaveAnswer stores payload as the answer to questionID and removes any duplicates.
// Among several records for the same question the one with the highest id survives,
// so concurrent callers all converge on the same single record.
func (r *AnswerRecorder) SaveAnswer(ctx context.Context, attemptID, questionID int64, payload model.AnswerPayload) (*model.Answer, error) {
	existing, err := r.answers.ListByParent(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	written, err := r.write(ctx, attemptID, questionID, payload, newestFor(existing, questionID))
	if err != nil {
		return nil, err
	}

	after, err := r.answers.ListByParent(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("re-list answers: %w", err)
	}
	survivor := newestFor(after, questionID)
	if survivor == nil {
		return written, nil
	}

	for _, a := range after {
		if a.QuestionID != questionID || a.ID == survivor.ID {
			continue
		}
		err := r.answers.Delete(ctx, a.ID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("delete duplicate answer %d: %w", a.ID, err)
		}
		metrics.DuplicateAnswersRemoved.Inc()
		r.log.Debug().
			Int64("attempt_id", attemptID).
			Int64("question_id", questionID).
			Int64("removed_id", a.ID).
			Int64("kept_id", survivor.ID).
			Msg("Removed duplicate answer")
	}
	return survivor, nil
}

// write overwrites current in place, or inserts when there is none or it vanished.
func (r *AnswerRecorder) write(ctx context.Context, attemptID, questionID int64, payload model.AnswerPayload, current *model.Answer) (*model.Answer, error) {
	if current != nil {
		current.Payload = payload
		current.IsCorrect = false
		current.PointsAwarded = 0
		err := r.answers.Update(ctx, current)
		if err == nil {
			return current, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("update answer: %w", err)
		}
	}

	a := &model.Answer{
		AttemptID:  attemptID,
		QuestionID: questionID,
		Payload:    payload,
	}
	if err := r.answers.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	return a, nil
}

// newestFor returns a copy of the answer to questionID with the highest id.
func newestFor(answers []model.Answer, questionID int64) *model.Answer {
	var best *model.Answer
	for i := range answers {
		if answers[i].QuestionID != questionID {
			continue
		}
		if best == nil || answers[i].ID > best.ID {
			best = &answers[i]
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// latestPerQuestion indexes the surviving answer of each question.
func latestPerQuestion(answers []model.Answer) map[int64]*model.Answer {
	out := make(map[int64]*model.Answer, len(answers))
	for i := range answers {
		a := &answers[i]
		if cur, ok := out[a.QuestionID]; !ok || a.ID > cur.ID {
			out[a.QuestionID] = a
		}
	}
	return out
}
