// Package grading scores a single answer against a single question.
// Everything here is pure: no I/O, no errors, malformed input is simply wrong.
package grading

import "github.com/stemsi/gramtest-backend/internal/model"

// Evaluator scores one answer of a specific test format.
// It returns whether the answer is correct and the points awarded for it.
type Evaluator interface {
	Evaluate(q *model.Question, a model.AnswerPayload, points int) (bool, int)
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(q *model.Question, a model.AnswerPayload, points int) (bool, int)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(q *model.Question, a model.AnswerPayload, points int) (bool, int) {
	return f(q, a, points)
}

// Dispatcher selects an Evaluator by the test's format tag.
type Dispatcher struct {
	evaluators map[model.TestFormat]Evaluator
}

// NewDispatcher installs the built-in evaluator of every format.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		evaluators: map[model.TestFormat]Evaluator{
			model.FormatSpelling:      EvaluatorFunc(EvaluateSpelling),
			model.FormatPunctuation:   EvaluatorFunc(EvaluatePunctuation),
			model.FormatOrthoepy:      EvaluatorFunc(EvaluateOrthoepy),
			model.FormatRegularChoice: EvaluatorFunc(EvaluateRegularChoice),
			model.FormatNotParticle:   EvaluatorFunc(EvaluateNotParticle),
		},
	}
}

// Evaluate scores a with an explicit per-question point value.
// An unknown format scores as incorrect.
func (d *Dispatcher) Evaluate(format model.TestFormat, q *model.Question, a model.AnswerPayload, points int) (bool, int) {
	ev, ok := d.evaluators[format]
	if !ok || q == nil {
		return false, 0
	}
	return ev.Evaluate(q, a, points)
}

// Score scores a using the format's default point value for q.
func (d *Dispatcher) Score(format model.TestFormat, q *model.Question, a model.AnswerPayload) (bool, int) {
	return d.Evaluate(format, q, a, PointsFor(format, q))
}

// PointsFor returns what q is worth. Spelling and NotParticle use the question's
// configured points (at least 1); the other formats are worth 1 point per question.
func PointsFor(format model.TestFormat, q *model.Question) int {
	if format.UsesQuestionPoints() && q != nil && q.Points > 0 {
		return q.Points
	}
	return 1
}

// MaxScore sums PointsFor over all questions.
func MaxScore(format model.TestFormat, questions []model.Question) int {
	total := 0
	for i := range questions {
		total += PointsFor(format, &questions[i])
	}
	return total
}

func verdict(correct bool, points int) (bool, int) {
	if !correct {
		return false, 0
	}
	return true, points
}
