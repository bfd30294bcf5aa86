package grading

import (
	"testing"

	"github.com/stemsi/gramtest-backend/internal/model"
)

func intPtr(v int) *int { return &v }

func idPtr(v int64) *int64 { return &v }

func text(s string) model.AnswerPayload { return model.AnswerPayload{Text: s} }

func TestEvaluateSpelling(t *testing.T) {
	gap := &model.Question{Points: 2, Key: model.QuestionKey{CorrectLetters: "е"}}
	multi := &model.Question{Points: 3, Key: model.QuestionKey{CorrectLetters: "о, а,и"}}
	none := &model.Question{Points: 1, Key: model.QuestionKey{NoLetterRequired: true}}

	tests := []struct {
		name    string
		q       *model.Question
		answer  model.AnswerPayload
		correct bool
		points  int
	}{
		{name: "upper case with trailing space", q: gap, answer: text("Е "), correct: true, points: 2},
		{name: "exact letter", q: gap, answer: text("е"), correct: true, points: 2},
		{name: "wrong letter", q: gap, answer: text("и"), correct: false, points: 0},
		{name: "empty input", q: gap, answer: text("   "), correct: false, points: 0},
		{name: "no letter flag on gap", q: gap, answer: model.AnswerPayload{NoLetter: true}, correct: false, points: 0},
		{name: "multi blank with spaces", q: multi, answer: text(" О , А, И "), correct: true, points: 3},
		{name: "multi blank wrong order", q: multi, answer: text("а,о,и"), correct: false, points: 0},
		{name: "no letter required and flagged", q: none, answer: model.AnswerPayload{NoLetter: true}, correct: true, points: 1},
		{name: "no letter required but letter given", q: none, answer: text("ь"), correct: false, points: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			correct, points := EvaluateSpelling(tc.q, tc.answer, tc.q.Points)
			if correct != tc.correct || points != tc.points {
				t.Errorf("got (%v, %d), want (%v, %d)", correct, points, tc.correct, tc.points)
			}
		})
	}
}

func TestNormalizeSpellingIdempotent(t *testing.T) {
	inputs := []string{"Е ", " О , А, И ", "а ,б", "  ", "Ё,ъ", "Н, НН", "a  b"}
	for _, in := range inputs {
		once := NormalizeSpelling(in)
		twice := NormalizeSpelling(once)
		if once != twice {
			t.Errorf("NormalizeSpelling(%q) = %q, second pass gave %q", in, once, twice)
		}
	}
	if got := NormalizeSpelling("Е "); got != "е" {
		t.Errorf("NormalizeSpelling(%q) = %q, want %q", "Е ", got, "е")
	}
	if got := NormalizeSpelling(" Н ,  НН "); got != "н,нн" {
		t.Errorf("comma spacing not collapsed: %q", got)
	}
}

func TestEvaluatePunctuation(t *testing.T) {
	q := &model.Question{Key: model.QuestionKey{CorrectPositions: []int{1, 2}}}

	tests := []struct {
		input   string
		correct bool
	}{
		{"2,1", true},
		{" 1  2", true},
		{"12", true},
		{"1;2.", true},
		{"1", false},
		{"1,2,3", false},
		{"", false},
		{"запятые", false},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			correct, points := EvaluatePunctuation(q, text(tc.input), 1)
			if correct != tc.correct {
				t.Errorf("input %q: got %v, want %v", tc.input, correct, tc.correct)
			}
			if correct && points != 1 || !correct && points != 0 {
				t.Errorf("input %q: unexpected points %d", tc.input, points)
			}
		})
	}
}

func TestEvaluateOrthoepy(t *testing.T) {
	q := &model.Question{Key: model.QuestionKey{StressIndex: 2}}

	if ok, _ := EvaluateOrthoepy(q, model.AnswerPayload{Index: intPtr(2)}, 1); !ok {
		t.Error("matching index should be correct")
	}
	if ok, _ := EvaluateOrthoepy(q, model.AnswerPayload{Index: intPtr(1)}, 1); ok {
		t.Error("other index should be wrong")
	}
	if ok, _ := EvaluateOrthoepy(q, text(" 2 "), 1); !ok {
		t.Error("index given as text should be accepted")
	}
	if ok, _ := EvaluateOrthoepy(q, model.AnswerPayload{}, 1); ok {
		t.Error("missing index should be wrong")
	}
}

func TestEvaluateRegularChoice(t *testing.T) {
	single := &model.Question{
		Key: model.QuestionKey{ChoiceType: model.ChoiceSingle},
		Options: []model.Option{
			{ID: 1, Text: "a"}, {ID: 2, Text: "b", IsCorrect: true}, {ID: 3, Text: "c"},
		},
	}
	multiple := &model.Question{
		Key: model.QuestionKey{ChoiceType: model.ChoiceMultiple},
		Options: []model.Option{
			{ID: 2, IsCorrect: true}, {ID: 3}, {ID: 4, IsCorrect: true}, {ID: 5},
		},
	}
	trueFalse := &model.Question{
		Key: model.QuestionKey{ChoiceType: model.ChoiceTrueFalse},
		Options: []model.Option{
			{ID: 7, Text: "Верно", IsCorrect: true}, {ID: 8, Text: "Неверно"},
		},
	}

	tests := []struct {
		name    string
		q       *model.Question
		answer  model.AnswerPayload
		correct bool
	}{
		{name: "single by option id", q: single, answer: model.AnswerPayload{OptionID: idPtr(2)}, correct: true},
		{name: "single wrong id", q: single, answer: model.AnswerPayload{OptionID: idPtr(1)}, correct: false},
		{name: "single id as text", q: single, answer: text("2"), correct: true},
		{name: "single garbage", q: single, answer: text("two"), correct: false},
		{name: "multiple reordered", q: multiple, answer: text("4,2"), correct: true},
		{name: "multiple with spaces", q: multiple, answer: text(" 2 , 4 "), correct: true},
		{name: "multiple extra id", q: multiple, answer: text("2,4,5"), correct: false},
		{name: "multiple missing id", q: multiple, answer: text("2"), correct: false},
		{name: "multiple empty", q: multiple, answer: text(""), correct: false},
		{name: "multiple negative ids ignored", q: multiple, answer: text("2,-4"), correct: false},
		{name: "true false case folded", q: trueFalse, answer: text("  верно "), correct: true},
		{name: "true false wrong", q: trueFalse, answer: text("неверно"), correct: false},
		{name: "true false empty", q: trueFalse, answer: text(""), correct: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			correct, points := EvaluateRegularChoice(tc.q, tc.answer, 1)
			if correct != tc.correct {
				t.Errorf("got %v, want %v", correct, tc.correct)
			}
			if !correct && points != 0 {
				t.Errorf("wrong answer awarded %d points", points)
			}
		})
	}
}

func TestEvaluateRegularChoiceWithoutCorrectOption(t *testing.T) {
	q := &model.Question{
		Key:     model.QuestionKey{ChoiceType: model.ChoiceSingle},
		Options: []model.Option{{ID: 1}, {ID: 2}},
	}
	if ok, _ := EvaluateRegularChoice(q, model.AnswerPayload{OptionID: idPtr(1)}, 1); ok {
		t.Error("question without a correct option can never be answered correctly")
	}
}

func TestEvaluateNotParticle(t *testing.T) {
	merged := &model.Question{Points: 2, Key: model.QuestionKey{CorrectForm: model.ParticleMerged}}
	separate := &model.Question{Points: 1, Key: model.QuestionKey{CorrectForm: model.ParticleSeparate}}

	tests := []struct {
		name    string
		q       *model.Question
		input   string
		correct bool
	}{
		{"merged token", merged, "merged", true},
		{"merged russian", merged, "Слитно", true},
		{"merged boolean", merged, "true", true},
		{"merged given separate", merged, "separate", false},
		{"separate russian", separate, " раздельно ", true},
		{"separate boolean", separate, "false", true},
		{"separate zero", separate, "0", true},
		{"unknown token", separate, "maybe", false},
		{"empty", merged, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			correct, points := EvaluateNotParticle(tc.q, text(tc.input), tc.q.Points)
			if correct != tc.correct {
				t.Errorf("got %v, want %v", correct, tc.correct)
			}
			if correct && points != tc.q.Points {
				t.Errorf("points = %d, want %d", points, tc.q.Points)
			}
		})
	}
}

func TestDispatcher(t *testing.T) {
	d := NewDispatcher()
	q := &model.Question{Points: 2, Key: model.QuestionKey{CorrectLetters: "е"}}

	if ok, pts := d.Score(model.FormatSpelling, q, text("Е ")); !ok || pts != 2 {
		t.Errorf("spelling score = (%v, %d), want (true, 2)", ok, pts)
	}

	pq := &model.Question{Points: 5, Key: model.QuestionKey{CorrectPositions: []int{3}}}
	if ok, pts := d.Score(model.FormatPunctuation, pq, text("3")); !ok || pts != 1 {
		t.Errorf("punctuation ignores question points: got (%v, %d), want (true, 1)", ok, pts)
	}

	if ok, pts := d.Evaluate(model.TestFormat("ESSAY"), q, text("е"), 1); ok || pts != 0 {
		t.Errorf("unknown format must score as incorrect, got (%v, %d)", ok, pts)
	}
	if ok, _ := d.Score(model.FormatSpelling, nil, text("е")); ok {
		t.Error("nil question must score as incorrect")
	}
}

func TestMaxScore(t *testing.T) {
	questions := []model.Question{{Points: 2}, {Points: 1}, {Points: 3}}

	if got := MaxScore(model.FormatSpelling, questions); got != 6 {
		t.Errorf("spelling max score = %d, want 6", got)
	}
	if got := MaxScore(model.FormatNotParticle, questions); got != 6 {
		t.Errorf("not-particle max score = %d, want 6", got)
	}
	if got := MaxScore(model.FormatRegularChoice, questions); got != 3 {
		t.Errorf("regular choice max score = %d, want 3", got)
	}
	if got := MaxScore(model.FormatSpelling, []model.Question{{Points: 0}}); got != 1 {
		t.Errorf("unset points should count as 1, got %d", got)
	}
}
