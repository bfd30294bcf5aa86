package grading

import (
	"sort"
	"strconv"
	"strings"

	"github.com/stemsi/gramtest-backend/internal/model"
)

// EvaluateSpelling compares the inserted letters. When the gap needs no letter at all,
// only an explicit "no letter needed" answer is correct.
func EvaluateSpelling(q *model.Question, a model.AnswerPayload, points int) (bool, int) {
	if q.Key.NoLetterRequired {
		return verdict(a.NoLetter, points)
	}
	if a.NoLetter {
		return verdict(false, points)
	}
	got := NormalizeSpelling(a.Text)
	if got == "" {
		return verdict(false, points)
	}
	return verdict(got == NormalizeSpelling(q.Key.CorrectLetters), points)
}

// EvaluatePunctuation compares the set of positions where a mark belongs. Digits are
// pulled out of the raw input and sorted, so order and separators do not matter but a
// missing or extra digit does.
func EvaluatePunctuation(q *model.Question, a model.AnswerPayload, points int) (bool, int) {
	got := sortedDigits(a.Text)
	if got == "" {
		return verdict(false, points)
	}
	var want strings.Builder
	for _, p := range q.Key.CorrectPositions {
		want.WriteString(strconv.Itoa(p))
	}
	return verdict(got == sortedDigits(want.String()), points)
}

// EvaluateOrthoepy checks the chosen stressed syllable.
func EvaluateOrthoepy(q *model.Question, a model.AnswerPayload, points int) (bool, int) {
	idx, ok := chosenIndex(a)
	if !ok {
		return verdict(false, points)
	}
	return verdict(idx == q.Key.StressIndex, points)
}

// EvaluateRegularChoice handles single choice, multiple choice and true/false questions.
func EvaluateRegularChoice(q *model.Question, a model.AnswerPayload, points int) (bool, int) {
	switch q.Key.ChoiceType {
	case model.ChoiceMultiple:
		return verdict(multipleChoiceCorrect(q, a), points)
	case model.ChoiceTrueFalse:
		return verdict(trueFalseCorrect(q, a), points)
	default:
		return verdict(singleChoiceCorrect(q, a), points)
	}
}

// EvaluateNotParticle maps the answer onto merged/separate and compares.
func EvaluateNotParticle(q *model.Question, a model.AnswerPayload, points int) (bool, int) {
	got, ok := ParseParticleForm(a.Text)
	if !ok {
		return verdict(false, points)
	}
	want, ok := ParseParticleForm(string(q.Key.CorrectForm))
	if !ok {
		return verdict(false, points)
	}
	return verdict(got == want, points)
}

// ParseParticleForm accepts the canonical tokens, their Russian names and boolean-like
// strings (true means merged).
func ParseParticleForm(s string) (model.ParticleForm, bool) {
	switch normalizeToken(s) {
	case "merged", "слитно", "true", "1", "yes", "да":
		return model.ParticleMerged, true
	case "separate", "раздельно", "false", "0", "no", "нет":
		return model.ParticleSeparate, true
	}
	return "", false
}

func chosenIndex(a model.AnswerPayload) (int, bool) {
	if a.Index != nil {
		return *a.Index, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(a.Text))
	if err != nil {
		return 0, false
	}
	return n, true
}

func selectedOption(a model.AnswerPayload) (int64, bool) {
	if a.OptionID != nil {
		return *a.OptionID, *a.OptionID > 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(a.Text), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// firstCorrect returns the correct option with the lowest id.
func firstCorrect(q *model.Question) (model.Option, bool) {
	var best model.Option
	found := false
	for _, o := range q.Options {
		if o.IsCorrect && (!found || o.ID < best.ID) {
			best, found = o, true
		}
	}
	return best, found
}

func singleChoiceCorrect(q *model.Question, a model.AnswerPayload) bool {
	correct, ok := firstCorrect(q)
	if !ok {
		return false
	}
	selected, ok := selectedOption(a)
	return ok && selected == correct.ID
}

func multipleChoiceCorrect(q *model.Question, a model.AnswerPayload) bool {
	got := parseIDSet(a.Text)
	if len(got) == 0 && a.OptionID != nil && *a.OptionID > 0 {
		got[*a.OptionID] = struct{}{}
	}
	want := q.CorrectOptionIDs()
	if len(got) == 0 || len(want) == 0 {
		return false
	}
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	unique := make([]int64, 0, len(want))
	for i, id := range want {
		if i == 0 || id != want[i-1] {
			unique = append(unique, id)
		}
	}
	if len(got) != len(unique) {
		return false
	}
	for _, id := range unique {
		if _, ok := got[id]; !ok {
			return false
		}
	}
	return true
}

func trueFalseCorrect(q *model.Question, a model.AnswerPayload) bool {
	correct, ok := firstCorrect(q)
	if !ok {
		return false
	}
	got := normalizeToken(a.Text)
	return got != "" && got == normalizeToken(correct.Text)
}
