package model

// ChoiceType distinguishes the RegularChoice sub-formats.
type ChoiceType string

const (
	ChoiceSingle    ChoiceType = "SINGLE"
	ChoiceMultiple  ChoiceType = "MULTIPLE"
	ChoiceTrueFalse ChoiceType = "TRUE_FALSE"
)

// ParticleForm is the spelling of "не" with the following word.
type ParticleForm string

const (
	ParticleMerged   ParticleForm = "MERGED"
	ParticleSeparate ParticleForm = "SEPARATE"
)

// QuestionKey is the format-specific correct answer of a question.
// Only the fields of the owning test's format are meaningful.
type QuestionKey struct {
	// Spelling
	CorrectLetters   string `json:"correct_letters,omitempty"`
	NoLetterRequired bool   `json:"no_letter_required,omitempty"`

	// Punctuation: 1-based positions where a mark belongs.
	CorrectPositions []int `json:"correct_positions,omitempty"`

	// Orthoepy: index of the stressed syllable.
	StressIndex int `json:"stress_index"`

	// RegularChoice
	ChoiceType ChoiceType `json:"choice_type,omitempty"`

	// NotParticle
	CorrectForm ParticleForm `json:"correct_form,omitempty"`
}

// Option is one selectable answer of a RegularChoice question.
type Option struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
}

// Question is a single test item. Questions are read-only to the attempt engine.
type Question struct {
	ID         int64       `json:"id"`
	TestID     int64       `json:"test_id"`
	OrderIndex int         `json:"order_index"`
	Points     int         `json:"points"`
	Prompt     string      `json:"prompt"`
	Key        QuestionKey `json:"key"`
	Options    []Option    `json:"options,omitempty"`
}

// CorrectOptionIDs returns the ids of options flagged correct.
func (q *Question) CorrectOptionIDs() []int64 {
	var ids []int64
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// OptionForStudent is an option without its correctness flag.
type OptionForStudent struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// QuestionForStudent is a question without the answer key, sent to students.
type QuestionForStudent struct {
	ID         int64              `json:"id"`
	OrderIndex int                `json:"order_index"`
	Points     int                `json:"points"`
	Prompt     string             `json:"prompt"`
	ChoiceType ChoiceType         `json:"choice_type,omitempty"`
	Options    []OptionForStudent `json:"options,omitempty"`
}

// ForStudent strips the answer key.
func (q *Question) ForStudent() QuestionForStudent {
	out := QuestionForStudent{
		ID:         q.ID,
		OrderIndex: q.OrderIndex,
		Points:     q.Points,
		Prompt:     q.Prompt,
		ChoiceType: q.Key.ChoiceType,
	}
	for _, o := range q.Options {
		out.Options = append(out.Options, OptionForStudent{ID: o.ID, Text: o.Text})
	}
	return out
}
