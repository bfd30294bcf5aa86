package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/stemsi/gramtest-backend/internal/config"
	"github.com/stemsi/gramtest-backend/internal/database"
	"github.com/stemsi/gramtest-backend/internal/logger"
	"github.com/stemsi/gramtest-backend/internal/model"
	"github.com/stemsi/gramtest-backend/internal/repository"
	"github.com/stemsi/gramtest-backend/internal/service"
)

type demoTest struct {
	test      model.Test
	questions []model.Question
}

func intp(n int) *int { return &n }

// demoTests returns one small test per format.
func demoTests(teacherID int) []demoTest {
	base := func(format model.TestFormat, title string) model.Test {
		return model.Test{
			Format:           format,
			Title:            title,
			TeacherID:        teacherID,
			TimeLimitMinutes: 15,
			MaxAttempts:      3,
			IsActive:         true,
		}
	}

	return []demoTest{
		{
			test: base(model.FormatSpelling, "Правописание: пропущенные буквы"),
			questions: []model.Question{
				{OrderIndex: 1, Points: 1, Prompt: "пр..красный", Key: model.QuestionKey{CorrectLetters: "е"}},
				{OrderIndex: 2, Points: 1, Prompt: "прелест..ный", Key: model.QuestionKey{NoLetterRequired: true}},
				{OrderIndex: 3, Points: 2, Prompt: "ра..читать", Key: model.QuestionKey{CorrectLetters: "сс"}},
			},
		},
		{
			test: base(model.FormatPunctuation, "Пунктуация: запятые"),
			questions: []model.Question{
				{OrderIndex: 1, Prompt: "Когда наступила весна (1) птицы вернулись (2) и запели.",
					Key: model.QuestionKey{CorrectPositions: []int{1}}},
				{OrderIndex: 2, Prompt: "Я знал (1) что он придёт (2) но (3) всё равно волновался.",
					Key: model.QuestionKey{CorrectPositions: []int{1, 2}}},
			},
		},
		{
			test: base(model.FormatOrthoepy, "Орфоэпия: ударение"),
			questions: []model.Question{
				{OrderIndex: 1, Prompt: "звонит", Key: model.QuestionKey{StressIndex: 4}},
				{OrderIndex: 2, Prompt: "торты", Key: model.QuestionKey{StressIndex: 1}},
			},
		},
		{
			test: base(model.FormatRegularChoice, "Выбор ответа"),
			questions: []model.Question{
				{OrderIndex: 1, Prompt: "Какое слово пишется через дефис?",
					Key: model.QuestionKey{ChoiceType: model.ChoiceSingle},
					Options: []model.Option{
						{Text: "кто-то", IsCorrect: true},
						{Text: "вовремя"},
						{Text: "наконец"},
					}},
				{OrderIndex: 2, Prompt: "Отметьте слова с удвоенной согласной.",
					Key: model.QuestionKey{ChoiceType: model.ChoiceMultiple},
					Options: []model.Option{
						{Text: "касса", IsCorrect: true},
						{Text: "галерея"},
						{Text: "программа", IsCorrect: true},
					}},
				{OrderIndex: 3, Prompt: "В слове «солнце» есть непроизносимая согласная.",
					Key: model.QuestionKey{ChoiceType: model.ChoiceTrueFalse},
					Options: []model.Option{
						{Text: "Верно", IsCorrect: true},
						{Text: "Неверно"},
					}},
			},
		},
		{
			test: base(model.FormatNotParticle, "НЕ с разными частями речи"),
			questions: []model.Question{
				{OrderIndex: 1, Points: 1, Prompt: "(не)смотря на дождь", Key: model.QuestionKey{CorrectForm: model.ParticleMerged}},
				{OrderIndex: 2, Points: 1, Prompt: "(не)был дома", Key: model.QuestionKey{CorrectForm: model.ParticleSeparate}},
			},
		},
	}
}

func main() {
	className := flag.String("class", "Демо 9А", "Class to seed")
	teacherID := flag.Int("teacher", 1, "Teacher id owning the demo tests")
	students := flag.Int("students", 3, "Number of demo students")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat).With().Str("component", "seed_demo").Logger()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	stores := repository.NewPostgresStores(pool)
	classRepo := repository.NewClassRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	auth := service.NewAuthService(cfg)

	class, err := classRepo.EnsureByName(ctx, *className)
	if err != nil {
		log.Fatal().Err(err).Str("class", *className).Msg("Failed to ensure class")
	}
	log.Info().Int("class_id", class.ID).Str("name", class.Name).Msg("Class ready")

	existing, err := studentRepo.ListByClass(ctx, class.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list students")
	}
	for i := len(existing); i < *students; i++ {
		s := &model.Student{ClassID: class.ID, FullName: fmt.Sprintf("Ученик %d", i+1)}
		if err := studentRepo.Create(ctx, s); err != nil {
			log.Fatal().Err(err).Msg("Failed to create student")
		}
		existing = append(existing, *s)
	}

	for _, d := range demoTests(*teacherID) {
		t := d.test
		if err := stores.Tests.Create(ctx, &t); err != nil {
			log.Fatal().Err(err).Str("format", string(t.Format)).Msg("Failed to create test")
		}
		for _, q := range d.questions {
			q.TestID = t.ID
			if err := stores.Questions.Create(ctx, &q); err != nil {
				log.Fatal().Err(err).Int64("test_id", t.ID).Msg("Failed to create question")
			}
		}
		if err := stores.Assignments.Create(ctx, &model.Assignment{TestID: t.ID, ClassID: class.ID}); err != nil {
			log.Fatal().Err(err).Int64("test_id", t.ID).Msg("Failed to assign test")
		}
		log.Info().
			Int64("test_id", t.ID).
			Str("format", string(t.Format)).
			Int("questions", len(d.questions)).
			Msg("Test seeded")
	}

	teacherToken, err := auth.GenerateTeacherToken(*teacherID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign teacher token")
	}
	fmt.Printf("teacher %d: %s\n", *teacherID, teacherToken)
	for _, s := range existing {
		token, err := auth.GenerateStudentToken(s.ID, s.ClassID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to sign student token")
		}
		fmt.Printf("student %d (%s): %s\n", s.ID, s.FullName, token)
	}
}
