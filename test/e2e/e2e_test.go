//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stemsi/gramtest-backend/internal/config"
	"github.com/stemsi/gramtest-backend/internal/model"
	"github.com/stemsi/gramtest-backend/internal/repository"
	"github.com/stemsi/gramtest-backend/internal/service"
)

const (
	defaultBaseURL = "http://localhost:8080/api/v1"
	e2eClass       = "E2E Class"
	e2eTeacherID   = 9001
)

var (
	baseURL      string
	studentToken string
	teacherToken string
	testID       int64
	questions    []model.Question
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	if err := seed(); err != nil {
		fmt.Printf("Setup failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// seed resets the engine tables and creates one spelling test assigned to a fresh student.
func seed() error {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	// Cleanup previous test data (order matters due to FK)
	tables := []string{"answers", "attempts", "test_assignments", "question_options", "questions", "tests", "students", "classes"}
	for _, table := range tables {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("cleanup %s: %w", table, err)
		}
	}

	class, err := repository.NewClassRepository(pool).EnsureByName(ctx, e2eClass)
	if err != nil {
		return fmt.Errorf("class: %w", err)
	}
	student := &model.Student{ClassID: class.ID, FullName: "E2E Student"}
	if err := repository.NewStudentRepository(pool).Create(ctx, student); err != nil {
		return fmt.Errorf("student: %w", err)
	}

	stores := repository.NewPostgresStores(pool)
	test := &model.Test{
		Format:           model.FormatSpelling,
		Title:            "E2E Spelling",
		TeacherID:        e2eTeacherID,
		TimeLimitMinutes: 10,
		MaxAttempts:      2,
		IsActive:         true,
	}
	if err := stores.Tests.Create(ctx, test); err != nil {
		return fmt.Errorf("test: %w", err)
	}
	testID = test.ID

	for i, q := range []model.Question{
		{Points: 2, Prompt: "пр..красный", Key: model.QuestionKey{CorrectLetters: "е"}},
		{Points: 1, Prompt: "прелест..ный", Key: model.QuestionKey{NoLetterRequired: true}},
	} {
		q.TestID = test.ID
		q.OrderIndex = i + 1
		if err := stores.Questions.Create(ctx, &q); err != nil {
			return fmt.Errorf("question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := stores.Assignments.Create(ctx, &model.Assignment{TestID: test.ID, ClassID: class.ID}); err != nil {
		return fmt.Errorf("assignment: %w", err)
	}

	auth := service.NewAuthService(cfg)
	if studentToken, err = auth.GenerateStudentToken(student.ID, class.ID); err != nil {
		return err
	}
	if teacherToken, err = auth.GenerateTeacherToken(e2eTeacherID); err != nil {
		return err
	}
	return nil
}

type envelope[T any] struct {
	Data  T `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type attemptData struct {
	Attempt model.Attempt `json:"attempt"`
}

func TestE2EAttemptFlow(t *testing.T) {
	var attempt model.Attempt

	t.Run("StartAttempt", func(t *testing.T) {
		resp, err := do(http.MethodPost, fmt.Sprintf("/student/tests/%d/attempts", testID), nil, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
		var body envelope[attemptData]
		decodeJSON(t, resp, &body)
		attempt = body.Data.Attempt
		if attempt.ID == 0 || attempt.AttemptNumber != 1 {
			t.Fatalf("unexpected attempt %+v", attempt)
		}
	})

	t.Run("StartAgainReturnsSameAttempt", func(t *testing.T) {
		resp, err := do(http.MethodPost, fmt.Sprintf("/student/tests/%d/attempts", testID), nil, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		var body envelope[attemptData]
		decodeJSON(t, resp, &body)
		if body.Data.Attempt.ID != attempt.ID {
			t.Errorf("second start returned attempt %d, want %d", body.Data.Attempt.ID, attempt.ID)
		}
	})

	t.Run("SubmitAnswers", func(t *testing.T) {
		answers := []model.SubmitAnswerRequest{{Text: "Е"}, {NoLetter: true}}
		for i, a := range answers {
			path := fmt.Sprintf("/student/attempts/%d/answers/%d", attempt.ID, questions[i].ID)
			resp, err := do(http.MethodPut, path, a, studentToken)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("answer %d status %d: %s", i, resp.StatusCode, readBody(resp))
			}
			resp.Body.Close()
		}
	})

	t.Run("PauseAndReload", func(t *testing.T) {
		resp, err := do(http.MethodPost, fmt.Sprintf("/student/attempts/%d/pause", attempt.ID),
			map[string]int{"remaining_seconds": 400}, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("pause status %d: %s", resp.StatusCode, readBody(resp))
		}
		resp.Body.Close()

		resp, err = do(http.MethodGet, fmt.Sprintf("/student/attempts/%d", attempt.ID), nil, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		var body envelope[model.AttemptState]
		decodeJSON(t, resp, &body)
		if len(body.Data.Answers) != 2 {
			t.Errorf("state has %d answers, want 2", len(body.Data.Answers))
		}
		if r := body.Data.RemainingSeconds; r == nil || *r <= 0 || *r > 400 {
			t.Errorf("remaining seconds = %v", r)
		}
	})

	t.Run("Complete", func(t *testing.T) {
		resp, err := do(http.MethodPost, fmt.Sprintf("/student/attempts/%d/complete", attempt.ID), nil, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		var body envelope[attemptData]
		decodeJSON(t, resp, &body)
		if !body.Data.Attempt.IsCompleted || body.Data.Attempt.Score != 3 || body.Data.Attempt.Grade != 5 {
			t.Errorf("completed attempt = %+v", body.Data.Attempt)
		}
	})

	t.Run("LateAnswerRejected", func(t *testing.T) {
		path := fmt.Sprintf("/student/attempts/%d/answers/%d", attempt.ID, questions[0].ID)
		resp, err := do(http.MethodPut, path, model.SubmitAnswerRequest{Text: "и"}, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("answer after completion status %d: %s", resp.StatusCode, readBody(resp))
		}
	})

	t.Run("Results", func(t *testing.T) {
		resp, err := do(http.MethodGet, fmt.Sprintf("/student/tests/%d/attempts/best", testID), nil, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		var body envelope[attemptData]
		decodeJSON(t, resp, &body)
		if body.Data.Attempt.ID != attempt.ID {
			t.Errorf("best attempt = %d, want %d", body.Data.Attempt.ID, attempt.ID)
		}
	})

	t.Run("TeacherRecompute", func(t *testing.T) {
		resp, err := do(http.MethodPost, fmt.Sprintf("/teacher/attempts/%d/recompute", attempt.ID), nil, teacherToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("recompute status %d: %s", resp.StatusCode, readBody(resp))
		}
		var body envelope[attemptData]
		decodeJSON(t, resp, &body)
		if body.Data.Attempt.Score != 3 {
			t.Errorf("recomputed score = %d, want 3", body.Data.Attempt.Score)
		}
	})
}

// Helpers

func do(method, path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("json decode: %v", err)
	}
}
