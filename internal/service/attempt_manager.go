package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/config"
	"github.com/stemsi/gramtest-backend/internal/grading"
	"github.com/stemsi/gramtest-backend/internal/lock"
	"github.com/stemsi/gramtest-backend/internal/metrics"
	"github.com/stemsi/gramtest-backend/internal/model"
	"github.com/stemsi/gramtest-backend/internal/notify"
	"github.com/stemsi/gramtest-backend/internal/repository"
)

const publishTimeout = 5 * time.Second

// AttemptManager owns the attempt lifecycle: NotStarted -> InProgress -> Completed.
// Writes to one attempt are serialized through the locker.
type AttemptManager struct {
	attempts   repository.AttemptStore
	answers    repository.AnswerStore
	catalog    *TestCatalog
	gate       AccessGate
	recorder   *AnswerRecorder
	aggregator *ResultAggregator
	guard      *TimeGuard
	locker     lock.Locker
	notifier   notify.Notifier
	log        zerolog.Logger

	pending sync.WaitGroup
}

// NewAttemptManager creates a new AttemptManager.
func NewAttemptManager(
	attempts repository.AttemptStore,
	answers repository.AnswerStore,
	catalog *TestCatalog,
	gate AccessGate,
	recorder *AnswerRecorder,
	aggregator *ResultAggregator,
	guard *TimeGuard,
	locker lock.Locker,
	notifier notify.Notifier,
	log zerolog.Logger,
) *AttemptManager {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &AttemptManager{
		attempts:   attempts,
		answers:    answers,
		catalog:    catalog,
		gate:       gate,
		recorder:   recorder,
		aggregator: aggregator,
		guard:      guard,
		locker:     locker,
		notifier:   notifier,
		log:        log.With().Str("component", "attempt_manager").Logger(),
	}
}

// Start opens a new attempt or resumes the live one.
func (m *AttemptManager) Start(ctx context.Context, studentID int, testID int64) (*model.Attempt, error) {
	test, err := m.catalog.Test(ctx, testID)
	if err != nil {
		return nil, err
	}

	ok, err := m.gate.CanAccess(ctx, studentID, testID)
	if err != nil {
		return nil, fmt.Errorf("check access: %w", err)
	}
	if !ok {
		metrics.AttemptsStarted.WithLabelValues("denied", string(test.Format)).Inc()
		return nil, ErrAccessDenied
	}

	unlock, err := m.locker.Lock(ctx, config.CacheKey.StartLockKey(studentID, testID))
	if err != nil {
		return nil, fmt.Errorf("lock start: %w", err)
	}
	defer unlock()

	live, err := m.attempts.FindInProgress(ctx, studentID, testID)
	if err == nil {
		metrics.AttemptsStarted.WithLabelValues("resumed", string(test.Format)).Inc()
		return live, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find live attempt: %w", err)
	}

	previous, err := m.attempts.ListByStudentAndTest(ctx, studentID, testID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	questions, err := m.catalog.Questions(ctx, testID)
	if err != nil {
		return nil, err
	}

	attempt := &model.Attempt{
		StudentID:     studentID,
		TestID:        testID,
		AttemptNumber: len(previous) + 1,
		StartedAt:     m.guard.Now(),
		MaxScore:      grading.MaxScore(test.Format, questions),
	}
	if err := m.attempts.Create(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Another instance started the attempt first.
			winner, fetchErr := m.attempts.FindInProgress(ctx, studentID, testID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent start detected, but fetch failed: %w", fetchErr)
			}
			metrics.AttemptsStarted.WithLabelValues("resumed", string(test.Format)).Inc()
			return winner, nil
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	metrics.AttemptsStarted.WithLabelValues("created", string(test.Format)).Inc()
	m.log.Info().
		Int("student_id", studentID).
		Int64("test_id", testID).
		Int64("attempt_id", attempt.ID).
		Int("attempt_number", attempt.AttemptNumber).
		Msg("Attempt started")
	m.emit(model.EventAttemptStarted, attempt)
	return attempt, nil
}

// SubmitAnswer records one answer. An answer that arrives after the deadline
// auto-completes the attempt and returns a *TimeExpiredError.
func (m *AttemptManager) SubmitAnswer(ctx context.Context, studentID int, attemptID, questionID int64, payload model.AnswerPayload) (*model.Answer, error) {
	attempt, err := m.owned(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsCompleted {
		return nil, ErrAttemptCompleted
	}

	test, err := m.catalog.Test(ctx, attempt.TestID)
	if err != nil {
		return nil, err
	}
	if _, err := m.catalog.Question(ctx, attempt.TestID, questionID); err != nil {
		return nil, err
	}

	if m.guard.Expired(attempt, test.TimeLimit()) {
		return nil, m.rejectLate(ctx, studentID, attemptID)
	}

	answer, late, err := m.record(ctx, attemptID, questionID, test.TimeLimit(), payload)
	if err != nil {
		return nil, err
	}
	if late {
		return nil, m.rejectLate(ctx, studentID, attemptID)
	}
	return answer, nil
}

// record saves the answer under the attempt lock. late is true when the reloaded
// attempt turned out to be past its deadline; nothing is written then.
func (m *AttemptManager) record(ctx context.Context, attemptID, questionID int64, limit time.Duration, payload model.AnswerPayload) (_ *model.Answer, late bool, _ error) {
	unlock, err := m.locker.Lock(ctx, config.CacheKey.AttemptLockKey(attemptID))
	if err != nil {
		return nil, false, fmt.Errorf("lock attempt: %w", err)
	}
	defer unlock()

	// Completion or a new pause snapshot may have won the lock while we waited.
	current, err := m.load(ctx, attemptID)
	if err != nil {
		return nil, false, err
	}
	if current.IsCompleted {
		return nil, false, ErrAttemptCompleted
	}
	if m.guard.Expired(current, limit) {
		return nil, true, nil
	}

	answer, err := m.recorder.SaveAnswer(ctx, attemptID, questionID, payload)
	return answer, false, err
}

// rejectLate auto-completes an attempt that received an answer after its deadline.
func (m *AttemptManager) rejectLate(ctx context.Context, studentID int, attemptID int64) error {
	completed, err := m.complete(ctx, attemptID, true)
	if err != nil {
		return err
	}
	m.log.Info().
		Int64("attempt_id", attemptID).
		Int("student_id", studentID).
		Msg("Late answer rejected, attempt auto-completed")
	return &TimeExpiredError{Attempt: completed}
}

// Pause stores the client's countdown. Later expiry checks use this snapshot.
// A snapshot never grows: the first one is capped at the wall time left, later ones
// at the previous snapshot.
func (m *AttemptManager) Pause(ctx context.Context, studentID int, attemptID int64, remainingSeconds int) (*model.Attempt, error) {
	if _, err := m.owned(ctx, studentID, attemptID); err != nil {
		return nil, err
	}

	unlock, err := m.locker.Lock(ctx, config.CacheKey.AttemptLockKey(attemptID))
	if err != nil {
		return nil, fmt.Errorf("lock attempt: %w", err)
	}
	defer unlock()

	attempt, err := m.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsCompleted {
		return nil, ErrAttemptCompleted
	}

	test, err := m.catalog.Test(ctx, attempt.TestID)
	if err != nil {
		return nil, err
	}
	remainingSeconds = m.snapshot(attempt, test.TimeLimit(), remainingSeconds)
	attempt.RemainingSeconds = &remainingSeconds

	if err := m.attempts.Update(ctx, attempt); err != nil {
		return nil, fmt.Errorf("store pause snapshot: %w", err)
	}
	return attempt, nil
}

// snapshot bounds a client countdown for storage.
func (m *AttemptManager) snapshot(a *model.Attempt, limit time.Duration, reported int) int {
	if reported < 0 {
		reported = 0
	}
	if limit <= 0 {
		return reported
	}
	ceiling := int(limit.Seconds())
	if a.RemainingSeconds != nil {
		ceiling = *a.RemainingSeconds
	} else if left := int((limit - m.guard.Elapsed(a)).Seconds()); left < ceiling {
		ceiling = left
	}
	if ceiling < 0 {
		ceiling = 0
	}
	if reported > ceiling {
		return ceiling
	}
	return reported
}

// Heartbeat stores the client's countdown like Pause and returns the time left.
// When the countdown is already inside the grace buffer the attempt is auto-completed
// and a *TimeExpiredError is returned.
func (m *AttemptManager) Heartbeat(ctx context.Context, studentID int, attemptID int64, remainingSeconds int) (*float64, error) {
	attempt, err := m.Pause(ctx, studentID, attemptID, remainingSeconds)
	if err != nil {
		return nil, err
	}
	test, err := m.catalog.Test(ctx, attempt.TestID)
	if err != nil {
		return nil, err
	}
	if m.guard.Expired(attempt, test.TimeLimit()) {
		completed, err := m.complete(ctx, attemptID, true)
		if err != nil {
			return nil, err
		}
		return nil, &TimeExpiredError{Attempt: completed}
	}
	return m.guard.Remaining(attempt, test.TimeLimit()), nil
}

// Complete finalizes the student's attempt. Completing twice returns the stored result.
func (m *AttemptManager) Complete(ctx context.Context, studentID int, attemptID int64) (*model.Attempt, error) {
	if _, err := m.owned(ctx, studentID, attemptID); err != nil {
		return nil, err
	}
	return m.complete(ctx, attemptID, false)
}

// AutoComplete finalizes an attempt on behalf of the expiry trigger.
func (m *AttemptManager) AutoComplete(ctx context.Context, attemptID int64) (*model.Attempt, error) {
	return m.complete(ctx, attemptID, true)
}

func (m *AttemptManager) complete(ctx context.Context, attemptID int64, auto bool) (*model.Attempt, error) {
	unlock, err := m.locker.Lock(ctx, config.CacheKey.AttemptLockKey(attemptID))
	if err != nil {
		return nil, fmt.Errorf("lock attempt: %w", err)
	}
	defer unlock()

	attempt, err := m.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsCompleted {
		return attempt, nil
	}

	res, err := m.aggregator.Recompute(ctx, attempt)
	if err != nil {
		return nil, fmt.Errorf("recompute attempt %d: %w", attemptID, err)
	}

	now := m.guard.Now()
	attempt.CompletedAt = &now
	attempt.IsCompleted = true
	attempt.AutoCompleted = auto
	applyResult(attempt, res)

	if err := m.attempts.Update(ctx, attempt); err != nil {
		return nil, fmt.Errorf("persist completed attempt: %w", err)
	}

	test, err := m.catalog.Test(ctx, attempt.TestID)
	format := ""
	if err == nil {
		format = string(test.Format)
	}
	trigger := "manual"
	if auto {
		trigger = "auto"
	}
	metrics.AttemptsCompleted.WithLabelValues(trigger, format).Inc()
	metrics.ScorePercentage.WithLabelValues(format).Observe(attempt.Percentage)

	m.log.Info().
		Int64("attempt_id", attempt.ID).
		Int("student_id", attempt.StudentID).
		Int("score", attempt.Score).
		Int("max_score", attempt.MaxScore).
		Int("grade", attempt.Grade).
		Bool("auto", auto).
		Msg("Attempt completed")
	m.emit(model.EventAttemptCompleted, attempt)
	return attempt, nil
}

// Recompute re-scores an attempt from its stored answers and persists the numbers.
// In-progress attempts get a running score but no grade.
func (m *AttemptManager) Recompute(ctx context.Context, attemptID int64) (*model.Attempt, error) {
	unlock, err := m.locker.Lock(ctx, config.CacheKey.AttemptLockKey(attemptID))
	if err != nil {
		return nil, fmt.Errorf("lock attempt: %w", err)
	}
	defer unlock()

	attempt, err := m.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	res, err := m.aggregator.Recompute(ctx, attempt)
	if err != nil {
		return nil, fmt.Errorf("recompute attempt %d: %w", attemptID, err)
	}
	applyResult(attempt, res)
	if !attempt.IsCompleted {
		attempt.Grade = 0
	}
	if err := m.attempts.Update(ctx, attempt); err != nil {
		return nil, fmt.Errorf("persist recomputed attempt: %w", err)
	}
	return attempt, nil
}

// RecomputeForTeacher re-scores an attempt of one of the teacher's tests against the
// current answer key. The cached definition is dropped first so edits take effect.
func (m *AttemptManager) RecomputeForTeacher(ctx context.Context, teacherID int, attemptID int64) (*model.Attempt, error) {
	attempt, err := m.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	test, err := m.catalog.Test(ctx, attempt.TestID)
	if err != nil {
		return nil, err
	}
	if test.TeacherID != teacherID {
		m.log.Warn().
			Int("teacher_id", teacherID).
			Int64("test_id", test.ID).
			Int64("attempt_id", attemptID).
			Msg("Recompute requested by a teacher who does not own the test")
		return nil, ErrForbidden
	}
	if err := m.catalog.Invalidate(ctx, attempt.TestID); err != nil {
		m.log.Warn().Err(err).Int64("test_id", attempt.TestID).Msg("Failed to invalidate test cache")
	}
	return m.Recompute(ctx, attemptID)
}

func applyResult(a *model.Attempt, res Result) {
	a.Score = res.Score
	a.MaxScore = res.MaxScore
	a.Percentage = res.Percentage
	a.Grade = res.Grade
}

// GetAttempt returns one of the student's attempts.
func (m *AttemptManager) GetAttempt(ctx context.Context, studentID int, attemptID int64) (*model.Attempt, error) {
	return m.owned(ctx, studentID, attemptID)
}

// GetAttemptCount returns how many attempts the student has made at the test.
func (m *AttemptManager) GetAttemptCount(ctx context.Context, studentID int, testID int64) (int, error) {
	attempts, err := m.attempts.ListByStudentAndTest(ctx, studentID, testID)
	if err != nil {
		return 0, fmt.Errorf("list attempts: %w", err)
	}
	return len(attempts), nil
}

// GetAllResults returns every attempt ordered by attempt number.
func (m *AttemptManager) GetAllResults(ctx context.Context, studentID int, testID int64) ([]model.Attempt, error) {
	attempts, err := m.attempts.ListByStudentAndTest(ctx, studentID, testID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	return attempts, nil
}

// GetBestResult returns the completed attempt with the highest percentage, ties broken
// by score. It returns nil when nothing is completed yet.
func (m *AttemptManager) GetBestResult(ctx context.Context, studentID int, testID int64) (*model.Attempt, error) {
	attempts, err := m.attempts.ListByStudentAndTest(ctx, studentID, testID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	var best *model.Attempt
	for i := range attempts {
		a := &attempts[i]
		if !a.IsCompleted {
			continue
		}
		if best == nil || a.Percentage > best.Percentage ||
			(a.Percentage == best.Percentage && a.Score > best.Score) {
			best = a
		}
	}
	return best, nil
}

// GetLatestResult returns the completed attempt with the highest number, or nil.
func (m *AttemptManager) GetLatestResult(ctx context.Context, studentID int, testID int64) (*model.Attempt, error) {
	attempts, err := m.attempts.ListByStudentAndTest(ctx, studentID, testID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	for i := len(attempts) - 1; i >= 0; i-- {
		if attempts[i].IsCompleted {
			return &attempts[i], nil
		}
	}
	return nil, nil
}

// TestAttempts lists every attempt at a test, for the teacher activity snapshot.
func (m *AttemptManager) TestAttempts(ctx context.Context, testID int64) ([]model.Attempt, error) {
	attempts, err := m.attempts.ListByParent(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("list test attempts: %w", err)
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	return attempts, nil
}

// GetState returns what a reloading client needs: the attempt, its questions without
// answer keys, the saved answers and the time left.
func (m *AttemptManager) GetState(ctx context.Context, studentID int, attemptID int64) (*model.AttemptState, error) {
	attempt, err := m.owned(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	test, err := m.catalog.Test(ctx, attempt.TestID)
	if err != nil {
		return nil, err
	}
	questions, err := m.catalog.Questions(ctx, attempt.TestID)
	if err != nil {
		return nil, err
	}
	answers, err := m.answers.ListByParent(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	state := &model.AttemptState{
		Attempt:   *attempt,
		Questions: make([]model.QuestionForStudent, 0, len(questions)),
		Answers:   make([]model.Answer, 0, len(answers)),
	}
	for i := range questions {
		state.Questions = append(state.Questions, questions[i].ForStudent())
	}
	latest := latestPerQuestion(answers)
	for _, q := range questions {
		a, ok := latest[q.ID]
		if !ok {
			continue
		}
		answer := *a
		// Verdicts stay hidden until the attempt is graded.
		if !attempt.IsCompleted {
			answer.IsCorrect = false
			answer.PointsAwarded = 0
		}
		state.Answers = append(state.Answers, answer)
	}
	if !attempt.IsCompleted {
		state.RemainingSeconds = m.guard.Remaining(attempt, test.TimeLimit())
		state.Expired = m.guard.Expired(attempt, test.TimeLimit())
	}
	return state, nil
}

// ExpireOverdue returns ids of up to batch live attempts that ran out of time.
// Live attempts are read page by page so attempts that cannot expire never hide
// newer overdue ones.
func (m *AttemptManager) ExpireOverdue(ctx context.Context, batch int) ([]int64, error) {
	if batch <= 0 {
		return nil, nil
	}

	var (
		expired []int64
		afterID int64
	)
	for len(expired) < batch {
		live, err := m.attempts.ListInProgress(ctx, afterID, batch)
		if err != nil {
			return nil, fmt.Errorf("list live attempts: %w", err)
		}
		for i := range live {
			a := &live[i]
			afterID = a.ID
			test, err := m.catalog.Test(ctx, a.TestID)
			if err != nil {
				m.log.Warn().Err(err).Int64("attempt_id", a.ID).Msg("Skipping attempt with unreadable test")
				continue
			}
			if m.guard.Expired(a, test.TimeLimit()) {
				expired = append(expired, a.ID)
				if len(expired) == batch {
					break
				}
			}
		}
		if len(live) < batch {
			break
		}
	}
	return expired, nil
}

// Wait blocks until in-flight event publishes finish.
func (m *AttemptManager) Wait() {
	m.pending.Wait()
}

func (m *AttemptManager) owned(ctx context.Context, studentID int, attemptID int64) (*model.Attempt, error) {
	attempt, err := m.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != studentID {
		m.log.Warn().
			Int("student_id", studentID).
			Int("owner_id", attempt.StudentID).
			Int64("attempt_id", attemptID).
			Msg("Attempt ownership mismatch")
		return nil, ErrForbidden
	}
	return attempt, nil
}

func (m *AttemptManager) load(ctx context.Context, attemptID int64) (*model.Attempt, error) {
	attempt, err := m.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return attempt, nil
}

// emit publishes asynchronously; a failed delivery never fails the operation.
func (m *AttemptManager) emit(t model.EventType, a *model.Attempt) {
	event := model.NewAttemptEvent(t, a, m.guard.Now())
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := m.notifier.Publish(ctx, event); err != nil {
			metrics.NotifyFailures.Inc()
			m.log.Warn().Err(err).
				Str("event", string(t)).
				Int64("attempt_id", event.AttemptID).
				Msg("Failed to publish attempt event")
		}
	}()
}
