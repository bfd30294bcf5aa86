package service

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/grading"
	"github.com/stemsi/gramtest-backend/internal/lock"
	"github.com/stemsi/gramtest-backend/internal/notify"
	"github.com/stemsi/gramtest-backend/internal/repository"
)

// EngineOptions configures NewEngine. Zero values pick in-process defaults:
// no cache, a local locker and no notifications.
type EngineOptions struct {
	Redis      *redis.Client
	CatalogTTL time.Duration
	TimeBuffer time.Duration
	Locker     lock.Locker
	Notifier   notify.Notifier
}

// Engine is the assembled attempt engine.
type Engine struct {
	Catalog *TestCatalog
	Gate    *AssignmentGate
	Guard   *TimeGuard
	Manager *AttemptManager
}

// NewEngine wires the catalog, access gate, recorder, aggregator and manager over stores.
func NewEngine(stores repository.Stores, opts EngineOptions, log zerolog.Logger) *Engine {
	locker := opts.Locker
	if locker == nil {
		locker = lock.NewLocalLocker()
	}

	catalog := NewTestCatalog(stores.Tests, stores.Questions, opts.Redis, opts.CatalogTTL, log)
	gate := NewAssignmentGate(catalog, stores.Assignments, stores.Attempts, log)
	guard := NewTimeGuard(opts.TimeBuffer)

	manager := NewAttemptManager(
		stores.Attempts,
		stores.Answers,
		catalog,
		gate,
		NewAnswerRecorder(stores.Answers, log),
		NewResultAggregator(stores.Attempts, stores.Answers, catalog, grading.NewDispatcher(), log),
		guard,
		locker,
		opts.Notifier,
		log,
	)

	return &Engine{Catalog: catalog, Gate: gate, Guard: guard, Manager: manager}
}
