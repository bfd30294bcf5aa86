package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/config"
	"github.com/stemsi/gramtest-backend/internal/database"
	"github.com/stemsi/gramtest-backend/internal/handler"
	"github.com/stemsi/gramtest-backend/internal/lock"
	"github.com/stemsi/gramtest-backend/internal/logger"
	"github.com/stemsi/gramtest-backend/internal/middleware"
	"github.com/stemsi/gramtest-backend/internal/notify"
	"github.com/stemsi/gramtest-backend/internal/repository"
	"github.com/stemsi/gramtest-backend/internal/router"
	"github.com/stemsi/gramtest-backend/internal/service"
	"github.com/stemsi/gramtest-backend/internal/validator"
	"github.com/stemsi/gramtest-backend/internal/worker"
)

// Answer writes allowed per caller per second on the HTTP path.
const answerRatePerSecond = 10

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("storage", cfg.StorageDriver).
		Str("notify", cfg.NotifyDriver).
		Msg("Starting GramTest Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Storage ───────────────────────────────────────────────────────
	var stores repository.Stores
	switch cfg.StorageDriver {
	case config.StorageMemory:
		stores = repository.NewMemoryStores().Stores
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
	case config.StoragePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		stores = repository.NewPostgresStores(pool)
	default:
		log.Fatal().Str("driver", cfg.StorageDriver).Msg("Unknown storage driver")
	}

	// ─── Connect to Redis ──────────────────────────────────────────────
	// Redis is required with Postgres; memory mode uses it only when reachable.
	var rdb *redis.Client
	if r, err := database.NewRedisClient(ctx, cfg, log); err == nil {
		rdb = r
		defer rdb.Close()
	} else if cfg.StorageDriver != config.StorageMemory {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	} else {
		log.Warn().Err(err).Msg("Redis unavailable, running with in-process locks and queue")
	}

	// ─── Locks, notifications and queue ────────────────────────────────
	var locker lock.Locker = lock.NewLocalLocker()
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, cfg.LockTTL, log)
	}

	notifier, subscriber, closer := setupNotify(cfg, rdb, log)
	if closer != nil {
		defer closer.Close()
	}

	var queue worker.Queue = worker.NewChanQueue(cfg.ExpiryBatchSize)
	if rdb != nil {
		queue = worker.NewRedisQueue(rdb, config.WorkerKey.CompleteAttemptsQueue)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	engine := service.NewEngine(stores, service.EngineOptions{
		Redis:      rdb,
		CatalogTTL: cfg.CatalogCacheTTL,
		TimeBuffer: cfg.TimeBuffer,
		Locker:     locker,
		Notifier:   notifier,
	}, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Attempt: handler.NewAttemptHandler(engine.Manager, log),
		WS:      handler.NewWSHandler(engine.Manager, log, cfg.AllowedOrigins),
		Teacher: handler.NewTeacherHandler(engine.Manager, subscriber, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workersDone := make(chan struct{})

	expiryWorker := worker.NewExpiryWorker(engine.Manager, queue, cfg.ExpirySweepEvery, cfg.ExpiryBatchSize, log)
	completionWorker := worker.NewCompletionWorker(engine.Manager, queue, cfg.CompletionPoolSize, log)

	go expiryWorker.Start(workerCtx)
	go func() {
		defer close(workersDone)
		completionWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(router.Deps{
		Auth:          authService,
		Catalog:       engine.Catalog,
		AnswerLimiter: middleware.NewRateLimiter(ctx, answerRatePerSecond, time.Second),
	}, handlers, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and let the completion pool drain.
	workerCancel()
	select {
	case <-workersDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Completion workers did not drain in time")
	}

	// 3. Flush pending lifecycle events.
	engine.Manager.Wait()

	log.Info().Msg("Shutdown complete")
}

// setupNotify picks the lifecycle event sink and the activity feed source.
// The returned closer is non-nil when the sink owns a connection.
func setupNotify(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) (notify.Notifier, notify.Subscriber, io.Closer) {
	hub := notify.NewHub()

	switch cfg.NotifyDriver {
	case config.NotifyRedis:
		if rdb == nil {
			log.Warn().Msg("Redis notifications requested without Redis, using in-process hub")
			return hub, hub, nil
		}
		n := notify.NewRedisNotifier(rdb)
		return n, n, nil
	case config.NotifyAMQP:
		n, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to AMQP broker")
		}
		// Teachers watching the activity feed still need local events.
		return notify.Multi{n, hub}, hub, n
	case config.NotifyNone:
		return hub, hub, nil
	default:
		log.Fatal().Str("driver", cfg.NotifyDriver).Msg("Unknown notify driver")
		return nil, nil, nil
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
