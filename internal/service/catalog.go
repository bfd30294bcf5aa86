package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/config"
	"github.com/stemsi/gramtest-backend/internal/metrics"
	"github.com/stemsi/gramtest-backend/internal/model"
	"github.com/stemsi/gramtest-backend/internal/repository"
)

// TestCatalog reads test definitions and questions through a Redis cache. Tests are
// read-only to the attempt engine, so entries simply expire after the TTL. With a nil
// Redis client every lookup goes to the store.
type TestCatalog struct {
	tests     repository.TestStore
	questions repository.QuestionStore
	rdb       *redis.Client
	ttl       time.Duration
	log       zerolog.Logger
}

// NewTestCatalog creates a new TestCatalog.
func NewTestCatalog(
	tests repository.TestStore,
	questions repository.QuestionStore,
	rdb *redis.Client,
	ttl time.Duration,
	log zerolog.Logger,
) *TestCatalog {
	return &TestCatalog{
		tests:     tests,
		questions: questions,
		rdb:       rdb,
		ttl:       ttl,
		log:       log.With().Str("component", "test_catalog").Logger(),
	}
}

// Test returns the test definition or ErrTestNotFound.
func (c *TestCatalog) Test(ctx context.Context, testID int64) (*model.Test, error) {
	key := config.CacheKey.TestDefinitionKey(testID)
	var t model.Test
	if c.fromCache(ctx, key, &t) {
		return &t, nil
	}

	loaded, err := c.tests.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	c.toCache(ctx, key, loaded)
	return loaded, nil
}

// Questions returns the questions of a test ordered by OrderIndex, answer keys included.
func (c *TestCatalog) Questions(ctx context.Context, testID int64) ([]model.Question, error) {
	key := config.CacheKey.TestQuestionsKey(testID)
	var qs []model.Question
	if c.fromCache(ctx, key, &qs) {
		return qs, nil
	}

	loaded, err := c.questions.ListByParent(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	c.toCache(ctx, key, loaded)
	return loaded, nil
}

// Question returns one question of the test or ErrQuestionNotFound.
func (c *TestCatalog) Question(ctx context.Context, testID, questionID int64) (*model.Question, error) {
	qs, err := c.Questions(ctx, testID)
	if err != nil {
		return nil, err
	}
	for i := range qs {
		if qs[i].ID == questionID {
			return &qs[i], nil
		}
	}
	return nil, ErrQuestionNotFound
}

// Invalidate drops the cached entries of a test.
func (c *TestCatalog) Invalidate(ctx context.Context, testID int64) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx,
		config.CacheKey.TestDefinitionKey(testID),
		config.CacheKey.TestQuestionsKey(testID),
	).Err()
}

func (c *TestCatalog) fromCache(ctx context.Context, key string, dst any) bool {
	if c.rdb == nil || c.ttl <= 0 {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CatalogCache.WithLabelValues("miss").Inc()
		} else {
			metrics.CatalogCache.WithLabelValues("error").Inc()
			c.log.Warn().Err(err).Str("key", key).Msg("Catalog cache read failed, falling back to store")
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		metrics.CatalogCache.WithLabelValues("error").Inc()
		c.log.Warn().Err(err).Str("key", key).Msg("Corrupt catalog cache entry")
		return false
	}
	metrics.CatalogCache.WithLabelValues("hit").Inc()
	return true
}

func (c *TestCatalog) toCache(ctx context.Context, key string, v any) {
	if c.rdb == nil || c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Catalog cache write failed")
	}
}
