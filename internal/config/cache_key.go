package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// TestDefinitionKey returns the cache key for a test's metadata.
func (r *CacheKeyStruct) TestDefinitionKey(testID int64) string {
	return fmt.Sprintf("test:%d:definition", testID)
}

// TestQuestionsKey returns the cache key for a test's questions, answer keys included.
func (r *CacheKeyStruct) TestQuestionsKey(testID int64) string {
	return fmt.Sprintf("test:%d:questions", testID)
}

// AttemptLockKey returns the lock key serializing writes to one attempt.
func (r *CacheKeyStruct) AttemptLockKey(attemptID int64) string {
	return fmt.Sprintf("lock:attempt:%d", attemptID)
}

// StartLockKey returns the lock key serializing attempt creation for a student/test pair.
func (r *CacheKeyStruct) StartLockKey(studentID int, testID int64) string {
	return fmt.Sprintf("lock:start:%d:%d", studentID, testID)
}

// TestActivityChannel returns the Redis PubSub channel name for a test's activity feed
func (r *CacheKeyStruct) TestActivityChannel(testID int64) string {
	return fmt.Sprintf("test:%d:activity", testID)
}

var CacheKey = NewCacheKeyStruct()
