package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamPoolKey returns the cache key for an exam's full question pool payload.
func (r *CacheKeyStruct) ExamPoolKey(examID int64) string {
	return fmt.Sprintf("exam:%d:pool", examID)
}

// ExamAnswerKey returns the cache key for an exam's answer-key hash.
func (r *CacheKeyStruct) ExamAnswerKey(examID int64) string {
	return fmt.Sprintf("exam:%d:key", examID)
}

// ExamResultsChannel returns the Redis PubSub channel name for an exam's
// live results stream.
func (r *CacheKeyStruct) ExamResultsChannel(examID int64) string {
	return fmt.Sprintf("exam:%d:results", examID)
}

var CacheKey = NewCacheKeyStruct()
