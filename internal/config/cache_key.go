package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamStartKey returns the cache key for a user's exam start timestamp
// within a classroom. The value is exam_started_at as Unix nanoseconds.
func (r *CacheKeyStruct) ExamStartKey(classroomID, userID int) string {
	return fmt.Sprintf("classroom:%d:user:%d:exam_start", classroomID, userID)
}

var CacheKey = NewCacheKeyStruct()
