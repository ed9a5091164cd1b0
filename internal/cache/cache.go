package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores scraped facts and finished answers
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// AnswerKey derives the cache key for a question's answer. Questions are
// keyed by their raw text.
func AnswerKey(question string) string {
	hash := sha256.Sum256([]byte(question))
	return "answer-" + hex.EncodeToString(hash[:]) + ".txt"
}
