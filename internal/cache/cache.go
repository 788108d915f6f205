package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// keyPrefix versions cached service responses
const keyPrefix = "ecolabel:v1:"

// Cache stores raw service response bodies
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ResponseKey derives a cache key from a service endpoint and request body
func ResponseKey(endpoint string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write(body)
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
