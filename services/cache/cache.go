package cache

import "time"

// LockService coordinates run exclusivity across processes. The pipeline
// takes a lock at start so a scheduler retry cannot start a second crawl
// against the target site while one is in flight.
type LockService interface {
	// Acquire takes the named lock for ttl. Returns false without error
	// when the lock is already held.
	Acquire(key string, ttl time.Duration) (bool, error)

	// Release frees the named lock before its ttl expires.
	Release(key string) error
}
