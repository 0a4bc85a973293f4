package utils

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultConflictAttempts is the total number of tries RetryConflict makes
// when attempts <= 0 is passed.
const DefaultConflictAttempts = 3

const (
	conflictInitialInterval = 50 * time.Millisecond
	conflictMaxInterval     = time.Second
)

// RetryConflict runs op up to attempts times with exponential backoff
// (50ms start, doubling, capped at 1s). It is meant for secondary,
// non-authoritative writes that can lose a write race; the primary claim and
// publish paths must fail fast instead of retrying, so they never call this.
// Wrap an error in backoff.Permanent to stop retrying early.
func RetryConflict(attempts int, op func() error) error {
	if attempts <= 0 {
		attempts = DefaultConflictAttempts
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = conflictInitialInterval
	b.Multiplier = 2
	b.MaxInterval = conflictMaxInterval
	b.RandomizationFactor = 0

	return backoff.Retry(op, backoff.WithMaxRetries(b, uint64(attempts-1)))
}
