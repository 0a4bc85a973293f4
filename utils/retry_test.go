package utils

import (
	"errors"
	"testing"

	"github.com/cenkalti/backoff/v4"
)

func TestRetryConflictSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := RetryConflict(3, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("write conflict")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryConflictGivesUpAfterAttempts(t *testing.T) {
	attempts := 0
	err := RetryConflict(3, func() error {
		attempts++
		return errors.New("write conflict")
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestRetryConflictStopsOnPermanentError(t *testing.T) {
	attempts := 0
	err := RetryConflict(3, func() error {
		attempts++
		return backoff.Permanent(errors.New("bad request"))
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if attempts != 1 {
		t.Fatalf("permanent errors must not retry, got %d attempts", attempts)
	}
}

func TestRetryConflictDefaultsAttempts(t *testing.T) {
	attempts := 0
	_ = RetryConflict(0, func() error {
		attempts++
		return errors.New("write conflict")
	})
	if attempts != DefaultConflictAttempts {
		t.Fatalf("expected %d attempts, got %d", DefaultConflictAttempts, attempts)
	}
}
