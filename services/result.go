package services

import (
	"errors"
	"fmt"
	"log"
)

// Sentinel errors for the expected business-failure taxonomy. Internal code
// wraps these with fmt.Errorf("%w: ..."); the operation boundary classifies
// and converts them into result values, so callers never see raw errors.
var (
	ErrNotFound            = errors.New("not found")
	ErrPreconditionFailed  = errors.New("precondition failed")
	ErrValidationFailed    = errors.New("validation failed")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrDependencyFailure   = errors.New("dependency failure")
)

// FailureKind labels the failure carried by an operation result.
type FailureKind string

const (
	FailureNone                FailureKind = ""
	FailureNotFound            FailureKind = "not-found"
	FailurePreconditionFailed  FailureKind = "precondition-failed"
	FailureValidationFailed    FailureKind = "validation-failed"
	FailureConcurrencyConflict FailureKind = "concurrency-conflict"
	FailureDependencyFailure   FailureKind = "dependency-failure"
	FailureInternal            FailureKind = "internal"
)

// OperationResult is the shared shape of every exposed operation's result:
// success flag, failure kind, and a nullable message for expected business
// failures.
type OperationResult struct {
	Success      bool        `json:"success"`
	Failure      FailureKind `json:"failure,omitempty"`
	ErrorMessage *string     `json:"error_message,omitempty"`
}

func okResult() OperationResult {
	return OperationResult{Success: true}
}

func failResult(err error) OperationResult {
	msg := err.Error()
	return OperationResult{
		Success:      false,
		Failure:      classifyFailure(err),
		ErrorMessage: &msg,
	}
}

func classifyFailure(err error) FailureKind {
	switch {
	case errors.Is(err, ErrNotFound):
		return FailureNotFound
	case errors.Is(err, ErrPreconditionFailed):
		return FailurePreconditionFailed
	case errors.Is(err, ErrValidationFailed):
		return FailureValidationFailed
	case errors.Is(err, ErrConcurrencyConflict):
		return FailureConcurrencyConflict
	case errors.Is(err, ErrDependencyFailure):
		return FailureDependencyFailure
	}
	return FailureInternal
}

// guardOperation converts a panic into a failed result in place of the
// normal return value. Every exposed operation defers it so unexpected
// faults surface as the same result shape as business failures.
func guardOperation(name string, result *OperationResult) {
	if r := recover(); r != nil {
		log.Printf("%s: recovered from panic: %v", name, r)
		*result = failResult(fmt.Errorf("%s: internal error", name))
	}
}
