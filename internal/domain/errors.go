package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoPosition     = errors.New("no open position")
	ErrPositionExists = errors.New("position already open")
	ErrNoTokens       = errors.New("no tokens to sell")
	ErrTradeInFlight  = errors.New("trade already in flight")
)

// ValidationError rejects a trade request before any network call is made.
// It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StructuralError marks a venue response that does not match the API contract
// (e.g. a quote with no output amount). Retrying cannot help, so the pipeline
// fails immediately.
type StructuralError struct {
	Endpoint string
	Missing  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s response missing %s", e.Endpoint, e.Missing)
}

// SigningError is fatal for the attempt that produced it.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string { return "signing failed: " + e.Err.Error() }
func (e *SigningError) Unwrap() error { return e.Err }

// RetriesExhaustedError reports that a retryable phase used up its attempt
// ceiling. Last carries the final underlying failure, not a generic message.
type RetriesExhaustedError struct {
	Phase    string
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Phase, e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Last }
