package contracts

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra fields. Callers match
// with errors.Is.
var (
	// ErrNotFound indicates no proposal exists under the requested id.
	ErrNotFound = errors.New("proposal not found")
	// ErrAlreadyTerminal indicates the proposal reached Executed or
	// Cancelled and admits no further transitions.
	ErrAlreadyTerminal = errors.New("proposal is terminal")
	// ErrDelayNotElapsed indicates the mandatory delay window is still
	// open. Retrying after the window closes is the correct response.
	ErrDelayNotElapsed = errors.New("proposal delay has not elapsed")
	// ErrInvalidSubject indicates an empty or malformed subject id.
	ErrInvalidSubject = errors.New("subject id is required")
	// ErrSubjectNotActive indicates the subject is not listed in the
	// configuration engine.
	ErrSubjectNotActive = errors.New("subject is not active")
)

// ValidationError reports the first violated parameter constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid risk params: %s: %s", e.Field, e.Reason)
}

// UnauthorizedError identifies the operation and the caller that was
// refused. The operation is never partially applied.
type UnauthorizedError struct {
	Operation string
	Caller    Identity
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("caller %s is not authorized for %s", e.Caller, e.Operation)
}

// EngineError wraps a failure propagated from the configuration engine.
// It is fatal to the enclosing operation and never swallowed.
type EngineError struct {
	Operation string
	Err       error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("configuration engine %s failed: %v", e.Operation, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// PolicyDeniedError reports an admission-policy veto at propose time.
type PolicyDeniedError struct {
	Rule string
}

func (e *PolicyDeniedError) Error() string {
	return fmt.Sprintf("admission policy denied proposal: rule %s", e.Rule)
}
