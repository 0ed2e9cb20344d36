package service

import "errors"

// ErrorKind partitions step failures by how the orchestrator must react.
type ErrorKind string

const (
	// ErrorKindInput marks empty or unusable user text: recovered locally
	// with a clarification, never retried, no retry bookkeeping.
	ErrorKindInput ErrorKind = "input"
	// ErrorKindService marks a failed, timed-out or malformed model call:
	// retried with backoff, then surfaced through the retry-exhausted rule.
	ErrorKindService ErrorKind = "service"
	// ErrorKindValidation marks a legitimate negative result such as a
	// rejected topic: routed to a clarification with suggestions.
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindStateConsistency marks a broken session invariant: fatal
	// for the turn, logged with a full state snapshot.
	ErrorKindStateConsistency ErrorKind = "state_consistency"
)

// Failure is the typed error every step returns. Message is user-safe for
// the input and validation kinds.
type Failure struct {
	Kind        ErrorKind
	Message     string
	Suggestions []string
	Err         error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return f.Message + ": " + f.Err.Error()
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.Err }

// InputFailure reports unusable user input.
func InputFailure(msg string) *Failure {
	return &Failure{Kind: ErrorKindInput, Message: msg}
}

// ServiceFailure reports a failed model service call.
func ServiceFailure(msg string, err error) *Failure {
	return &Failure{Kind: ErrorKindService, Message: msg, Err: err}
}

// ValidationFailure reports a legitimate negative result with optional
// user-facing suggestions.
func ValidationFailure(msg string, suggestions ...string) *Failure {
	return &Failure{Kind: ErrorKindValidation, Message: msg, Suggestions: suggestions}
}

// ConsistencyFailure reports broken session invariants.
func ConsistencyFailure(violations []string) *Failure {
	msg := "session state is inconsistent"
	if len(violations) > 0 {
		msg = msg + ": " + violations[0]
	}
	return &Failure{Kind: ErrorKindStateConsistency, Message: msg}
}

// AsFailure unwraps err to the typed failure, or nil.
func AsFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return nil
}

// KindOf reports the failure kind of err; anything untyped counts as a
// service failure so it stays retryable.
func KindOf(err error) ErrorKind {
	if f := AsFailure(err); f != nil {
		return f.Kind
	}
	return ErrorKindService
}
