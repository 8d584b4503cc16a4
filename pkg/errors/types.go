// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"fmt"
	"time"
)

// StateError reports a tracer operation invoked from a state that does
// not permit it (for example Start on an already-started tracer, or
// Resume after Dispose).
type StateError struct {
	// Op is the operation that was attempted (e.g. "start", "resume").
	Op string

	// State is the tracer state the operation was attempted from.
	State string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("invalid %s from state %s", e.Op, e.State)
}

// ErrorType returns the error category for programmatic handling.
func (e *StateError) ErrorType() string { return "state" }

// IsRetryable returns false; state violations are caller bugs.
func (e *StateError) IsRetryable() bool { return false }

// UserSuggestion returns guidance for fixing the error.
func (e *StateError) UserSuggestion() string { return e.Suggestion }

// PredicateError reports a pause predicate that failed while being
// evaluated on the producer thread. A predicate failure terminates the
// tracer rather than leaving it in a partially-paused state.
type PredicateError struct {
	// Kind is the event kind the predicate was evaluating.
	Kind string

	// Path and Line locate the event that triggered the failure.
	Path string
	Line int

	// Cause is the underlying evaluation failure.
	Cause error
}

// Error implements the error interface.
func (e *PredicateError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("pause predicate failed on %s event at %s:%d: %v", e.Kind, e.Path, e.Line, e.Cause)
	}
	return fmt.Sprintf("pause predicate failed on %s event: %v", e.Kind, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *PredicateError) Unwrap() error {
	return e.Cause
}

// ErrorType returns the error category for programmatic handling.
func (e *PredicateError) ErrorType() string { return "predicate" }

// IsRetryable returns false; the tracer is terminated.
func (e *PredicateError) IsRetryable() bool { return false }

// InstrumentedFailure reports an unhandled failure that escaped the
// instrumented unit of code. It is surfaced to the consumer on the
// start/resume call that observed the producer's termination.
type InstrumentedFailure struct {
	// Value is the value the instrumented unit failed with. It is the
	// recovered panic value when the runnable panicked.
	Value interface{}

	// Stack is the producer goroutine's stack at the point of failure,
	// when available.
	Stack []byte
}

// Error implements the error interface.
func (e *InstrumentedFailure) Error() string {
	return fmt.Sprintf("instrumented code failed: %v", e.Value)
}

// Unwrap returns the failure value when it is itself an error.
func (e *InstrumentedFailure) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ErrorType returns the error category for programmatic handling.
func (e *InstrumentedFailure) ErrorType() string { return "instrumented" }

// IsRetryable returns false; the runnable has terminated.
func (e *InstrumentedFailure) IsRetryable() bool { return false }

// DisposalError reports a best-effort worker teardown that did not
// complete within the disposal timeout. The tracer is still Disposed;
// the worker goroutine unwinds at its next instrumentation point.
type DisposalError struct {
	// Timeout is how long disposal waited for the worker to unwind.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *DisposalError) Error() string {
	return fmt.Sprintf("worker did not unwind within %v of dispose", e.Timeout)
}

// ErrorType returns the error category for programmatic handling.
func (e *DisposalError) ErrorType() string { return "disposal" }

// IsRetryable returns false; disposal is already complete for the caller.
func (e *DisposalError) IsRetryable() bool { return false }

// ValidationError represents user input validation failures.
// Use this for invalid expressions, unknown event kinds, or malformed
// configuration values.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// ErrorType returns the error category for programmatic handling.
func (e *ValidationError) ErrorType() string { return "validation" }

// IsRetryable returns false; the input must be corrected first.
func (e *ValidationError) IsRetryable() bool { return false }

// UserSuggestion returns guidance for fixing the error.
func (e *ValidationError) UserSuggestion() string { return e.Suggestion }

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing settings, or invalid config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "events", "record.path")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// ErrorType returns the error category for programmatic handling.
func (e *ConfigError) ErrorType() string { return "config" }

// IsRetryable returns false.
func (e *ConfigError) IsRetryable() bool { return false }
