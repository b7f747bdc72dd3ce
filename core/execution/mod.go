// Package execution defines the primitives to execute a transaction against a
// snapshot of the store.
package execution

import (
	"go.dedis.ch/blitz/core/store"
	"go.dedis.ch/blitz/core/txn"
	"golang.org/x/xerrors"
)

// Step is a context of execution. It contains the transactions accepted
// before the current one in the same batch, the current transaction, the time
// at which it is executed and the sink of the notifications it produces.
type Step struct {
	Previous []txn.Transaction
	Current  txn.Transaction

	// Timestamp is the current time in seconds since the Unix epoch.
	Timestamp uint64

	Emitter Emitter
}

// Emit forwards the event to the emitter of the step, if any. It fills the
// timestamp when it is missing.
func (s Step) Emit(evt Event) {
	if s.Emitter == nil {
		return
	}

	if evt.Timestamp == 0 {
		evt.Timestamp = s.Timestamp
	}

	s.Emitter.Emit(evt)
}

// Result is the result of a transaction execution.
type Result struct {
	// Accepted is the success state of the transaction.
	Accepted bool

	// Message gives a change to the execution to explain why a transaction has
	// failed.
	Message string
}

// Service is the execution service that defines the primitives to execute a
// transaction.
type Service interface {
	// Execute must apply the transaction to the snapshot and return the result
	// of it.
	Execute(snap store.Snapshot, step Step) (Result, error)
}

// AbortError is an error that must abort the execution instead of rejecting
// the transaction, typically a failure of the underlying storage.
type AbortError struct {
	err error
}

// Abort marks the error as fatal for the execution.
func Abort(err error) error {
	if err == nil {
		return nil
	}

	return AbortError{err: err}
}

// Error implements error. It returns the message of the wrapped error.
func (e AbortError) Error() string {
	return e.err.Error()
}

// Unwrap returns the wrapped error.
func (e AbortError) Unwrap() error {
	return e.err
}

// IsAbort returns true if the error or one of the errors it wraps is marked as
// fatal for the execution.
func IsAbort(err error) bool {
	return xerrors.As(err, &AbortError{})
}
