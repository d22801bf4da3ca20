// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import (
	"errors"
	"fmt"
)

// Sentinel errors, compared with [errors.Is]. These model the error kinds
// of a coroutine runtime that have no useful associated data.
var (
	// ErrExecutorShutdown is returned by Enqueue/Post/Submit once an
	// executor's Shutdown has been called (or completed).
	ErrExecutorShutdown = errors.New("corort: executor shut down")

	// ErrDeadlockWouldOccur is returned by AsyncMutex.Lock when the calling
	// handle already owns the mutex, or by AsyncMutex.Unlock when it does not.
	ErrDeadlockWouldOccur = errors.New("corort: deadlock would occur")

	// ErrOperationNotPermitted reports an operation on a scoped lock that
	// references no mutex. This package has no scoped lock type, and no
	// function in it returns this error.
	ErrOperationNotPermitted = errors.New("corort: operation not permitted")

	// ErrEmptyResult reports an operation on an empty Result handle. No
	// function in this package returns it; the methods of a zero-value
	// Result do not check for emptiness.
	ErrEmptyResult = errors.New("corort: result is empty")

	// ErrAlreadyShutdown is returned by operations on the Engine or TimerQueue
	// after they have been shut down, per spec.md §6 "Subsequent operations
	// must report 'already shut down'".
	ErrAlreadyShutdown = errors.New("corort: already shut down")

	// ErrConsumerAlreadyRegistered is returned when a second consumer
	// attempts to register on a Result that already has one (spec.md §4.2,
	// Testable Property 4, "consumer singleness").
	ErrConsumerAlreadyRegistered = errors.New("corort: result already has a registered consumer")
)

// InvalidArgumentError reports a required argument that is missing or nil.
// No function in this package returns it: ResumeOn does not check its
// executor for nil, TimerQueue.Schedule accepts a nil executor, and
// AsyncCond.Await takes no executor.
type InvalidArgumentError struct {
	// Param names the offending argument.
	Param string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("corort: invalid argument: %s", e.Param)
}

// InterruptedError indicates that an await resumed without its producer
// ever completing: the executor it was scheduled on died, the timer queue
// shut down before firing, or a rescheduling post failed. See spec.md §5
// "Await-via interruption".
type InterruptedError struct {
	// Cause is the underlying reason, if any (e.g. ErrExecutorShutdown).
	Cause error
}

func (e *InterruptedError) Error() string {
	if e.Cause == nil {
		return "corort: associated task was interrupted abnormally"
	}
	return fmt.Sprintf("corort: associated task was interrupted abnormally: %v", e.Cause)
}

func (e *InterruptedError) Unwrap() error {
	return e.Cause
}

// PanicError wraps a value recovered from a panicking callable submitted to
// an executor, preserved as the Result's error via Submit/BulkSubmit.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("corort: task panicked: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is itself an error,
// enabling errors.Is/errors.As to see through the panic wrapper.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// WrapError wraps message around cause, preserving the cause chain for
// errors.Is/errors.As. Mirrors the helper of the same name in eventloop.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
