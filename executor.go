// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import "context"

// Executor is the contract every task-running component in this package
// implements: [InlineExecutor], [ManualExecutor], [ThreadExecutor],
// [WorkerThreadExecutor], and [ThreadPoolExecutor] (spec.md §4.3, "the five
// Executor families").
//
// An Executor owns the queue(s) and worker lifetime; it does not interpret
// task bodies. Enqueue/EnqueueBatch accept work after Shutdown has been
// requested only up to the implementation's own draining guarantee (see
// each executor's doc comment); ErrExecutorShutdown is returned once an
// executor has stopped accepting work entirely.
type Executor interface {
	// Enqueue submits a single Task for execution. Returns
	// ErrExecutorShutdown if the executor has stopped accepting work.
	Enqueue(t Task) error

	// EnqueueBatch submits a slice of Tasks as one unit, per spec.md
	// §4.3's bulk submission operations (reduces lock/wakeup overhead
	// versus N calls to Enqueue). Implementations enqueue tasks in order;
	// on ErrExecutorShutdown no task in the batch has been enqueued.
	EnqueueBatch(tasks []Task) error

	// MaxConcurrencyLevel reports the maximum number of tasks this
	// executor may run concurrently (1 for single-threaded executors, N
	// for pools, 0 for executors with no task-running thread of their own
	// such as [ManualExecutor]).
	MaxConcurrencyLevel() int

	// Shutdown requests that the executor stop running new tasks and
	// release its resources. It is idempotent and does not block;
	// observe completion via ShutdownRequested or an implementation's own
	// Join-style method where one exists.
	Shutdown()

	// ShutdownRequested reports whether Shutdown has been called.
	ShutdownRequested() bool
}

// Post enqueues fn as a fire-and-forget Task. A panic in fn is recovered and
// logged, never propagated, whichever executor runs it. Most callers that
// want a result should use Submit instead.
func Post(e Executor, fn func()) error {
	return e.Enqueue(NewTask(func() {
		defer func() {
			if rec := recover(); rec != nil {
				logPanic(rec)
			}
		}()
		fn()
	}))
}

// BulkPost enqueues fns as a single batch, per spec.md §4.3's bulk
// submission operations.
func BulkPost(e Executor, fns []func()) error {
	tasks := make([]Task, len(fns))
	for i, fn := range fns {
		tasks[i] = NewTask(fn)
	}
	return e.EnqueueBatch(tasks)
}

// Submit runs fn on e and returns a [Result] completed with its return
// value, or a [*PanicError] if fn panics. If e refuses the task (already
// shut down), Submit returns a Result already completed with the
// Enqueue error.
func Submit[T any](e Executor, fn func(ctx context.Context) (T, error)) *Result[T] {
	return SubmitCtx(context.Background(), e, fn)
}

// SubmitCtx is Submit with an explicit context passed through to fn.
func SubmitCtx[T any](ctx context.Context, e Executor, fn func(ctx context.Context) (T, error)) *Result[T] {
	r, complete := NewResult[T]()
	task := NewTask(func() {
		var (
			value T
			err   error
		)
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					err = &PanicError{Value: rec}
				}
			}()
			value, err = fn(ctx)
		}()
		complete(value, err)
	})
	if err := e.Enqueue(task); err != nil {
		var zero T
		complete(zero, err)
	}
	return r
}

// BulkSubmit runs each of fns on e and returns one Result per function, in
// order, as a single batch enqueue.
func BulkSubmit[T any](e Executor, fns []func(ctx context.Context) (T, error)) []*Result[T] {
	results := make([]*Result[T], len(fns))
	tasks := make([]Task, len(fns))
	completes := make([]func(T, error), len(fns))
	for i, fn := range fns {
		r, complete := NewResult[T]()
		results[i] = r
		completes[i] = complete
		fn := fn
		idx := i
		tasks[idx] = NewTask(func() {
			var (
				value T
				err   error
			)
			func() {
				defer func() {
					if rec := recover(); rec != nil {
						err = &PanicError{Value: rec}
					}
				}()
				value, err = fn(context.Background())
			}()
			completes[idx](value, err)
		})
	}
	if err := e.EnqueueBatch(tasks); err != nil {
		for _, complete := range completes {
			var zero T
			complete(zero, err)
		}
	}
	return results
}

// ResumeOn returns a continuation suitable for [Result.AwaitContinuation]
// that posts the resumption onto executor e instead of running inline on
// the producer's goroutine, per spec.md §5 "resuming on a specific
// executor". If Post fails (executor shut down), cont is invoked
// immediately with an [*InterruptedError] wrapping the Post error instead
// of the produced value, so a parked consumer is never left waiting
// forever.
func ResumeOn[T any](e Executor, cont func(T, error)) func(T, error) {
	return func(value T, err error) {
		postErr := Post(e, func() {
			cont(value, err)
		})
		if postErr != nil {
			var zero T
			cont(zero, &InterruptedError{Cause: postErr})
		}
	}
}
