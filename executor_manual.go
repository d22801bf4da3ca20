// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import (
	"context"
	"sync"
	"time"
)

// ManualExecutor queues Tasks without ever running them on its own: the
// caller drives progress explicitly via LoopOnce and its variants (spec.md
// §4.3.2, "Manual executor"). It is the executor of choice for
// single-threaded event loops (e.g. a GUI's main thread) and for tests that
// need deterministic task scheduling.
//
// There is no worker goroutine here, so MaxConcurrencyLevel is 0: nothing
// runs concurrently with anything else unless the caller itself is
// concurrent.
type ManualExecutor struct {
	mu       sync.Mutex
	tasks    []Task
	signal   chan struct{}
	shutdown bool
}

// NewManualExecutor returns a ready-to-use ManualExecutor with an empty
// queue.
func NewManualExecutor() *ManualExecutor {
	return &ManualExecutor{signal: make(chan struct{})}
}

// wake must be called with mu held; it unblocks every goroutine parked in
// waitForSignal.
func (e *ManualExecutor) wake() {
	close(e.signal)
	e.signal = make(chan struct{})
}

func (e *ManualExecutor) Enqueue(t Task) error {
	e.mu.Lock()
	if e.shutdown {
		e.mu.Unlock()
		t.Drop()
		return ErrExecutorShutdown
	}
	e.tasks = append(e.tasks, t)
	e.wake()
	e.mu.Unlock()
	return nil
}

func (e *ManualExecutor) EnqueueBatch(tasks []Task) error {
	e.mu.Lock()
	if e.shutdown {
		e.mu.Unlock()
		for i := range tasks {
			tasks[i].Drop()
		}
		return ErrExecutorShutdown
	}
	e.tasks = append(e.tasks, tasks...)
	e.wake()
	e.mu.Unlock()
	return nil
}

func (e *ManualExecutor) MaxConcurrencyLevel() int { return 0 }

func (e *ManualExecutor) Shutdown() {
	e.mu.Lock()
	if !e.shutdown {
		e.shutdown = true
		e.wake()
	}
	e.mu.Unlock()
}

func (e *ManualExecutor) ShutdownRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown
}

// Size reports the number of queued, not-yet-run Tasks.
func (e *ManualExecutor) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// Empty reports whether the queue is empty.
func (e *ManualExecutor) Empty() bool {
	return e.Size() == 0
}

// Clear drops every queued Task (invoking each one's onDrop hook, if any)
// without running them.
func (e *ManualExecutor) Clear() {
	e.mu.Lock()
	tasks := e.tasks
	e.tasks = nil
	e.mu.Unlock()
	for i := range tasks {
		tasks[i].Drop()
	}
}

// LoopOnce runs a single queued Task if one is available, returning whether
// it did. It never blocks.
func (e *ManualExecutor) LoopOnce() bool {
	e.mu.Lock()
	if len(e.tasks) == 0 {
		e.mu.Unlock()
		return false
	}
	t := e.tasks[0]
	e.tasks = e.tasks[1:]
	e.mu.Unlock()
	t.Run()
	return true
}

// waitForSignal blocks until a task is queued, the executor shuts down, or
// ctx is done. It returns true when tasks are queued or a wake signal
// arrives (from Enqueue or Shutdown), and false when ctx is done or the
// executor is already shut down with an empty queue.
func (e *ManualExecutor) waitForSignal(ctx context.Context) bool {
	e.mu.Lock()
	if len(e.tasks) > 0 {
		e.mu.Unlock()
		return true
	}
	if e.shutdown {
		e.mu.Unlock()
		return false
	}
	ch := e.signal
	e.mu.Unlock()
	select {
	case <-ch:
		return true
	case <-ctx.Done():
		return false
	}
}

// LoopOnceFor waits up to timeout for a Task to become available and runs
// it, returning whether one ran.
func (e *ManualExecutor) LoopOnceFor(timeout time.Duration) bool {
	return e.LoopOnceUntil(time.Now().Add(timeout))
}

// LoopOnceUntil is LoopOnceFor with an absolute deadline.
func (e *ManualExecutor) LoopOnceUntil(deadline time.Time) bool {
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()
	for {
		if !e.waitForSignal(ctx) {
			return false
		}
		if e.LoopOnce() {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
	}
}

// Loop runs LoopOnce repeatedly until Shutdown has been called and the
// queue has drained.
func (e *ManualExecutor) Loop() {
	e.LoopUntil(time.Time{})
}

// LoopFor runs LoopOnce repeatedly for at most timeout, or until Shutdown
// has been called and the queue has drained, whichever comes first.
func (e *ManualExecutor) LoopFor(timeout time.Duration) {
	e.LoopUntil(time.Now().Add(timeout))
}

// LoopUntil runs LoopOnce repeatedly until deadline (the zero Time means no
// deadline), or until Shutdown has been called and the queue has drained.
func (e *ManualExecutor) LoopUntil(deadline time.Time) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if !deadline.IsZero() {
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}
	for {
		e.mu.Lock()
		done := e.shutdown && len(e.tasks) == 0
		e.mu.Unlock()
		if done {
			return
		}
		if !e.waitForSignal(ctx) {
			if ctx.Err() != nil {
				return
			}
			// shutdown with an empty queue, observed by waitForSignal.
			return
		}
		e.LoopOnce()
	}
}

// WaitForTask blocks until at least one Task is queued or the executor
// shuts down, returning false in the latter case.
func (e *ManualExecutor) WaitForTask(ctx context.Context) bool {
	return e.WaitForTasks(ctx, 1)
}

// WaitForTaskFor is WaitForTask with a relative timeout.
func (e *ManualExecutor) WaitForTaskFor(timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.WaitForTask(ctx)
}

// WaitForTaskUntil is WaitForTask with an absolute deadline.
func (e *ManualExecutor) WaitForTaskUntil(deadline time.Time) bool {
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()
	return e.WaitForTask(ctx)
}

// WaitForTasks blocks until at least n Tasks are queued, the executor shuts
// down, or ctx is done.
func (e *ManualExecutor) WaitForTasks(ctx context.Context, n int) bool {
	for {
		e.mu.Lock()
		if len(e.tasks) >= n {
			e.mu.Unlock()
			return true
		}
		if e.shutdown {
			e.mu.Unlock()
			return false
		}
		ch := e.signal
		e.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return false
		}
	}
}

// WaitForTasksFor is WaitForTasks with a relative timeout.
func (e *ManualExecutor) WaitForTasksFor(timeout time.Duration, n int) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.WaitForTasks(ctx, n)
}

// WaitForTasksUntil is WaitForTasks with an absolute deadline.
func (e *ManualExecutor) WaitForTasksUntil(deadline time.Time, n int) bool {
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()
	return e.WaitForTasks(ctx, n)
}
