// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import (
	"context"
	"math"
	"sync"
)

// ThreadExecutor runs every enqueued Task on its own freshly spawned
// goroutine, so Tasks execute concurrently rather than queued behind one
// another (spec.md §4.3.3, "Thread executor"; ground-truth
// CYThreadExecutor::EnqueueImpl spawns a CYThread per task). Its
// MaxConcurrencyLevel is effectively unbounded, matching
// THREAD_EXECUTOR_MAX_CONCURRENCY_LEVEL in the original.
//
// To bound how many finished-but-not-yet-reclaimed goroutines accumulate,
// each worker goroutine retires into a single-element retirement slot when
// its Task completes: it hands the slot a channel it will close when it is
// done being "joined", and if the slot already held a previous retiree it
// waits for that one first. This mirrors CYThreadExecutor::RetireWorker
// joining the previously retired thread before replacing it — reclaiming
// resources without limiting how many Tasks run at once.
type ThreadExecutor struct {
	mu       sync.Mutex
	shutdown bool
	live     int
	retired  chan struct{}
	allDone  chan struct{} // closed whenever live == 0
}

// NewThreadExecutor returns a ready-to-use ThreadExecutor.
func NewThreadExecutor() *ThreadExecutor {
	e := &ThreadExecutor{allDone: make(chan struct{})}
	close(e.allDone) // idle: no live workers yet
	return e
}

// runTaskRecovered runs t, recovering and logging any panic so the worker
// goroutine survives a misbehaving Task. Shared by ThreadExecutor,
// WorkerThreadExecutor, and ThreadPoolExecutor.
func runTaskRecovered(t *Task) {
	defer func() {
		if rec := recover(); rec != nil {
			logPanic(rec)
		}
	}()
	t.Run()
}

// spawn starts a fresh goroutine for t and accounts for it in live/allDone.
func (e *ThreadExecutor) spawn(t Task) {
	e.mu.Lock()
	if e.live == 0 {
		e.allDone = make(chan struct{})
	}
	e.live++
	e.mu.Unlock()
	go e.runAndRetire(t)
}

// runAndRetire runs t, then joins this goroutine into the retirement slot,
// waiting for whatever goroutine previously occupied it to finish retiring
// first.
func (e *ThreadExecutor) runAndRetire(t Task) {
	runTaskRecovered(&t)

	e.mu.Lock()
	prev := e.retired
	done := make(chan struct{})
	e.retired = done
	e.mu.Unlock()

	if prev != nil {
		<-prev
	}
	close(done)

	e.mu.Lock()
	e.live--
	if e.live == 0 {
		close(e.allDone)
	}
	e.mu.Unlock()
}

func (e *ThreadExecutor) Enqueue(t Task) error {
	e.mu.Lock()
	if e.shutdown {
		e.mu.Unlock()
		t.Drop()
		return ErrExecutorShutdown
	}
	e.mu.Unlock()
	e.spawn(t)
	return nil
}

func (e *ThreadExecutor) EnqueueBatch(tasks []Task) error {
	e.mu.Lock()
	if e.shutdown {
		e.mu.Unlock()
		for i := range tasks {
			tasks[i].Drop()
		}
		return ErrExecutorShutdown
	}
	e.mu.Unlock()
	for i := range tasks {
		e.spawn(tasks[i])
	}
	return nil
}

// MaxConcurrencyLevel reports an effectively unbounded concurrency level:
// every enqueued Task gets its own goroutine.
func (e *ThreadExecutor) MaxConcurrencyLevel() int { return math.MaxInt }

func (e *ThreadExecutor) Shutdown() {
	e.mu.Lock()
	e.shutdown = true
	e.mu.Unlock()
}

func (e *ThreadExecutor) ShutdownRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown
}

// Join blocks until every spawned worker goroutine has finished running its
// Task and retiring, or ctx is done. It is safe to call concurrently with
// Enqueue; a Task enqueued after Join observes it returning will not itself
// be waited on by that call.
func (e *ThreadExecutor) Join(ctx context.Context) error {
	e.mu.Lock()
	ch := e.allDone
	e.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
