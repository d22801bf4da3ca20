// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import (
	"context"
	"sync"
	"sync/atomic"
)

// WorkerThreadExecutor dedicates a single goroutine to running Tasks, split
// across two queues (spec.md §4.3.4, "Worker-thread executor"):
//
//   - a private LIFO, touched only by the worker goroutine itself via
//     EnqueueSelf, for continuations a running Task chains onto itself
//     (e.g. resuming the next step of a coroutine). No lock is needed
//     because only the worker ever reads or writes it.
//   - a public FIFO, guarded by a mutex, for Tasks submitted by any other
//     goroutine via Enqueue/EnqueueBatch, paired with a binary semaphore
//     that wakes the worker when the public queue was empty.
//
// The worker always drains its private LIFO to empty before looking at the
// public FIFO, so self-chained continuations run back-to-back ahead of
// fresh cross-thread work — the same affinity-preserving bias
// [ThreadPoolExecutor] extends to multiple workers.
type WorkerThreadExecutor struct {
	private []Task

	pubMu    sync.Mutex
	pubQueue []Task

	sem        chan struct{}
	shutdownCh chan struct{}
	shutdown   atomic.Bool
	joined     chan struct{}
}

// NewWorkerThreadExecutor starts the worker goroutine and returns a
// ready-to-use WorkerThreadExecutor.
func NewWorkerThreadExecutor() *WorkerThreadExecutor {
	e := &WorkerThreadExecutor{
		sem:        make(chan struct{}, 1),
		shutdownCh: make(chan struct{}),
		joined:     make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *WorkerThreadExecutor) signal() {
	select {
	case e.sem <- struct{}{}:
	default:
	}
}

func (e *WorkerThreadExecutor) run() {
	logWorkerEvent("spawn", 0)
	defer func() {
		logWorkerEvent("shutdown", 0)
		close(e.joined)
	}()
	for {
		for len(e.private) > 0 {
			n := len(e.private) - 1
			t := e.private[n]
			e.private = e.private[:n]
			runTaskRecovered(&t)
		}

		e.pubMu.Lock()
		if len(e.pubQueue) > 0 {
			t := e.pubQueue[0]
			e.pubQueue = e.pubQueue[1:]
			e.pubMu.Unlock()
			runTaskRecovered(&t)
			continue
		}
		e.pubMu.Unlock()

		if e.shutdown.Load() {
			return
		}

		logWorkerEvent("idle-park", 0)
		select {
		case <-e.sem:
		case <-e.shutdownCh:
		}
	}
}

// EnqueueSelf appends t directly to the private LIFO without locking. It
// must only be called from within a Task currently running on this
// executor's own worker goroutine; calling it from any other goroutine is
// a data race by construction (see spec.md §4.3.4).
func (e *WorkerThreadExecutor) EnqueueSelf(t Task) {
	e.private = append(e.private, t)
}

func (e *WorkerThreadExecutor) Enqueue(t Task) error {
	if e.shutdown.Load() {
		t.Drop()
		return ErrExecutorShutdown
	}
	e.pubMu.Lock()
	e.pubQueue = append(e.pubQueue, t)
	e.pubMu.Unlock()
	e.signal()
	return nil
}

func (e *WorkerThreadExecutor) EnqueueBatch(tasks []Task) error {
	if e.shutdown.Load() {
		for i := range tasks {
			tasks[i].Drop()
		}
		return ErrExecutorShutdown
	}
	e.pubMu.Lock()
	e.pubQueue = append(e.pubQueue, tasks...)
	e.pubMu.Unlock()
	e.signal()
	return nil
}

func (e *WorkerThreadExecutor) MaxConcurrencyLevel() int { return 1 }

func (e *WorkerThreadExecutor) Shutdown() {
	if e.shutdown.CompareAndSwap(false, true) {
		close(e.shutdownCh)
	}
}

func (e *WorkerThreadExecutor) ShutdownRequested() bool {
	return e.shutdown.Load()
}

// Join blocks until the worker goroutine has exited or ctx is done.
func (e *WorkerThreadExecutor) Join(ctx context.Context) error {
	select {
	case <-e.joined:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
