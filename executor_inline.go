// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import "sync/atomic"

// InlineExecutor runs every Task synchronously on the calling goroutine,
// inside Enqueue/EnqueueBatch itself (spec.md §4.3.1, "Inline executor").
// It has no queue, no worker, and no concurrency of its own: it exists so
// code written against the Executor interface can run tasks eagerly and
// deterministically, e.g. in tests.
//
// Shutdown on an InlineExecutor only stops it from accepting further work;
// it never blocks, since there is nothing to join.
type InlineExecutor struct {
	shutdown atomic.Bool
}

// NewInlineExecutor returns a ready-to-use InlineExecutor.
func NewInlineExecutor() *InlineExecutor {
	return &InlineExecutor{}
}

func (e *InlineExecutor) Enqueue(t Task) error {
	if e.shutdown.Load() {
		t.Drop()
		return ErrExecutorShutdown
	}
	t.Run()
	return nil
}

func (e *InlineExecutor) EnqueueBatch(tasks []Task) error {
	if e.shutdown.Load() {
		for i := range tasks {
			tasks[i].Drop()
		}
		return ErrExecutorShutdown
	}
	for i := range tasks {
		tasks[i].Run()
	}
	return nil
}

func (e *InlineExecutor) MaxConcurrencyLevel() int { return 1 }

func (e *InlineExecutor) Shutdown() { e.shutdown.Store(true) }

func (e *InlineExecutor) ShutdownRequested() bool { return e.shutdown.Load() }
