// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkerThreadExecutor_PublicQueueRuns(t *testing.T) {
	e := NewWorkerThreadExecutor()
	defer e.Shutdown()

	done := make(chan struct{})
	require.NoError(t, e.Enqueue(NewTask(func() { close(done) })))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task submitted via Enqueue never ran")
	}
}

func TestWorkerThreadExecutor_SelfChainedContinuationRunsBeforePublicWork(t *testing.T) {
	e := NewWorkerThreadExecutor()
	defer e.Shutdown()

	var order []string
	allDone := make(chan struct{})

	// The first task, running on the worker, chains a self-enqueued
	// continuation (private LIFO) before a second Enqueue from this
	// goroutine (public FIFO) lands; the chained continuation should run
	// first since the private LIFO is drained ahead of the public FIFO.
	started := make(chan struct{})
	require.NoError(t, e.Enqueue(NewTask(func() {
		order = append(order, "first")
		e.EnqueueSelf(NewTask(func() {
			order = append(order, "chained")
		}))
		close(started)
	})))

	<-started
	require.NoError(t, e.Enqueue(NewTask(func() {
		order = append(order, "public")
		close(allDone)
	})))

	<-allDone
	require.Equal(t, []string{"first", "chained", "public"}, order)
}

func TestWorkerThreadExecutor_ShutdownAndJoin(t *testing.T) {
	e := NewWorkerThreadExecutor()
	e.Shutdown()
	require.True(t, e.ShutdownRequested())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.Join(ctx))

	require.ErrorIs(t, e.Enqueue(NewTask(func() {})), ErrExecutorShutdown)
}
