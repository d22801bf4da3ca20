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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThreadPoolExecutor_RunsAllTasks(t *testing.T) {
	e := NewThreadPoolExecutor(4)
	defer e.Shutdown()

	const n = 100
	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		require.NoError(t, e.Enqueue(NewTask(func() {
			count.Add(1)
			wg.Done()
		})))
	}
	wg.Wait()
	require.Equal(t, int64(n), count.Load())
	require.Equal(t, 4, e.MaxConcurrencyLevel())
}

func TestThreadPoolExecutor_WorkStealingBalancesABurst(t *testing.T) {
	// Block every worker but one, then enqueue a burst: round robin places
	// most of it on the blocked workers' queues, so the burst can only
	// finish while they stay blocked if the free worker steals from them.
	e := NewThreadPoolExecutor(4)
	defer e.Shutdown()

	release := make(chan struct{})
	var blocked sync.WaitGroup
	blocked.Add(3)
	for i := 0; i < 3; i++ {
		require.NoError(t, e.Enqueue(NewTask(func() {
			blocked.Done()
			<-release
		})))
	}
	blocked.Wait() // three of four workers are now blocked.

	const n = 60
	var ran atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		require.NoError(t, e.Enqueue(NewTask(func() {
			ran.Add(1)
			wg.Done()
		})))
	}
	allRan := make(chan struct{})
	go func() {
		wg.Wait()
		close(allRan)
	}()
	select {
	case <-allRan:
	case <-time.After(time.Second):
		t.Fatal("burst did not finish while three workers were blocked; the free worker did not steal")
	}
	close(release)
	require.Equal(t, int64(n), ran.Load())
}

func TestThreadPoolExecutor_ShutdownRejectsAndJoins(t *testing.T) {
	e := NewThreadPoolExecutor(2)
	e.Shutdown()
	require.True(t, e.ShutdownRequested())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.Join(ctx))

	require.ErrorIs(t, e.Enqueue(NewTask(func() {})), ErrExecutorShutdown)
}

func TestThreadPoolExecutor_ClampsBelowOneWorker(t *testing.T) {
	e := NewThreadPoolExecutor(0)
	defer e.Shutdown()
	require.Equal(t, 1, e.MaxConcurrencyLevel())
}
