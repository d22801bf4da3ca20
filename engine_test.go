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

func TestEngine_LazyConstructsSharedExecutors(t *testing.T) {
	eng, err := NewEngine(WithPoolSize(2))
	require.NoError(t, err)

	pool, err := eng.ThreadPool()
	require.NoError(t, err)
	require.Equal(t, 2, pool.MaxConcurrencyLevel())

	// Repeated calls return the same instance.
	pool2, err := eng.ThreadPool()
	require.NoError(t, err)
	require.Same(t, pool, pool2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, eng.Shutdown(ctx))
}

func TestEngine_SubmitThroughSharedPool(t *testing.T) {
	eng, err := NewEngine()
	require.NoError(t, err)
	pool, err := eng.ThreadPool()
	require.NoError(t, err)

	r := Submit(pool, func(ctx context.Context) (int, error) { return 5, nil })
	v, err := r.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, v)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, eng.Shutdown(ctx))
}

func TestEngine_ShutdownCascadesToFactoryExecutors(t *testing.T) {
	eng, err := NewEngine()
	require.NoError(t, err)

	thread, err := eng.NewThreadExecutor()
	require.NoError(t, err)
	worker, err := eng.NewWorkerThreadExecutor()
	require.NoError(t, err)
	timers, err := eng.Timers()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, eng.Shutdown(ctx))

	require.True(t, thread.ShutdownRequested())
	require.True(t, worker.ShutdownRequested())
	require.True(t, timers.ShutdownRequested())
}

func TestEngine_DoubleShutdownErrors(t *testing.T) {
	eng, err := NewEngine()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, eng.Shutdown(ctx))
	require.ErrorIs(t, eng.Shutdown(ctx), ErrAlreadyShutdown)
}

func TestEngine_RejectsConstructionAfterShutdown(t *testing.T) {
	eng, err := NewEngine()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, eng.Shutdown(ctx))

	_, err = eng.ThreadPool()
	require.ErrorIs(t, err, ErrAlreadyShutdown)
	_, err = eng.NewManualExecutor()
	require.ErrorIs(t, err, ErrAlreadyShutdown)
}

func TestDefaultEngine_ReturnsSingleton(t *testing.T) {
	e1 := DefaultEngine()
	e2 := DefaultEngine()
	require.Same(t, e1, e2)
}
