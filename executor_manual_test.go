// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManualExecutor_LoopOnceRunsNothingWhenEmpty(t *testing.T) {
	e := NewManualExecutor()
	require.False(t, e.LoopOnce())
}

func TestManualExecutor_FIFOOrder(t *testing.T) {
	e := NewManualExecutor()
	var order []int
	require.NoError(t, e.Enqueue(NewTask(func() { order = append(order, 1) })))
	require.NoError(t, e.Enqueue(NewTask(func() { order = append(order, 2) })))
	require.Equal(t, 2, e.Size())

	require.True(t, e.LoopOnce())
	require.True(t, e.LoopOnce())
	require.Equal(t, []int{1, 2}, order)
	require.True(t, e.Empty())
}

func TestManualExecutor_LoopOnceForTimesOut(t *testing.T) {
	e := NewManualExecutor()
	require.False(t, e.LoopOnceFor(20*time.Millisecond))
}

func TestManualExecutor_LoopOnceForRunsWhenTaskArrives(t *testing.T) {
	e := NewManualExecutor()
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = e.Enqueue(NewTask(func() {}))
	}()
	require.True(t, e.LoopOnceFor(time.Second))
}

func TestManualExecutor_Clear(t *testing.T) {
	e := NewManualExecutor()
	var dropped bool
	require.NoError(t, e.Enqueue(NewTaskWithDrop(func() {}, func() { dropped = true })))
	e.Clear()
	require.True(t, e.Empty())
	require.True(t, dropped)
}

func TestManualExecutor_ShutdownRejectsNewWorkButDrains(t *testing.T) {
	e := NewManualExecutor()
	var ran bool
	require.NoError(t, e.Enqueue(NewTask(func() { ran = true })))
	e.Shutdown()

	err := e.Enqueue(NewTask(func() {}))
	require.ErrorIs(t, err, ErrExecutorShutdown)

	e.Loop()
	require.True(t, ran)
	require.True(t, e.Empty())
}

func TestManualExecutor_WaitForTask(t *testing.T) {
	e := NewManualExecutor()
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = e.Enqueue(NewTask(func() {}))
	}()
	require.True(t, e.WaitForTaskFor(time.Second))
}

func TestManualExecutor_WaitForTasksN(t *testing.T) {
	e := NewManualExecutor()
	_ = e.Enqueue(NewTask(func() {}))
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = e.Enqueue(NewTask(func() {}))
	}()
	require.True(t, e.WaitForTasksFor(time.Second, 2))
}
