// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInlineExecutor_RunsSynchronously(t *testing.T) {
	e := NewInlineExecutor()
	var order []int
	require.NoError(t, e.Enqueue(NewTask(func() { order = append(order, 1) })))
	order = append(order, 2)
	require.Equal(t, []int{1, 2}, order)
}

func TestInlineExecutor_EnqueueBatch(t *testing.T) {
	e := NewInlineExecutor()
	var n int
	tasks := []Task{
		NewTask(func() { n++ }),
		NewTask(func() { n++ }),
	}
	require.NoError(t, e.EnqueueBatch(tasks))
	require.Equal(t, 2, n)
}

func TestInlineExecutor_ShutdownRejects(t *testing.T) {
	e := NewInlineExecutor()
	e.Shutdown()
	require.True(t, e.ShutdownRequested())

	var ran bool
	err := e.Enqueue(NewTask(func() { ran = true }))
	require.ErrorIs(t, err, ErrExecutorShutdown)
	require.False(t, ran)
}

func TestInlineExecutor_MaxConcurrencyLevel(t *testing.T) {
	e := NewInlineExecutor()
	require.Equal(t, 1, e.MaxConcurrencyLevel())
}
