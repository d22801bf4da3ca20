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

func TestTask_RunInvokesExactlyOnce(t *testing.T) {
	var calls int
	task := NewTask(func() { calls++ })

	task.Run()
	require.Equal(t, 1, calls)

	// Run on an already-run (now empty) Task is a no-op.
	task.Run()
	require.Equal(t, 1, calls)
}

func TestTask_DropInvokesOnDropNotRun(t *testing.T) {
	var ran, dropped bool
	task := NewTaskWithDrop(func() { ran = true }, func() { dropped = true })

	task.Drop()
	require.False(t, ran)
	require.True(t, dropped)

	// Dropping again is a no-op.
	task.Drop()
}

func TestTask_EmptyTaskRunAndDropAreNoOps(t *testing.T) {
	var task Task
	require.True(t, task.IsEmpty())
	task.Run()
	task.Drop()
}

func TestTask_NewResumeTaskRunsResume(t *testing.T) {
	var resumed bool
	task := NewResumeTask(func() { resumed = true })
	require.False(t, task.IsEmpty())
	task.Run()
	require.True(t, resumed)
}
