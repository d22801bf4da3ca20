// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResult_ProducerThenConsumer(t *testing.T) {
	r, complete := NewResult[int]()
	go complete(42, nil)

	v, err := r.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestResult_ConsumerThenProducer(t *testing.T) {
	r, complete := NewResult[int]()
	done := make(chan struct{})
	var gotV int
	var gotErr error
	go func() {
		gotV, gotErr = r.Await(context.Background())
		close(done)
	}()

	// give the awaiter time to register before completing.
	time.Sleep(10 * time.Millisecond)
	complete(7, nil)
	<-done

	require.NoError(t, gotErr)
	require.Equal(t, 7, gotV)
}

func TestResult_MakeReady(t *testing.T) {
	r := MakeReady(99)
	require.True(t, r.Done())
	v, err, ok := r.Peek()
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, 99, v)
}

func TestResult_MakeExceptional(t *testing.T) {
	wantErr := errors.New("boom")
	r := MakeExceptional[int](wantErr)
	v, err, ok := r.Peek()
	require.True(t, ok)
	require.Equal(t, 0, v)
	require.ErrorIs(t, err, wantErr)
}

func TestResult_DoubleCompleteIsNoOp(t *testing.T) {
	r, complete := NewResult[int]()
	complete(1, nil)
	complete(2, nil)

	v, _, ok := r.Peek()
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestResult_SecondConsumerConflicts(t *testing.T) {
	r, _ := NewResult[int]()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done1 := make(chan struct{})
	go func() {
		_, _ = r.Await(ctx)
		close(done1)
	}()
	time.Sleep(10 * time.Millisecond)

	_, err := r.Await(context.Background())
	require.ErrorIs(t, err, ErrConsumerAlreadyRegistered)

	cancel()
	<-done1
}

func TestResult_AwaitCancellation(t *testing.T) {
	r, _ := NewResult[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := r.Await(ctx)
	require.Equal(t, 0, v)
	require.ErrorIs(t, err, context.Canceled)
}

func TestResult_WaitTimeout(t *testing.T) {
	r, _ := NewResult[int]()
	_, _, status := r.Wait(10 * time.Millisecond)
	require.Equal(t, StatusTimeout, status)
}

func TestResult_WaitReady(t *testing.T) {
	r, complete := NewResult[int]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		complete(5, nil)
	}()
	v, err, status := r.Wait(time.Second)
	require.NoError(t, err)
	require.Equal(t, StatusReady, status)
	require.Equal(t, 5, v)
}

func TestResult_LazyStartsOnFirstAwait(t *testing.T) {
	var started int
	r := NewLazyResult[int](func(complete func(int, error)) {
		started++
		complete(3, nil)
	})
	require.Equal(t, 0, started)

	v, err := r.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, v)
	require.Equal(t, 1, started)

	// Peek after completion does not re-trigger start.
	_, _, ok := r.Peek()
	require.True(t, ok)
	require.Equal(t, 1, started)
}

func TestResult_AwaitContinuationSynchronousWhenDone(t *testing.T) {
	r := MakeReady("hi")
	var gotV string
	err := r.AwaitContinuation(func(v string, _ error) { gotV = v })
	require.NoError(t, err)
	require.Equal(t, "hi", gotV)
}
