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

func TestWhenAny_FirstOfThreeWins(t *testing.T) {
	r1, c1 := NewResult[int]()
	r2, c2 := NewResult[int]()
	r3, c3 := NewResult[int]()

	go func() {
		time.Sleep(30 * time.Millisecond)
		c1(1, nil)
	}()
	go func() {
		time.Sleep(60 * time.Millisecond)
		c2(2, nil)
	}()
	go func() {
		time.Sleep(90 * time.Millisecond)
		c3(3, nil)
	}()

	idx, v, err := WhenAny(context.Background(), r1, r2, r3)
	require.NoError(t, err)
	require.Equal(t, 0, idx)
	require.Equal(t, 1, v)

	// Losers remain independently observable later.
	v2, err2 := r2.Await(context.Background())
	require.NoError(t, err2)
	require.Equal(t, 2, v2)
}

func TestWhenAny_AlreadyDoneWinsImmediately(t *testing.T) {
	r1 := MakeReady(10)
	r2, _ := NewResult[int]()

	idx, v, err := WhenAny(context.Background(), r1, r2)
	require.NoError(t, err)
	require.Equal(t, 0, idx)
	require.Equal(t, 10, v)
}

func TestWhenAny_ContextCancel(t *testing.T) {
	r1, _ := NewResult[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	idx, _, err := WhenAny(ctx, r1)
	require.Equal(t, -1, idx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWhenAny_PanicsOnEmpty(t *testing.T) {
	require.Panics(t, func() {
		WhenAny[int](context.Background())
	})
}

func TestWhenAll_CollectsAllValues(t *testing.T) {
	r1 := MakeReady(1)
	r2 := MakeReady(2)
	r3, c3 := NewResult[int]()
	go c3(3, nil)

	values, errs := WhenAll(context.Background(), r1, r2, r3)
	require.Equal(t, []int{1, 2, 3}, values)
	for _, e := range errs {
		require.NoError(t, e)
	}
}
