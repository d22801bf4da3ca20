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

func TestAtomicState_LoadStore(t *testing.T) {
	s := newAtomicState(resultIdle)
	require.Equal(t, resultIdle, s.Load())
	s.Store(resultConsumerSet)
	require.Equal(t, resultConsumerSet, s.Load())
}

func TestResultState_String(t *testing.T) {
	require.Equal(t, "Idle", resultIdle.String())
	require.Equal(t, "ConsumerSet", resultConsumerSet.String())
	require.Equal(t, "ConsumerWait", resultConsumerWait.String())
	require.Equal(t, "ConsumerDone", resultConsumerDone.String())
	require.Equal(t, "ProducerDone", resultProducerDone.String())
	require.Equal(t, "Unknown", resultState(99).String())
}
