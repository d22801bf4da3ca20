// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import "sync/atomic"

// resultState is the state word of spec.md §4.2's Result state machine.
// Values are intentionally distinct from eventloop.LoopState; they model a
// different machine (producer/consumer rendezvous, not a reactor's run
// state). Unlike eventloop/state.go's FastState, transitions are not CAS
// driven: they are plain stores made under Result's mutex (see atomicState).
type resultState uint32

const (
	// resultIdle: no consumer registered, producer has not completed.
	resultIdle resultState = iota
	// resultConsumerSet: an awaiting coroutine continuation is registered.
	resultConsumerSet
	// resultConsumerWait: a blocking waiter (semaphore) is registered.
	resultConsumerWait
	// resultConsumerDone: the consumer dropped its handle.
	resultConsumerDone
	// resultProducerDone: the producer has completed (value or error set).
	resultProducerDone
)

func (s resultState) String() string {
	switch s {
	case resultIdle:
		return "Idle"
	case resultConsumerSet:
		return "ConsumerSet"
	case resultConsumerWait:
		return "ConsumerWait"
	case resultConsumerDone:
		return "ConsumerDone"
	case resultProducerDone:
		return "ProducerDone"
	default:
		return "Unknown"
	}
}

// atomicState is the state word of a Result, readable without holding
// Result's mutex for the common poll case (Done/ShutdownRequested-style
// checks). Grounded on eventloop/state.go's FastState: same Load/Store
// shape over an atomic.Uint32, generalized to resultState. Every
// transition between resultState values is made under Result's mutex
// alongside the tagged-union fields it accompanies (see result.go), so the
// CAS-based TryTransition/Exchange primitives FastState also exposes have
// no caller here and are intentionally not carried over.
type atomicState struct {
	v atomic.Uint32
}

func newAtomicState(initial resultState) *atomicState {
	s := &atomicState{}
	s.v.Store(uint32(initial))
	return s
}

func (s *atomicState) Load() resultState {
	return resultState(s.v.Load())
}

func (s *atomicState) Store(state resultState) {
	s.v.Store(uint32(state))
}
