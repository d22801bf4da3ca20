// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import (
	"context"
	"sync"
)

// sharedResultState is the fan-out side of a [SharedResult]: the Result it
// wraps registers a single consumerShared context pointing back here, and
// every Await or Subscribe call is fed from the same completion. Grounded on
// ChainedPromise's handler list (promise.go's addHandler/executeHandler):
// many observers subscribe to one eventual value, and late subscribers who
// arrive after settlement are resumed immediately instead of queued.
type sharedResultState[T any] struct {
	mu        sync.Mutex
	done      bool
	value     T
	err       error
	observers []func(T, error)
}

func (s *sharedResultState[T]) onResultFinished(value T, err error) {
	s.mu.Lock()
	s.done = true
	s.value, s.err = value, err
	observers := s.observers
	s.observers = nil
	s.mu.Unlock()

	for _, obs := range observers {
		obs(value, err)
	}
}

func (s *sharedResultState[T]) subscribe(obs func(T, error)) {
	s.mu.Lock()
	if s.done {
		value, err := s.value, s.err
		s.mu.Unlock()
		obs(value, err)
		return
	}
	s.observers = append(s.observers, obs)
	s.mu.Unlock()
}

// SharedResult multiplexes a single underlying [Result] over any number of
// observers (spec.md §4.4, "shared result"). It is built by wrapping a
// *Result[T] once; every subsequent [SharedResult.Await] is an independent
// subscription rather than a competing consumer, so SharedResult does not
// trip the single-consumer conflict that a bare Result would.
type SharedResult[T any] struct {
	source *Result[T]
	state  *sharedResultState[T]
	once   sync.Once
}

// NewSharedResult wraps source for fan-out observation. source must not
// already have a registered consumer. The one consumerShared registration
// that all observers share is installed on source by the first Await or
// Subscribe, not by NewSharedResult; until then Peek reports false even if
// source has completed.
func NewSharedResult[T any](source *Result[T]) *SharedResult[T] {
	sr := &SharedResult[T]{
		source: source,
		state:  &sharedResultState[T]{},
	}
	return sr
}

func (sr *SharedResult[T]) ensureSubscribed() {
	sr.once.Do(func() {
		sr.source.ensureStarted()
		status, pv, pe := sr.source.tryRegister(consumerShared, func() {
			sr.source.shared = sr.state
		})
		switch status {
		case regAlreadyDone:
			sr.state.onResultFinished(pv, pe)
		case regConflict:
			sr.state.onResultFinished(pv, ErrConsumerAlreadyRegistered)
		}
	})
}

// Await blocks until the underlying Result settles or ctx is done. Multiple
// goroutines may call Await concurrently; all observe the same value/error
// (Testable Property 5, "shared fan-out").
func (sr *SharedResult[T]) Await(ctx context.Context) (T, error) {
	sr.ensureSubscribed()

	ch := make(chan struct{})
	var val T
	var rerr error
	sr.state.subscribe(func(v T, e error) {
		val, rerr = v, e
		close(ch)
	})

	select {
	case <-ch:
		return val, rerr
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Subscribe registers obs to run when the underlying Result settles,
// without blocking the calling goroutine. If already settled, obs runs
// synchronously before Subscribe returns.
func (sr *SharedResult[T]) Subscribe(obs func(T, error)) {
	sr.ensureSubscribed()
	sr.state.subscribe(obs)
}

// Peek returns the settled value/error and true, or the zero value and
// false if the underlying Result has not yet completed.
func (sr *SharedResult[T]) Peek() (T, error, bool) {
	sr.state.mu.Lock()
	defer sr.state.mu.Unlock()
	if !sr.state.done {
		var zero T
		return zero, nil, false
	}
	return sr.state.value, sr.state.err, true
}
