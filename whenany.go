// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import "context"

// whenAnyState coordinates N participants of a [WhenAny] composition: the
// first Result to settle publishes its index/value/error once; later
// arrivals are silently dropped (spec.md §4.5, "when-any").
//
// Every participating Result is registered with kind consumerWhenAny
// pointing at one shared whenAnyState, analogous to how sharedResultState
// fans a single Result out to many observers; here N Results fan *in* to
// one winner.
type whenAnyState[T any] struct {
	done chan whenAnyOutcome[T]
}

type whenAnyOutcome[T any] struct {
	index int
	value T
	err   error
}

func (s *whenAnyState[T]) tryPublish(index int, value T, err error) {
	select {
	case s.done <- whenAnyOutcome[T]{index: index, value: value, err: err}:
	default:
		// a winner was already published; later completions are dropped.
	}
}

// WhenAny suspends until the first of results settles, returning its index
// and value/error. Every other participant that has not yet settled has its
// when-any registration released before WhenAny returns, so it goes back to
// being a plain, unclaimed Result: it may later be awaited in full (Await,
// AwaitContinuation, Wait) or peeked, exactly as if WhenAny had never
// touched it. WhenAny does not cancel any participant, matching spec.md
// §4.5's description of when-any as a pure observer that does not affect
// producer lifetimes.
//
// WhenAny panics if results is empty, and returns ctx.Err() if ctx is done
// before any participant settles; in that case every participant is
// released.
func WhenAny[T any](ctx context.Context, results ...*Result[T]) (int, T, error) {
	if len(results) == 0 {
		panic("corort: WhenAny requires at least one result")
	}

	state := &whenAnyState[T]{done: make(chan whenAnyOutcome[T], 1)}

	for i, r := range results {
		r.ensureStarted()
		idx := i
		status, pv, pe := r.tryRegister(consumerWhenAny, func() {
			r.whenAny = state
			r.whenAnyIdx = idx
		})
		switch status {
		case regAlreadyDone:
			state.tryPublish(idx, pv, pe)
		case regConflict:
			state.tryPublish(idx, pv, ErrConsumerAlreadyRegistered)
		}
	}

	releaseOthers := func(winner int) {
		for i, r := range results {
			if i == winner {
				continue
			}
			r.dropConsumer()
		}
	}

	select {
	case outcome := <-state.done:
		releaseOthers(outcome.index)
		return outcome.index, outcome.value, outcome.err
	case <-ctx.Done():
		releaseOthers(-1)
		var zero T
		return -1, zero, ctx.Err()
	}
}

// WhenAll suspends until every one of results has settled, returning their
// values/errors in the same order. Unlike WhenAny this is not a named
// module of the original (spec.md's when-any has no companion), but is the
// natural dual built from the same Result primitives and is included as
// SPEC_FULL.md's supplemented composition operator.
func WhenAll[T any](ctx context.Context, results ...*Result[T]) ([]T, []error) {
	values := make([]T, len(results))
	errs := make([]error, len(results))
	for i, r := range results {
		v, e := r.Await(ctx)
		values[i], errs[i] = v, e
		if ctxErr := ctx.Err(); ctxErr != nil && e == ctxErr {
			return values, errs
		}
	}
	return values, errs
}
