// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// consumerKind discriminates the tagged union of spec.md §3's "consumer
// context": none, an awaiting continuation, a blocking waiter, a when-any
// participant, or a shared-result observer.
type consumerKind uint8

const (
	consumerNone consumerKind = iota
	consumerAwait
	consumerWait
	consumerWhenAny
	consumerShared
)

// registration outcome of Result.tryRegister.
type registration uint8

const (
	// regOK: the consumer context was installed; the caller suspended.
	regOK registration = iota
	// regAlreadyDone: the producer had already completed; value/err are set.
	regAlreadyDone
	// regConflict: another consumer is already registered (Testable
	// Property 4, "consumer singleness").
	regConflict
)

// Status is returned by timed waits in place of an error, per spec.md §7
// ("timeout — returned by status code, not as an error").
type Status int

const (
	// StatusReady indicates the Result settled before the deadline.
	StatusReady Status = iota
	// StatusTimeout indicates the deadline elapsed with no producer completion.
	StatusTimeout
)

// Result is a single-producer container for a value of T or an error,
// awaitable from any number of call sites but with at most one *registered*
// consumer at a time (spec.md §4.2, Testable Property 4). It implements the
// five-state machine of spec.md §4.2: Idle, ConsumerSet, ConsumerWait,
// ConsumerDone, ProducerDone.
//
// Unlike the original's lock-free CAS machine, the state word and its
// associated consumer-context tagged union are both guarded by one mutex
// here. eventloop/loop.go documents an identical tradeoff for its own
// ingress queue ("We switched from lock-free CAS to mutex+chunking because
// benchmarks showed mutex outperforms lock-free under high contention");
// the same reasoning applies here, and spec.md §9 explicitly leaves the
// lock-free-vs-mutex choice open ("Either is acceptable"). The state field
// remains readable via Done without holding the lock for the common poll
// case; Peek takes the lock.
type Result[T any] struct {
	mu        sync.Mutex
	state     *atomicState
	completed bool
	value     T
	err       error

	kind       consumerKind
	awaiter    func(T, error)
	sem        *semaphore.Weighted
	whenAny    *whenAnyState[T]
	whenAnyIdx int
	shared     *sharedResultState[T]

	start     func(complete func(T, error))
	startOnce sync.Once
}

func newResult[T any]() *Result[T] {
	return &Result[T]{state: newAtomicState(resultIdle)}
}

// NewResult creates a pending Result along with the function its producer
// calls to complete it. Calling complete more than once has no effect after
// the first call, mirroring ChainedPromise's resolve/reject idempotency.
func NewResult[T any]() (r *Result[T], complete func(T, error)) {
	r = newResult[T]()
	return r, r.complete
}

// MakeReady returns a Result already completed with value, per spec.md
// §4.2 "Make-ready / make-exceptional".
func MakeReady[T any](value T) *Result[T] {
	r := newResult[T]()
	r.completed = true
	r.value = value
	r.state.Store(resultProducerDone)
	return r
}

// MakeExceptional returns a Result already completed with err.
func MakeExceptional[T any](err error) *Result[T] {
	r := newResult[T]()
	r.completed = true
	r.err = err
	r.state.Store(resultProducerDone)
	return r
}

// NewLazyResult returns a Result whose producer (start) does not run until
// the Result is first awaited, per spec.md §4.2 "Lazy results". start is
// invoked exactly once, the first time Await, Wait, or an internal
// subscription (when-any, shared) touches the Result.
func NewLazyResult[T any](start func(complete func(T, error))) *Result[T] {
	r := newResult[T]()
	r.start = start
	return r
}

func (r *Result[T]) ensureStarted() {
	if r.start != nil {
		r.startOnce.Do(func() {
			r.start(r.complete)
		})
	}
}

// complete settles the Result with value or err, resuming whatever consumer
// is registered. A second call is a no-op, matching spec.md §4.2's producer
// completion being a one-way transition into ProducerDone.
func (r *Result[T]) complete(value T, err error) {
	r.mu.Lock()
	if r.completed {
		r.mu.Unlock()
		return
	}
	r.completed = true
	r.value, r.err = value, err
	kind := r.kind
	awaiter := r.awaiter
	sem := r.sem
	whenAny := r.whenAny
	whenAnyIdx := r.whenAnyIdx
	shared := r.shared
	r.state.Store(resultProducerDone)
	r.mu.Unlock()

	switch kind {
	case consumerAwait:
		if awaiter != nil {
			awaiter(value, err)
		}
	case consumerWait:
		if sem != nil {
			sem.Release(1)
		}
	case consumerWhenAny:
		if whenAny != nil {
			whenAny.tryPublish(whenAnyIdx, value, err)
		}
	case consumerShared:
		if shared != nil {
			shared.onResultFinished(value, err)
		}
	}
}

// tryRegister installs a consumer context if the Result is still Idle and
// unclaimed. setup must assign r.kind-specific fields; it runs under the
// lock, before the state transitions out of Idle (spec.md §4.2's invariant
// that the tagged union is "written only while the state is Idle"). A
// consumerWait registration drives the state to resultConsumerWait rather
// than resultConsumerSet, distinguishing a blocking waiter (Wait/WaitUntil)
// from a registered continuation (Await/AwaitContinuation and the
// when-any/shared-result consumers built on it).
func (r *Result[T]) tryRegister(kind consumerKind, setup func()) (registration, T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completed {
		return regAlreadyDone, r.value, r.err
	}
	if r.kind != consumerNone {
		var zero T
		return regConflict, zero, nil
	}
	setup()
	r.kind = kind
	if kind == consumerWait {
		r.state.Store(resultConsumerWait)
	} else {
		r.state.Store(resultConsumerSet)
	}
	var zero T
	return regOK, zero, nil
}

// dropConsumer releases a registered consumer context without marking the
// Result done, per spec.md §4.2 "Consumer drop". It is called when an
// awaiter abandons its wait (e.g. context cancellation).
func (r *Result[T]) dropConsumer() {
	r.mu.Lock()
	if !r.completed {
		r.kind = consumerNone
		r.awaiter = nil
		r.sem = nil
		r.whenAny = nil
		r.shared = nil
		r.state.Store(resultConsumerDone)
	}
	r.mu.Unlock()
}

// Done reports whether the producer has completed, without blocking.
func (r *Result[T]) Done() bool {
	return r.state.Load() == resultProducerDone
}

// Peek returns the settled value/error and true, or the zero value and
// false if the Result has not yet completed. It never blocks and never
// starts a lazy producer.
func (r *Result[T]) Peek() (T, error, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.completed {
		var zero T
		return zero, nil, false
	}
	return r.value, r.err, true
}

// Await suspends until the Result completes or ctx is done, whichever comes
// first. This is the coroutine-await path of spec.md §4.2: it registers a
// continuation (consumerAwait), which is the Go equivalent of storing an
// "awaiting coroutine handle" — the calling goroutine's blocked call to
// Await is the suspension.
//
// If ctx is canceled first, Await drops its registration (so a late
// producer completion finds no consumer to resume) and returns ctx.Err().
func (r *Result[T]) Await(ctx context.Context) (T, error) {
	r.ensureStarted()

	ch := make(chan struct{})
	var val T
	var rerr error

	status, pv, pe := r.tryRegister(consumerAwait, func() {
		r.awaiter = func(v T, e error) {
			val, rerr = v, e
			close(ch)
		}
	})
	switch status {
	case regAlreadyDone:
		return pv, pe
	case regConflict:
		var zero T
		return zero, ErrConsumerAlreadyRegistered
	}

	select {
	case <-ch:
		return val, rerr
	case <-ctx.Done():
		r.dropConsumer()
		var zero T
		return zero, ctx.Err()
	}
}

// AwaitContinuation registers cont to run when the Result completes,
// without blocking the calling goroutine. If the Result is already
// complete, cont runs synchronously before AwaitContinuation returns. Most
// callers should prefer Await.
func (r *Result[T]) AwaitContinuation(cont func(T, error)) error {
	r.ensureStarted()
	status, pv, pe := r.tryRegister(consumerAwait, func() {
		r.awaiter = cont
	})
	switch status {
	case regAlreadyDone:
		cont(pv, pe)
		return nil
	case regConflict:
		return ErrConsumerAlreadyRegistered
	}
	return nil
}

// Wait blocks for at most timeout for the Result to settle, using a
// semaphore-based blocking waiter (spec.md §4.2 "Consumer blocking wait
// (timed)") rather than a continuation. On timeout it un-registers itself
// (reverting the state to Idle under the Result's lock, unless the producer
// completed meanwhile) and returns StatusTimeout; a late
// producer completion in that case is observed by a subsequent call to
// Peek or Wait.
func (r *Result[T]) Wait(timeout time.Duration) (T, error, Status) {
	return r.WaitUntil(time.Now().Add(timeout))
}

// WaitUntil is like Wait but takes an absolute deadline.
func (r *Result[T]) WaitUntil(deadline time.Time) (T, error, Status) {
	r.ensureStarted()

	sem := semaphore.NewWeighted(1)
	_ = sem.Acquire(context.Background(), 1) // always succeeds immediately

	status, pv, pe := r.tryRegister(consumerWait, func() {
		r.sem = sem
	})
	switch status {
	case regAlreadyDone:
		return pv, pe, StatusReady
	case regConflict:
		var zero T
		return zero, ErrConsumerAlreadyRegistered, StatusReady
	}

	// slack of 1ms per spec.md §4.3.2's description of timed waits elsewhere
	// in the runtime.
	ctx, cancel := context.WithDeadline(context.Background(), deadline.Add(time.Millisecond))
	defer cancel()

	if err := sem.Acquire(ctx, 1); err != nil {
		// Timed out (or deadline exceeded): try to revert to Idle. If that
		// fails, the producer raced us and already completed.
		r.mu.Lock()
		if !r.completed {
			r.kind = consumerNone
			r.sem = nil
			r.state.Store(resultIdle)
			r.mu.Unlock()
			var zero T
			return zero, nil, StatusTimeout
		}
		v, e := r.value, r.err
		r.mu.Unlock()
		return v, e, StatusReady
	}

	r.mu.Lock()
	v, e := r.value, r.err
	r.mu.Unlock()
	return v, e, StatusReady
}
