// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// timerEntry is one scheduled (or periodic) timer, stored in a min-heap
// ordered by deadline, grounded on eventloop/loop.go's timerHeap
// (container/heap.Interface over a []timer slice ordered by when). Unlike
// that heap, each entry also tracks its own index so TimerQueue can cancel
// an arbitrary timer in O(log N) via heap.Remove instead of only ever
// popping the earliest deadline.
type timerEntry struct {
	id       uint64
	deadline time.Time
	period   time.Duration
	executor Executor
	fn       func(t *Timer, interrupted bool)
	canceled bool
	index    int
}

type timerMinHeap []*timerEntry

func (h timerMinHeap) Len() int            { return len(h) }
func (h timerMinHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timerMinHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerMinHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *timerMinHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Timer is a handle to one scheduled timer, passed back to its own
// callback on fire (spec.md §4.6, "fire-with-self-reference") so the
// callback can Cancel a periodic timer from within itself, or read back
// its ID for logging.
type Timer struct {
	id uint64
	q  *TimerQueue
}

// ID returns the timer's identity, stable for its lifetime.
func (t *Timer) ID() uint64 { return t.id }

// Cancel prevents a not-yet-fired timer from firing, or stops a periodic
// timer from rescheduling itself. Returns false if the timer already fired
// (for a one-shot) or was already canceled.
func (t *Timer) Cancel() bool {
	return t.q.cancel(t.id)
}

// TimerQueue is a single coordinator goroutine driving any number of
// one-shot and periodic timers (spec.md §4.6, "Timer queue"). Scheduling
// and cancellation are O(log N) via a deadline-ordered heap plus an
// id-indexed map for direct removal; the coordinator sleeps until the
// earliest deadline or a wake signal (a new, sooner, or canceled timer),
// matching eventloop/loop.go's single-threaded timer-processing section
// (runLoopIteration's timer-firing block) generalized into its own
// goroutine instead of sharing one with I/O and microtasks.
type TimerQueue struct {
	mu     sync.Mutex
	heap   timerMinHeap
	byID   map[uint64]*timerEntry
	nextID atomic.Uint64

	wake       chan struct{}
	shutdownCh chan struct{}
	shutdown   atomic.Bool
	joined     chan struct{}
}

// NewTimerQueue starts the coordinator goroutine and returns a ready-to-use
// TimerQueue.
func NewTimerQueue() *TimerQueue {
	q := &TimerQueue{
		byID:       make(map[uint64]*timerEntry),
		wake:       make(chan struct{}, 1),
		shutdownCh: make(chan struct{}),
		joined:     make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *TimerQueue) signalWake() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *TimerQueue) run() {
	defer close(q.joined)
	for {
		q.mu.Lock()
		if q.shutdown.Load() {
			q.drainForShutdown()
			q.mu.Unlock()
			return
		}

		if q.heap.Len() == 0 {
			q.mu.Unlock()
			select {
			case <-q.wake:
			case <-q.shutdownCh:
			}
			continue
		}

		wait := time.Until(q.heap[0].deadline)
		if wait <= 0 {
			e := heap.Pop(&q.heap).(*timerEntry)
			delete(q.byID, e.id)
			q.mu.Unlock()
			q.fire(e, false)
			continue
		}
		q.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-q.wake:
			timer.Stop()
		case <-q.shutdownCh:
			timer.Stop()
		}
	}
}

// drainForShutdown must be called with mu held. It fires every remaining
// timer with interrupted=true so nothing awaiting one (e.g. a Delay
// Result) is left parked forever, per spec.md §6's shutdown guarantees.
func (q *TimerQueue) drainForShutdown() {
	for q.heap.Len() > 0 {
		e := heap.Pop(&q.heap).(*timerEntry)
		delete(q.byID, e.id)
		if !e.canceled {
			e.fn(&Timer{id: e.id, q: q}, true)
		}
	}
}

func (q *TimerQueue) fire(e *timerEntry, interrupted bool) {
	if e.canceled {
		return
	}
	logTimerEvent("fire", e.id)

	// A periodic timer is rescheduled before its callback runs, so the
	// callback can still Cancel it.
	if !interrupted && e.period > 0 {
		q.mu.Lock()
		if !e.canceled && !q.shutdown.Load() {
			e.deadline = e.deadline.Add(e.period)
			heap.Push(&q.heap, e)
			q.byID[e.id] = e
		}
		q.mu.Unlock()
	}

	if e.executor != nil {
		if err := Post(e.executor, func() {
			q.mu.Lock()
			canceled := e.canceled
			q.mu.Unlock()
			if !canceled {
				e.fn(&Timer{id: e.id, q: q}, interrupted)
			}
		}); err != nil {
			e.fn(&Timer{id: e.id, q: q}, true)
		}
	} else {
		e.fn(&Timer{id: e.id, q: q}, interrupted)
	}
}

// Schedule runs fn once, at deadline, posted onto executor (or run
// directly on the coordinator goroutine if executor is nil — intended only
// for small, non-blocking callbacks such as completing a [Result]).
func (q *TimerQueue) Schedule(deadline time.Time, executor Executor, fn func(t *Timer, interrupted bool)) (*Timer, error) {
	if q.shutdown.Load() {
		return nil, ErrAlreadyShutdown
	}
	id := q.nextID.Add(1)
	e := &timerEntry{id: id, deadline: deadline, executor: executor, fn: fn}
	q.mu.Lock()
	if q.shutdown.Load() {
		q.mu.Unlock()
		return nil, ErrAlreadyShutdown
	}
	heap.Push(&q.heap, e)
	q.byID[id] = e
	q.mu.Unlock()
	q.signalWake()
	return &Timer{id: id, q: q}, nil
}

// SchedulePeriodic runs fn every period, starting at now+period, until
// canceled or the queue shuts down.
func (q *TimerQueue) SchedulePeriodic(period time.Duration, executor Executor, fn func(t *Timer, interrupted bool)) (*Timer, error) {
	if q.shutdown.Load() {
		return nil, ErrAlreadyShutdown
	}
	id := q.nextID.Add(1)
	e := &timerEntry{id: id, deadline: time.Now().Add(period), period: period, executor: executor, fn: fn}
	q.mu.Lock()
	if q.shutdown.Load() {
		q.mu.Unlock()
		return nil, ErrAlreadyShutdown
	}
	heap.Push(&q.heap, e)
	q.byID[id] = e
	q.mu.Unlock()
	q.signalWake()
	return &Timer{id: id, q: q}, nil
}

func (q *TimerQueue) cancel(id uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byID[id]
	if !ok {
		return false
	}
	delete(q.byID, id)
	heap.Remove(&q.heap, e.index)
	e.canceled = true
	q.signalWake()
	return true
}

// After returns a Result that completes with an empty value once d has
// elapsed — the "delay object" of spec.md §4.6. Canceling the returned
// Timer before it fires leaves the Result pending forever; callers that
// need cancellation visible to the awaiter should use Schedule directly
// and complete the Result themselves in fn.
func (q *TimerQueue) After(d time.Duration) (*Result[struct{}], *Timer) {
	r, complete := NewResult[struct{}]()
	t, err := q.Schedule(time.Now().Add(d), nil, func(_ *Timer, interrupted bool) {
		if interrupted {
			complete(struct{}{}, &InterruptedError{Cause: ErrAlreadyShutdown})
			return
		}
		complete(struct{}{}, nil)
	})
	if err != nil {
		complete(struct{}{}, err)
		return r, nil
	}
	return r, t
}

func (q *TimerQueue) Shutdown() {
	if q.shutdown.CompareAndSwap(false, true) {
		close(q.shutdownCh)
		q.signalWake()
	}
}

func (q *TimerQueue) ShutdownRequested() bool {
	return q.shutdown.Load()
}

// Join blocks until the coordinator goroutine has exited or ctx is done.
func (q *TimerQueue) Join(ctx context.Context) error {
	select {
	case <-q.joined:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
