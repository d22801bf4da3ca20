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

// AsyncCond is a condition variable paired with an [AsyncMutex], following
// the same Locker-association idiom as [sync.Cond] (spec.md §4.7, "Async
// condition"). The caller must hold L (locked with handle) before calling
// Await, and L is held again when Await returns, regardless of outcome —
// the same contract [sync.Cond.Wait] makes, adapted to a context-aware,
// suspend-the-goroutine form since coroutine code cannot busy-poll.
type AsyncCond struct {
	L *AsyncMutex

	mu      sync.Mutex
	waiters []chan struct{}
}

// NewAsyncCond returns an AsyncCond associated with l.
func NewAsyncCond(l *AsyncMutex) *AsyncCond {
	return &AsyncCond{L: l}
}

func (c *AsyncCond) addWaiter() chan struct{} {
	ch := make(chan struct{})
	c.mu.Lock()
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()
	return ch
}

func (c *AsyncCond) removeWaiter(ch chan struct{}) {
	c.mu.Lock()
	for i, w := range c.waiters {
		if w == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
}

// Await releases L, suspends until NotifyOne/NotifyAll wakes this waiter,
// then reacquires L, repeating until predicate returns true. It always
// returns with L held. If ctx is done while suspended, Await still
// reacquires L (using context.Background(), so the relock itself cannot be
// interrupted) before returning ctx.Err(), preserving the "returns with L
// held" contract even on cancellation.
func (c *AsyncCond) Await(ctx context.Context, handle any, predicate func() bool) error {
	for !predicate() {
		ch := c.addWaiter()

		if err := c.L.Unlock(handle); err != nil {
			c.removeWaiter(ch)
			return err
		}

		select {
		case <-ch:
		case <-ctx.Done():
			c.removeWaiter(ch)
			if relockErr := c.L.Lock(context.Background(), handle); relockErr != nil {
				return relockErr
			}
			return ctx.Err()
		}

		if err := c.L.Lock(context.Background(), handle); err != nil {
			return err
		}
	}
	return nil
}

// NotifyOne wakes at most one waiter parked in Await.
func (c *AsyncCond) NotifyOne() {
	c.mu.Lock()
	if len(c.waiters) == 0 {
		c.mu.Unlock()
		return
	}
	ch := c.waiters[0]
	c.waiters = c.waiters[1:]
	c.mu.Unlock()
	close(ch)
}

// NotifyAll wakes every waiter currently parked in Await.
func (c *AsyncCond) NotifyAll() {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
}
