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

// muWaiter is one parked Lock call: handle identifies who is waiting, ch is
// closed by Unlock when ownership transfers to them.
type muWaiter struct {
	handle any
	ch     chan struct{}
}

// AsyncMutex is a mutual-exclusion lock for coroutine-style code, where
// "owner" is a caller-supplied handle rather than an OS thread or goroutine
// ID (spec.md §4.7, "Async lock"). A handle is typically a pointer unique
// to one logical caller (e.g. the *Task or *Result driving it); using the
// same handle to Lock twice without an intervening Unlock is a reentrant
// attempt and fails with [ErrDeadlockWouldOccur], the same error returned
// by Unlock when called with a handle that is not the current owner.
//
// Unlike [sync.Mutex], Lock takes a context so a parked waiter can give up;
// MutexOption lets a waiter's wakeup be resumed on a specific [Executor]
// instead of inline on whichever goroutine called Unlock.
type AsyncMutex struct {
	mu       sync.Mutex
	locked   bool
	owner    any
	waiters  []muWaiter
	executor Executor
}

// MutexOption configures a AsyncMutex at construction, mirroring the
// functional-options idiom of eventloop/options.go's LoopOption.
type MutexOption func(*AsyncMutex)

// WithMutexResumeExecutor makes every waiter woken by Unlock resume on e
// instead of inline on the unlocking goroutine.
func WithMutexResumeExecutor(e Executor) MutexOption {
	return func(m *AsyncMutex) { m.executor = e }
}

// NewAsyncMutex returns a ready-to-use, initially-unlocked AsyncMutex.
func NewAsyncMutex(opts ...MutexOption) *AsyncMutex {
	m := &AsyncMutex{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TryLock acquires the mutex for handle without blocking, returning false
// if it is already held (by any handle, including handle itself).
func (m *AsyncMutex) TryLock(handle any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return false
	}
	m.locked = true
	m.owner = handle
	return true
}

// Lock acquires the mutex for handle, suspending the calling goroutine if
// it is already held. If ctx is done before acquisition, Lock returns
// ctx.Err(); if the handoff race (Unlock assigning ownership just as ctx
// fires) awards handle ownership anyway, Lock immediately releases it back
// before returning, so a canceled Lock never silently leaks the mutex.
func (m *AsyncMutex) Lock(ctx context.Context, handle any) error {
	m.mu.Lock()
	if m.locked && m.owner == handle {
		m.mu.Unlock()
		return ErrDeadlockWouldOccur
	}
	if !m.locked {
		m.locked = true
		m.owner = handle
		m.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	m.waiters = append(m.waiters, muWaiter{handle: handle, ch: ch})
	m.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		if !m.removeWaiter(ch) {
			// Unlock already handed ownership to handle (ch is closed, or
			// its close is still on the way); give it back immediately.
			_ = m.Unlock(handle)
		}
		return ctx.Err()
	}
}

// removeWaiter removes the waiter parked on ch, reporting whether it was
// still queued.
func (m *AsyncMutex) removeWaiter(ch chan struct{}) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.waiters {
		if w.ch == ch {
			m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// Unlock releases the mutex, transferring ownership to the longest-waiting
// Lock call if any, or marking it free otherwise. Returns
// [ErrDeadlockWouldOccur] if handle does not currently own the mutex.
func (m *AsyncMutex) Unlock(handle any) error {
	m.mu.Lock()
	if !m.locked || m.owner != handle {
		m.mu.Unlock()
		return ErrDeadlockWouldOccur
	}
	if len(m.waiters) > 0 {
		w := m.waiters[0]
		m.waiters = m.waiters[1:]
		m.owner = w.handle
		m.mu.Unlock()
		if m.executor != nil {
			if err := Post(m.executor, func() { close(w.ch) }); err != nil {
				close(w.ch)
			}
		} else {
			close(w.ch)
		}
		return nil
	}
	m.locked = false
	m.owner = nil
	m.mu.Unlock()
	return nil
}

// Locked reports whether the mutex is currently held by anyone.
func (m *AsyncMutex) Locked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked
}
