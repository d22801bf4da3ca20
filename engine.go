// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Engine is a process-wide container that lazily constructs the standard
// executors and the timer queue shared by code that does not want to wire
// its own (spec.md §4.8, "Engine"). It also tracks every executor and timer
// queue it has created — including ones built via its New* factories, not
// just the lazy defaults — so [Engine.Shutdown] can join all of them in one
// pass.
//
// Engine is safe for concurrent use. The zero value is not usable; use
// [NewEngine] or [DefaultEngine].
type Engine struct {
	opts *engineOptions

	mu         sync.Mutex
	inline     *InlineExecutor
	pool       *ThreadPoolExecutor
	timerQueue *TimerQueue
	tracked    []shutdownJoiner

	shutdownCh chan struct{}
	shutdown   atomic.Bool
}

// shutdownJoiner is implemented by every executor and the TimerQueue;
// Engine.Shutdown uses it to request shutdown and then join, uniformly.
type shutdownJoiner interface {
	Shutdown()
	Join(ctx context.Context) error
}

// NewEngine constructs an Engine with its own configuration. Most programs
// want a single shared Engine; see [DefaultEngine].
func NewEngine(opts ...EngineOption) (*Engine, error) {
	cfg, err := resolveEngineOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Engine{opts: cfg, shutdownCh: make(chan struct{})}, nil
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// DefaultEngine returns the process-wide lazily constructed Engine, built
// with default options on first call.
func DefaultEngine() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine, _ = NewEngine()
	})
	return defaultEngine
}

func (eng *Engine) track(j shutdownJoiner) {
	eng.mu.Lock()
	eng.tracked = append(eng.tracked, j)
	eng.mu.Unlock()
}

// InlineExecutor returns the Engine's lazily constructed, shared
// [InlineExecutor].
func (eng *Engine) InlineExecutor() (*InlineExecutor, error) {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	if eng.shutdown.Load() {
		return nil, ErrAlreadyShutdown
	}
	if eng.inline == nil {
		eng.inline = NewInlineExecutor()
	}
	return eng.inline, nil
}

// ThreadPool returns the Engine's lazily constructed, shared
// [ThreadPoolExecutor], sized per [WithPoolSize] (default 4 workers).
func (eng *Engine) ThreadPool() (*ThreadPoolExecutor, error) {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	if eng.shutdown.Load() {
		return nil, ErrAlreadyShutdown
	}
	if eng.pool == nil {
		eng.pool = NewThreadPoolExecutor(eng.opts.poolSize)
	}
	return eng.pool, nil
}

// Timers returns the Engine's lazily constructed, shared [TimerQueue].
func (eng *Engine) Timers() (*TimerQueue, error) {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	if eng.shutdown.Load() {
		return nil, ErrAlreadyShutdown
	}
	if eng.timerQueue == nil {
		eng.timerQueue = NewTimerQueue()
	}
	return eng.timerQueue, nil
}

// NewManualExecutor builds a fresh [ManualExecutor] and registers it with
// the Engine so [Engine.Shutdown] tears it down too.
func (eng *Engine) NewManualExecutor() (*ManualExecutor, error) {
	if eng.shutdown.Load() {
		return nil, ErrAlreadyShutdown
	}
	e := NewManualExecutor()
	eng.track(manualJoiner{e})
	return e, nil
}

// manualJoiner adapts ManualExecutor (which has no blocking Join, since it
// has no worker goroutine of its own) to shutdownJoiner.
type manualJoiner struct{ e *ManualExecutor }

func (m manualJoiner) Shutdown()                     { m.e.Shutdown() }
func (m manualJoiner) Join(ctx context.Context) error { return nil }

// NewThreadExecutor builds a fresh [ThreadExecutor] and registers it with
// the Engine so [Engine.Shutdown] tears it down too.
func (eng *Engine) NewThreadExecutor() (*ThreadExecutor, error) {
	if eng.shutdown.Load() {
		return nil, ErrAlreadyShutdown
	}
	e := NewThreadExecutor()
	if eng.opts.onThreadStart != nil {
		eng.opts.onThreadStart(0)
	}
	eng.track(e)
	return e, nil
}

// NewWorkerThreadExecutor builds a fresh [WorkerThreadExecutor] and
// registers it with the Engine so [Engine.Shutdown] tears it down too.
func (eng *Engine) NewWorkerThreadExecutor() (*WorkerThreadExecutor, error) {
	if eng.shutdown.Load() {
		return nil, ErrAlreadyShutdown
	}
	e := NewWorkerThreadExecutor()
	if eng.opts.onThreadStart != nil {
		eng.opts.onThreadStart(0)
	}
	eng.track(e)
	return e, nil
}

// NewThreadPoolExecutor builds a fresh, independently-sized
// [ThreadPoolExecutor] (distinct from the Engine's shared one) and
// registers it with the Engine so [Engine.Shutdown] tears it down too.
func (eng *Engine) NewThreadPoolExecutor(n int) (*ThreadPoolExecutor, error) {
	if eng.shutdown.Load() {
		return nil, ErrAlreadyShutdown
	}
	e := NewThreadPoolExecutor(n)
	eng.track(e)
	return e, nil
}

// Shutdown requests shutdown of every executor and timer queue the Engine
// has constructed — lazily-built shared ones and everything built via a
// New* factory — and waits for all of them to finish, via
// [golang.org/x/sync/errgroup], per spec.md §6's "shutdown cascade"
// guarantee. It is safe to call more than once; subsequent calls return
// [ErrAlreadyShutdown] immediately.
func (eng *Engine) Shutdown(ctx context.Context) error {
	if !eng.shutdown.CompareAndSwap(false, true) {
		return ErrAlreadyShutdown
	}
	close(eng.shutdownCh)

	eng.mu.Lock()
	joiners := make([]shutdownJoiner, 0, len(eng.tracked)+3)
	// The timer queue shuts down first, so no more timer firings are
	// posted to an executor that's about to shut down itself (spec.md §6).
	if eng.timerQueue != nil {
		joiners = append(joiners, eng.timerQueue)
	}
	if eng.inline != nil {
		joiners = append(joiners, inlineJoiner{eng.inline})
	}
	if eng.pool != nil {
		joiners = append(joiners, eng.pool)
	}
	joiners = append(joiners, eng.tracked...)
	eng.mu.Unlock()

	for _, j := range joiners {
		j.Shutdown()
		if eng.opts.onThreadStop != nil {
			eng.opts.onThreadStop(0)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range joiners {
		j := j
		g.Go(func() error {
			return j.Join(gctx)
		})
	}
	return g.Wait()
}

// inlineJoiner adapts InlineExecutor (synchronous, nothing to join) to
// shutdownJoiner.
type inlineJoiner struct{ e *InlineExecutor }

func (i inlineJoiner) Shutdown()                     { i.e.Shutdown() }
func (i inlineJoiner) Join(ctx context.Context) error { return nil }

// ShutdownRequested reports whether Shutdown has been called.
func (eng *Engine) ShutdownRequested() bool {
	return eng.shutdown.Load()
}
