// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package corort implements a general-purpose asynchronous coroutine
// runtime: suspendable tasks expressed as ordinary Go code blocked on a
// [Result], a small family of executors that run tasks, and a timer queue
// that drives them.
//
// There is no native coroutine keyword in Go, so "suspension" is whatever a
// caller is blocked on: a call to [Result.Await], a call to [AsyncMutex.Lock],
// or a goroutine parked on a channel by a [Task] built from
// [NewResumeTask]. The runtime's job is to make that suspension cheap,
// cancel it cleanly on executor shutdown, and resume it on the right
// executor.
//
// # Layers
//
// [Task] is a move-only, one-shot callable. [Result] is a single-producer,
// (mostly) single-consumer container for a value or error, awaitable from
// any goroutine. [SharedResult] multiplexes one Result over many observers.
// [Executor] is the common contract implemented by [InlineExecutor],
// [ManualExecutor], [ThreadExecutor], [WorkerThreadExecutor], and
// [ThreadPoolExecutor]. [TimerQueue] drives one-shot and periodic timers by
// posting tasks onto their owning executor. [AsyncMutex] and [AsyncCond] are
// coroutine-aware synchronization primitives whose waiters park on channels;
// an AsyncMutex can resume its waiters on an executor. [Engine] is a
// process-wide container that lazily constructs the
// standard executors and the timer queue, and tracks everything it creates
// so shutdown can join it all in one pass.
package corort
