// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

import (
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/joeycumines/logiface"
	slogbackend "github.com/joeycumines/logiface-slog"
)

// logger is the package-wide structured logger, used for worker lifecycle
// events, timer fires, and recovered panics. It defaults to a
// slog.Handler writing to os.Stderr at warning level and above, via the
// logiface-slog backend; SetLogger replaces it process-wide.
var logger atomic.Pointer[logiface.Logger[*slogbackend.Event]]

func init() {
	logger.Store(newDefaultLogger())
}

func newDefaultLogger() *logiface.Logger[*slogbackend.Event] {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	return logiface.New[*slogbackend.Event](
		slogbackend.NewLogger(handler),
		logiface.WithLevel[*slogbackend.Event](logiface.LevelWarning),
	)
}

// SetLogger replaces the package-wide logger used by every Engine,
// Executor, and TimerQueue; there is no per-component logger. Passing nil
// restores the default (stderr, warning level).
func SetLogger(l *logiface.Logger[*slogbackend.Event]) {
	if l == nil {
		l = newDefaultLogger()
	}
	logger.Store(l)
}

func currentLogger() *logiface.Logger[*slogbackend.Event] {
	return logger.Load()
}

// logPanic records a Task panic recovered by an executor's worker loop.
func logPanic(rec any) {
	currentLogger().Err().Interface("panic", rec).Log("corort: task panicked")
}

// logWorkerEvent records ThreadPoolExecutor/WorkerThreadExecutor worker
// lifecycle transitions (spawn, idle-park, donate, shutdown).
func logWorkerEvent(event string, workerID int) {
	currentLogger().Debug().Str("event", event).Int("worker_id", workerID).Log("corort: worker lifecycle")
}

// logTimerEvent records TimerQueue timer events; only "fire" is logged.
func logTimerEvent(event string, timerID uint64) {
	currentLogger().Debug().Str("event", event).Int("timer_id", int(timerID)).Log("corort: timer event")
}
