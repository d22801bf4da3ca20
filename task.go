// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

// Task is a move-only, one-shot callable accepted by every [Executor].
//
// Running a Task invokes its stored callable exactly once and then consumes
// it (the Task becomes empty). Dropping an unconsumed Task by calling Drop
// invokes its onDrop hook instead (a Task that is simply discarded, with
// neither Run nor Drop called, invokes nothing), which is how a [Task] built
// from an await-via continuation signals
// interruption to a parked consumer without running its normal body. An
// empty Task's Run and Drop are both no-ops.
//
// The original C++ runtime packs Task into a fixed 64-byte small-buffer
// payload with a trivial/non-trivial vtable split; Go closures are always
// heap references, so that inline-storage optimization does not translate
// (see SPEC_FULL.md §5.1) and is intentionally not attempted here. What
// survives is the contract: at-most-once invocation, and a distinct drop
// path for callables that must notice they were never run.
type Task struct {
	run    func()
	onDrop func()
}

// NewTask wraps an ordinary callable as a Task. A nil fn produces an empty
// Task.
func NewTask(fn func()) Task {
	return Task{run: fn}
}

// NewTaskWithDrop wraps fn as a Task whose onDrop runs instead, if the Task
// is discarded without ever being Run.
func NewTaskWithDrop(fn func(), onDrop func()) Task {
	return Task{run: fn, onDrop: onDrop}
}

// NewResumeTask builds the "coroutine-handle functor" of spec.md §3/§4.1:
// running it resumes a parked continuation with no special drop behavior.
func NewResumeTask(resume func()) Task {
	return Task{run: resume}
}

// IsEmpty reports whether the Task holds no callable.
func (t Task) IsEmpty() bool {
	return t.run == nil && t.onDrop == nil
}

// Run invokes the stored callable exactly once, then consumes the Task.
// Running an empty Task is a no-op. Run does not recover panics; callers
// that need panic isolation must wrap the call (ThreadExecutor,
// WorkerThreadExecutor and ThreadPoolExecutor do; InlineExecutor and
// ManualExecutor let a panic reach their caller).
func (t *Task) Run() {
	run := t.run
	*t = Task{}
	if run != nil {
		run()
	}
}

// Drop discards the Task without running its body, invoking onDrop instead
// if one was registered. Dropping an empty or already-run Task is a no-op.
func (t *Task) Drop() {
	onDrop := t.onDrop
	*t = Task{}
	if onDrop != nil {
		onDrop()
	}
}
