// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package corort

// engineOptions holds configuration for Engine creation. Grounded on
// eventloop/options.go's loopOptions/LoopOption functional-options idiom.
type engineOptions struct {
	poolSize      int
	onThreadStart func(workerID int)
	onThreadStop  func(workerID int)
}

// EngineOption configures an Engine instance.
type EngineOption interface {
	applyEngine(*engineOptions) error
}

type engineOptionImpl struct {
	applyEngineFunc func(*engineOptions) error
}

func (o *engineOptionImpl) applyEngine(opts *engineOptions) error {
	return o.applyEngineFunc(opts)
}

// WithPoolSize sets the worker count of the Engine's default
// [ThreadPoolExecutor], created lazily on first use. A value below 1 is
// clamped to 1.
func WithPoolSize(n int) EngineOption {
	return &engineOptionImpl{func(opts *engineOptions) error {
		opts.poolSize = n
		return nil
	}}
}

// WithThreadLifecycleCallbacks registers hooks the Engine calls with
// workerID 0: onStart each time NewThreadExecutor or NewWorkerThreadExecutor
// builds an executor, and onStop once for each executor or timer queue that
// Shutdown stops. Pool workers and the goroutines spawned by a
// ThreadExecutor do not call them, and no per-thread label is passed.
func WithThreadLifecycleCallbacks(onStart, onStop func(workerID int)) EngineOption {
	return &engineOptionImpl{func(opts *engineOptions) error {
		opts.onThreadStart = onStart
		opts.onThreadStop = onStop
		return nil
	}}
}

func resolveEngineOptions(opts []EngineOption) (*engineOptions, error) {
	cfg := &engineOptions{
		poolSize: 4,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyEngine(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.poolSize < 1 {
		cfg.poolSize = 1
	}
	return cfg, nil
}
