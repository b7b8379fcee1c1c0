// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package fiber

// spawnOptions holds configuration applied to a single Spawn call.
type spawnOptions struct {
	name string
}

// SpawnOption configures a single Spawn call, in the style of teacher's
// LoopOption: a narrow interface plus an unexported closure implementation,
// so new options can be added without breaking callers.
type SpawnOption interface {
	applySpawn(*spawnOptions)
}

type spawnOptionImpl struct {
	applySpawnFunc func(*spawnOptions)
}

func (o *spawnOptionImpl) applySpawn(opts *spawnOptions) {
	o.applySpawnFunc(opts)
}

// WithName attaches a human-readable name to a spawned fiber, surfaced via
// Context.Name and used in debug logging.
func WithName(name string) SpawnOption {
	return &spawnOptionImpl{func(opts *spawnOptions) {
		opts.name = name
	}}
}

func resolveSpawnOptions(opts []SpawnOption) *spawnOptions {
	cfg := &spawnOptions{name: "fiber"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applySpawn(cfg)
	}
	return cfg
}

// schedulerOptions holds configuration applied once, at scheduler
// bootstrap.
type schedulerOptions struct {
	logger         Logger
	wake           wakePrimitive
	metricsEnabled bool
}

// SchedulerOption configures the scheduler lazily bootstrapped for a
// goroutine the first time it calls Spawn or Bootstrap.
type SchedulerOption interface {
	applyScheduler(*schedulerOptions)
}

type schedulerOptionImpl struct {
	applySchedulerFunc func(*schedulerOptions)
}

func (o *schedulerOptionImpl) applyScheduler(opts *schedulerOptions) {
	o.applySchedulerFunc(opts)
}

// WithLogger attaches a Logger to the scheduler, used for Debug-level
// resume/spawn/terminate tracing. The default is a no-op logger.
func WithLogger(logger Logger) SchedulerOption {
	return &schedulerOptionImpl{func(opts *schedulerOptions) {
		opts.logger = logger
	}}
}

// WithMetrics enables scheduling-latency and queue-depth metrics,
// retrievable via Scheduler.Metrics. Disabled by default, matching
// teacher's WithMetrics default-off stance for the same low-overhead
// reasoning.
func WithMetrics(enabled bool) SchedulerOption {
	return &schedulerOptionImpl{func(opts *schedulerOptions) {
		opts.metricsEnabled = enabled
	}}
}

// withWakePrimitive overrides the scheduler's idle wake-up mechanism;
// unexported because it exists for tests, not for production callers — the
// platform default (eventfd/self-pipe/channel) is always correct there.
func withWakePrimitive(wake wakePrimitive) SchedulerOption {
	return &schedulerOptionImpl{func(opts *schedulerOptions) {
		opts.wake = wake
	}}
}

func resolveSchedulerOptions(opts []SchedulerOption) schedulerOptions {
	cfg := schedulerOptions{logger: defaultLogger}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyScheduler(&cfg)
	}
	return cfg
}
