package worker

import (
	"github.com/okian/laneup/internal/domain/rating"
	"github.com/okian/laneup/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithBounds sets the clamp applied to adjusted scores.
func WithBounds(b rating.Bounds) Option {
	return func(w *InMemoryWorker) {
		if b.Valid() {
			w.bounds = b
		}
	}
}

// WithApplied registers a hook run after each applied result.
func WithApplied(fn AppliedFunc) Option {
	return func(w *InMemoryWorker) {
		w.applied = fn
	}
}

// WithFailed registers a hook run when a result cannot be applied.
func WithFailed(fn FailedFunc) Option {
	return func(w *InMemoryWorker) {
		w.failed = fn
	}
}
