package worker

import "github.com/fieldday/combine/pkg/logger"

// Option configures an InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		w.name = name
	}
}

// WithLogger overrides the worker logger.
func WithLogger(log logger.Logger) Option {
	return func(w *InMemoryWorker) {
		w.logger = log
	}
}
