package ingest

import (
	"github.com/fieldday/combine/internal/domain/numbering"
	"github.com/fieldday/combine/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithWorkerCount sets how many validation workers fan out per batch.
func WithWorkerCount(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workerCount = n
		}
	}
}

// WithMaxRows caps how many data rows one sheet may carry.
func WithMaxRows(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxRows = n
		}
	}
}

// WithAllocator overrides the number allocator, for deterministic tests.
func WithAllocator(a *numbering.Allocator) Option {
	return func(p *Pipeline) {
		p.alloc = a
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}
