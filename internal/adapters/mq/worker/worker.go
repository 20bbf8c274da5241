// Package worker drains queued contact submissions into a Sink.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/auscript/internal/adapters/mq/queue"
	"github.com/okian/auscript/pkg/logger"
	"github.com/okian/auscript/pkg/metrics"
)

const defaultWorkerCount = 2

// Submission abstracts what workers read off the queue.
type Submission = queue.Submission

// Sink receives every submission a worker takes off the queue.
type Sink interface {
	Observe(ctx context.Context, s Submission) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, s Submission) error

// Observe calls f.
func (f SinkFunc) Observe(ctx context.Context, s Submission) error { return f(ctx, s) } //nolint:gocritic // hugeParam

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Submission
}

// InMemoryWorker hands submissions from a queue to a sink.
type InMemoryWorker struct {
	queue Queue
	sink  Sink
	name  string

	processed atomic.Int64
	done      chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue: q,
		sink:  sink,
		name:  "worker",
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes submissions until the queue is closed and drained or ctx ends.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	for s := range w.queue.Dequeue(ctx) {
		if err := w.process(ctx, s); err != nil {
			w.logger.Error(ctx, "error observing submission", logger.String("id", s.ID), logger.Error(err))
		}
	}
}

// Done is closed once Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Processed returns how many submissions this worker handed to the sink.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, s Submission) error { //nolint:gocritic // hugeParam
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.sink.Observe(ctx, s); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "sink_error")
		metrics.RecordErrorByType("sink_error", "low")
		return fmt.Errorf("observe submission %s: %w", s.ID, err)
	}
	w.processed.Add(1)
	metrics.RecordSubmissionObserved()
	return nil
}

// Pool manages multiple workers reading the same queue.
type Pool struct {
	workers []*InMemoryWorker
	logger  logger.Logger
}

// NewPool creates a worker pool; workerCount < 1 uses the default.
func NewPool(workerCount int, q Queue, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, sink, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the total number of submissions handed to the sink.
func (p *Pool) Processed() int64 {
	var total int64
	for _, w := range p.workers {
		total += w.Processed()
	}
	return total
}

// Wait blocks until every worker has returned or ctx ends. Callers close the
// queue first so that workers drain it and exit.
func (p *Pool) Wait(ctx context.Context) error {
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("wait for workers: %w", ctx.Err())
		}
	}
	return nil
}
