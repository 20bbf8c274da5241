// Package service owns the contact submission observer: a bounded queue
// drained by a worker pool into a sink.
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	eventqueue "github.com/okian/auscript/internal/adapters/mq/queue"
	workerpool "github.com/okian/auscript/internal/adapters/mq/worker"
	"github.com/okian/auscript/internal/domain/contact"
	"github.com/okian/auscript/pkg/logger"
	"github.com/okian/auscript/pkg/metrics"
)

// ErrNotStarted is returned by Observe before Start or after Stop.
var ErrNotStarted = errors.New("service not started")

// Service implements the observer used by the contact handler.
type Service struct {
	mu sync.RWMutex

	queue *eventqueue.InMemoryQueue
	pool  *workerpool.Pool
	sink  workerpool.Sink

	workerCount int
	queueSize   int

	started  bool
	observed atomic.Int64
	dropped  atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSink replaces the default log sink.
func WithSink(sink workerpool.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: 2,
		queueSize:   1024,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("observer")
	}
	if s.sink == nil {
		s.sink = workerpool.NewLogSink(s.logger)
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.sink)
	// Workers outlive the request that started them; Stop ends them by closing the queue.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "submission observer started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop closes the queue and waits for workers to drain it or ctx to end.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	_ = s.queue.Close()
	err := s.pool.Wait(ctx)
	s.logger.Info(ctx, "submission observer stopped",
		logger.Int("observed", int(s.pool.Processed())),
	)
	return err
}

// Observe hands sub to the workers without blocking. A full queue is not
// an error for the caller's request; it is reported and counted.
func (s *Service) Observe(ctx context.Context, sub contact.Submission) error { //nolint:gocritic // hugeParam
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics.RecordSubmission(sub.Kind.String())
	if !s.started {
		s.drop(ctx, sub, "not_started")
		return ErrNotStarted
	}
	if err := s.queue.Enqueue(ctx, sub); err != nil {
		reason := "queue_full"
		if errors.Is(err, eventqueue.ErrStopped) {
			reason = "stopped"
		}
		s.drop(ctx, sub, reason)
		return err
	}
	s.observed.Add(1)
	return nil
}

func (s *Service) drop(ctx context.Context, sub contact.Submission, reason string) { //nolint:gocritic // hugeParam
	s.dropped.Add(1)
	metrics.RecordSubmissionDropped(reason)
	if s.logger != nil {
		s.logger.Warn(ctx, "contact submission dropped",
			logger.String("id", sub.ID),
			logger.String("reason", reason),
		)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"observed":    s.observed.Load(),
		"dropped":     s.dropped.Load(),
		"queueLength": 0,
	}
	if s.queue != nil {
		stats["queueLength"] = s.queue.Len(context.Background())
	}
	if s.pool != nil {
		stats["processed"] = s.pool.Processed()
	}
	return stats
}
