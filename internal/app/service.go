// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	eventqueue "github.com/okian/smarthire/internal/adapters/mq/queue"
	workerpool "github.com/okian/smarthire/internal/adapters/mq/worker"
	repository "github.com/okian/smarthire/internal/adapters/repository"
	"github.com/okian/smarthire/internal/adapters/repository/memstore"
	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/internal/domain/scoring"
	"github.com/okian/smarthire/internal/ingest"
	"github.com/okian/smarthire/pkg/logger"
	"github.com/okian/smarthire/pkg/metrics"
)

// Defaults applied by New.
const (
	DefaultQueueSize         = 10_000
	DefaultMinutesSavedPerCV = 10
	DefaultMaxListLimit      = 1000
)

// Service implements the API dependencies for the screening system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	scorer    scoring.Scorer
	validator *ingest.Validator
	reader    *ingest.Reader
	processor *workerpool.Processor
	queue     *eventqueue.InMemoryQueue
	pool      *workerpool.Pool
	runCtx    context.Context //nolint:containedctx // lifetime of the worker pool
	cancel    context.CancelFunc

	// Configuration
	workerCount   int
	queueSize     int
	minutesPerCV  int
	maxListLimit  int
	readerOptions []ingest.ReaderOption

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend. The default is an empty memstore.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithScorer replaces the default match scorer.
func WithScorer(scorer scoring.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithValidator sets the record validator used by Upload and Score.
func WithValidator(v *ingest.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of buffered ingestion jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMinutesSavedPerCV sets the screening time each processed CV is credited with.
func WithMinutesSavedPerCV(minutes int) Option {
	return func(s *Service) {
		if minutes >= 0 {
			s.minutesPerCV = minutes
		}
	}
}

// WithMaxListLimit caps how many candidates one listing returns.
func WithMaxListLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxListLimit = limit
		}
	}
}

// WithCSVComma sets the field delimiter of uploaded files.
func WithCSVComma(r rune) Option {
	return func(s *Service) {
		s.readerOptions = append(s.readerOptions, ingest.WithComma(r))
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

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    DefaultQueueSize,
		minutesPerCV: DefaultMinutesSavedPerCV,
		maxListLimit: DefaultMaxListLimit,
		logger:       logger.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = memstore.New()
	}
	if s.scorer == nil {
		s.scorer = scoring.NewMatchScorer()
	}
	s.reader = ingest.NewReader(s.readerOptions...)
	s.processor = workerpool.NewProcessor(s.scorer, s.store)
	s.logger = s.logger.Named("service")

	return s
}

// Start initializes the queue and worker pool. Calling it twice is a no-op.
// The pool keeps running when ctx is canceled; only Stop ends it, so uploads
// in flight during a shutdown still get every row processed.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting screening service...")

	if s.validator == nil {
		v, err := ingest.NewValidator()
		if err != nil {
			return fmt.Errorf("start service: %w", err)
		}
		s.validator = v
	}

	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.processor, s.logger)
	s.runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.pool.Start(s.runCtx)

	s.started = true
	s.refreshStoreGauges(ctx)
	metrics.UpdateQueueSize(0)
	s.logger.Info(ctx, "screening service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
	)

	return nil
}

// Stop closes the queue and waits for the workers to drain it. When ctx
// expires first the workers are canceled and every job still buffered is
// reported as failed, so no upload waits on it. The store is left open for
// its owner to close.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	pool, q, cancel := s.pool, s.queue, s.cancel
	s.queue = nil
	s.pool = nil
	s.runCtx = nil
	s.cancel = nil
	s.started = false
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping screening service...")

	err := pool.Shutdown(ctx)
	cancel()
	if n := q.Drain(); n > 0 {
		s.logger.Warn(ctx, "jobs dropped at shutdown", logger.Int("jobs", n))
	}

	if err != nil {
		return fmt.Errorf("stop service: %w", err)
	}
	s.logger.Info(ctx, "screening service stopped")
	return nil
}

// Started reports whether Start has run.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Ping checks the persistence backend.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// enqueue hands a job to the pool. It reports false when the service is not
// started, the pool is stopping or the queue cannot take the job; the caller
// then processes inline.
func (s *Service) enqueue(ctx context.Context, job eventqueue.Job) bool { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	s.mu.RLock()
	q, runCtx := s.queue, s.runCtx
	s.mu.RUnlock()

	if q == nil || runCtx.Err() != nil {
		return false
	}
	return q.Enqueue(ctx, job)
}

func (s *Service) recordValidator() (*ingest.Validator, error) {
	s.mu.RLock()
	v := s.validator
	s.mu.RUnlock()
	if v != nil {
		return v, nil
	}

	v, err := ingest.NewValidator()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.validator == nil {
		s.validator = v
	}
	v = s.validator
	s.mu.Unlock()
	return v, nil
}

// notify stores a notification. Failures are logged, never returned: the
// operation that triggered it has already succeeded.
func (s *Service) notify(ctx context.Context, kind model.NotificationType, msg string) {
	_, err := s.store.CreateNotification(ctx, model.Notification{Message: msg, Type: kind})
	if err != nil {
		metrics.RecordErrorByComponent("service", "notification")
		s.logger.Error(ctx, "failed to store notification",
			logger.String("type", string(kind)),
			logger.Error(err),
		)
		return
	}
	metrics.RecordNotification(string(kind))
}

// RefreshGauges updates the candidate, active-position and queue gauges.
func (s *Service) RefreshGauges(ctx context.Context) {
	s.refreshStoreGauges(ctx)

	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q != nil {
		metrics.UpdateQueueSize(q.Len(ctx))
	}
}

func (s *Service) refreshStoreGauges(ctx context.Context) {
	if n, err := s.store.CountCandidates(ctx, repository.CandidateFilter{}); err == nil {
		metrics.UpdateTotalCandidates(n)
	}
	if ps, err := s.store.ListPositions(ctx, true); err == nil {
		metrics.UpdateActivePositions(len(ps))
	}
}
