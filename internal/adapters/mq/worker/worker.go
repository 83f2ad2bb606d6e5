// Package worker scores and stores ingestion jobs pulled from the queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/okian/smarthire/internal/adapters/mq/queue"
	"github.com/okian/smarthire/internal/domain/extract"
	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/internal/domain/scoring"
	"github.com/okian/smarthire/pkg/logger"
	"github.com/okian/smarthire/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Scorer computes a match result for extracted candidate fields.
type Scorer interface {
	Score(ctx context.Context, in scoring.Input, position *model.Position) (scoring.Result, error)
}

// Creator persists a scored candidate.
type Creator interface {
	CreateCandidate(ctx context.Context, c model.Candidate) (model.Candidate, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Processor turns one job into a stored candidate. It is shared by pool
// workers and by callers that process a job inline.
type Processor struct {
	scorer  Scorer
	creator Creator
	now     func() time.Time
}

// NewProcessor creates a Processor.
func NewProcessor(scorer Scorer, creator Creator) *Processor {
	return &Processor{scorer: scorer, creator: creator, now: time.Now}
}

// Evaluate extracts and scores rec against position without storing it. The
// candidate's position label is the record's own position when set, else the
// position's title.
func (p *Processor) Evaluate(ctx context.Context, rec model.Record, position model.Position) (model.Candidate, error) {
	label := strings.TrimSpace(rec.Position)
	if label == "" {
		label = position.Title
	}
	in := scoring.Input{
		Skills:           extract.Skills(rec.Skills),
		Experience:       extract.Experience(rec.Experience),
		DeclaredPosition: label,
	}

	start := time.Now()
	res, err := p.scorer.Score(ctx, in, &position)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		return model.Candidate{}, fmt.Errorf("score line %d: %w", rec.Line, err)
	}

	return model.Candidate{
		Name:       strings.TrimSpace(rec.Name),
		Email:      strings.TrimSpace(rec.Email),
		Position:   label,
		Skills:     in.Skills,
		Experience: in.Experience,
		Score:      res.Score,
		Status:     res.Status,
		CreatedAt:  p.now().UTC(),
	}, nil
}

// Process evaluates the job's record and stores the result.
func (p *Processor) Process(ctx context.Context, job queue.Job) queue.Outcome { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	out := queue.Outcome{Line: job.Record.Line}

	c, err := p.Evaluate(ctx, job.Record, job.Position)
	if err != nil {
		out.Err = err
		return out
	}

	c, err = p.creator.CreateCandidate(ctx, c)
	if err != nil {
		out.Err = fmt.Errorf("store line %d: %w", job.Record.Line, err)
		return out
	}

	metrics.RecordCandidateScored(c.Score, string(c.Status))
	out.Candidate = c
	return out
}

// Worker processes jobs until its queue closes or it is stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing jobs.
type InMemoryWorker struct {
	queue     Queue
	processor *Processor
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, p *Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: p,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.NewNop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.handle(ctx, job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) handle(ctx context.Context, job queue.Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	out := w.processor.Process(ctx, job)
	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)

	if out.Err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "process")
		w.logger.Warn(ctx, "job failed",
			logger.String("batch_id", job.BatchID),
			logger.Int("line", job.Record.Line),
			logger.Error(out.Err),
		)
	}

	if job.Result != nil {
		job.Result <- out
	}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  atomic.Int32
	logger  logger.Logger
}

// NewPool creates a new worker pool. workerCount < 1 selects a CPU-based default.
func NewPool(workerCount int, q Queue, p *Processor, log logger.Logger) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	if log == nil {
		log = logger.NewNop()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  log.Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, p,
			WithLogger(log),
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.active.Add(1)
		go func(w *InMemoryWorker) {
			defer func() {
				metrics.UpdateWorkerActiveCount(int(p.active.Add(-1)))
			}()
			w.Run(ctx)
		}(w)
	}
	metrics.UpdateWorkerActiveCount(int(p.active.Load()))
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	// Closing the queue lets workers finish what is buffered; they exit on their own.
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("pool shutdown: %w", shutdownCtx.Err())
		}
	}

	return nil
}
