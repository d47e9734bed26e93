package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueClosed is returned by Enqueue after Stop
var ErrQueueClosed = errors.New("dispatch: worker pool is stopped")

// ErrQueueFull is returned when the buffer is saturated. Callers treat this
// as a degraded-mode signal: the audit record already exists, so a later
// reconciliation sweep can reprocess the event.
var ErrQueueFull = errors.New("dispatch: worker queue is full")

// WorkerPool is a bounded in-process job queue. Each job gets its own
// timeout-scoped context so a stalled downstream call cannot pin a worker
// forever.
type WorkerPool struct {
	jobs       chan func(ctx context.Context)
	jobTimeout time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewWorkerPool starts workers goroutines consuming from a buffer of
// bufferSize jobs. jobTimeout bounds each job's context.
func NewWorkerPool(workers, bufferSize int, jobTimeout time.Duration, logger *zap.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 4
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if jobTimeout <= 0 {
		jobTimeout = 2 * time.Minute
	}

	p := &WorkerPool{
		jobs:       make(chan func(ctx context.Context), bufferSize),
		jobTimeout: jobTimeout,
		logger:     logger,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work(i)
	}
	return p
}

func (p *WorkerPool) work(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(id, job)
	}
}

func (p *WorkerPool) run(id int, job func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker recovered from panic",
				zap.Int("worker", id),
				zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), p.jobTimeout)
	defer cancel()
	job(ctx)
}

// Enqueue submits a job without blocking. Returns ErrQueueFull when the
// buffer is saturated and ErrQueueClosed after Stop.
func (p *WorkerPool) Enqueue(job func(ctx context.Context)) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrQueueClosed
	}
	select {
	case p.jobs <- job:
		p.mu.Unlock()
		return nil
	default:
		p.mu.Unlock()
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight jobs to finish, up to the
// context deadline.
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
