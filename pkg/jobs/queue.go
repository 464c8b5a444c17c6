package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueClosed is returned when enqueueing on a queue that is not accepting work.
var ErrQueueClosed = errors.New("queue closed")

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// ResultHook observes the final outcome of a job: nil after success, the last error once retries are exhausted.
type ResultHook func(Job, error)

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
	OnResult   ResultHook
}

// Queue is an in-memory job dispatcher backed by goroutines with bounded retries.
type Queue struct {
	name    string
	handler Handler

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.SugaredLogger
	onResult   ResultHook

	jobs     chan Job
	ctx      context.Context
	cancel   context.CancelFunc
	workerWG sync.WaitGroup
	pushers  sync.WaitGroup
	inflight sync.WaitGroup
	mu       sync.RWMutex
	started  bool
	closed   bool
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger.Sugar(),
		onResult:   cfg.OnResult,
		jobs:       make(chan Job, cfg.BufferSize),
	}
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Start begins worker consumption. Subsequent calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.workerWG.Add(1)
		go q.worker(i + 1)
	}
	q.started = true
	q.logger.Infow("queue started", "queue", q.name, "workers", q.workers)
}

// Shutdown stops accepting jobs and waits for in-flight and buffered jobs, including
// pending retries, until ctx expires. Workers are cancelled afterwards either way and
// jobs left in the buffer are reported to the result hook with the shutdown error.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.started || q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		q.inflight.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
	case <-ctx.Done():
		err = fmt.Errorf("queue %s shutdown: %w", q.name, ctx.Err())
	}
	q.cancel()
	q.workerWG.Wait()
	q.pushers.Wait()
	if dropped := q.discardBuffered(err); dropped > 0 {
		q.logger.Warnw("queue dropped buffered jobs", "queue", q.name, "jobs", dropped)
	}
	<-drained
	q.logger.Infow("queue stopped", "queue", q.name)
	return err
}

// discardBuffered finishes every job still in the buffer. Workers and pushers must be stopped.
func (q *Queue) discardBuffered(cause error) int {
	if cause == nil {
		cause = fmt.Errorf("queue %s: %w", q.name, ErrQueueClosed)
	}
	dropped := 0
	for {
		select {
		case job := <-q.jobs:
			q.finish(job, cause)
			dropped++
		default:
			return dropped
		}
	}
}

// Enqueue pushes a job onto the queue without blocking past ctx.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	if !q.started || q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueClosed)
	}
	q.inflight.Add(1)
	q.pushers.Add(1)
	q.mu.RUnlock()
	defer q.pushers.Done()

	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	if err := q.push(ctx, job); err != nil {
		q.inflight.Done()
		return err
	}
	return nil
}

func (q *Queue) push(ctx context.Context, job Job) error {
	if err := q.ctx.Err(); err != nil {
		return fmt.Errorf("queue %s stopped: %w", q.name, err)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue %s: %w", q.name, ctx.Err())
	case <-q.ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, q.ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) worker(workerID int) {
	defer q.workerWG.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			err := q.handler(q.ctx, job)
			if err == nil {
				q.finish(job, nil)
				continue
			}
			q.handleFailure(workerID, job, err)
		}
	}
}

func (q *Queue) handleFailure(workerID int, job Job, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.logger.Errorw("job exceeded retries", "queue", q.name, "worker", workerID, "job_id", job.ID, "type", job.Type, "error", err)
		q.finish(job, err)
		return
	}
	q.logger.Warnw("job failed, retrying", "queue", q.name, "worker", workerID, "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "error", err)

	q.workerWG.Add(1)
	go func(j Job) {
		defer q.workerWG.Done()
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.finish(j, q.ctx.Err())
		case <-timer.C:
			if pushErr := q.push(q.ctx, j); pushErr != nil {
				q.logger.Errorw("failed to requeue job", "queue", q.name, "job_id", j.ID, "error", pushErr)
				q.finish(j, pushErr)
			}
		}
	}(job)
}

func (q *Queue) finish(job Job, err error) {
	if q.onResult != nil {
		q.onResult(job, err)
	}
	q.inflight.Done()
}
