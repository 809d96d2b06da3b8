package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind names the back-office work a job performs. Every kind needs a handler
// registered before the queue starts.
type Kind string

const (
	// KindReportExport renders the CSV or PDF file of one report job.
	KindReportExport Kind = "report.export"
	// KindExportSweep purges export files past their retention.
	KindExportSweep Kind = "report.sweep"
)

// ErrUnknownKind is returned by Enqueue for a kind without a handler.
var ErrUnknownKind = errors.New("no handler for job kind")

// Job is a unit of background work. ID identifies the record the job acts on;
// a job whose kind and ID are already pending is not enqueued twice.
type Job struct {
	ID       string
	Kind     Kind
	Dataset  string
	Attempt  int
	Enqueued time.Time
}

func (j Job) key() string {
	return string(j.Kind) + ":" + j.ID
}

// Handler processes a job.
type Handler func(context.Context, Job) error

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying, e.g. the report record is gone.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue dispatches CRM jobs to per-kind handlers on a fixed worker pool.
// Failed jobs are retried after RetryDelay with Attempt incremented.
type Queue struct {
	name string
	cfg  QueueConfig

	handlers map[Kind]Handler
	pending  map[string]struct{}

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a queue with no handlers.
func NewQueue(name string, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:     name,
		cfg:      cfg,
		handlers: make(map[Kind]Handler),
		pending:  make(map[string]struct{}),
		jobs:     make(chan Job, cfg.BufferSize),
	}
}

// Handle registers the handler for kind. Registrations after Start are ignored.
func (q *Queue) Handle(kind Kind, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		q.cfg.Logger.Warn("handler registered after start", zap.String("queue", q.name), zap.String("kind", string(kind)))
		return
	}
	q.handlers[kind] = handler
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.cfg.Logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.cfg.Workers), zap.Int("kinds", len(q.handlers)))
}

// Stop cancels workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.cfg.Logger.Info("queue stopped", zap.String("queue", q.name))
}

// Enqueue pushes a job onto the queue. A job already pending is accepted
// without being queued again.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return fmt.Errorf("queue %s not started", q.name)
	}
	if _, ok := q.handlers[job.Kind]; !ok {
		q.mu.Unlock()
		return fmt.Errorf("queue %s: %w %q", q.name, ErrUnknownKind, job.Kind)
	}
	if _, dup := q.pending[job.key()]; dup {
		q.mu.Unlock()
		q.cfg.Logger.Debug("job already pending", zap.String("queue", q.name), zap.String("job_id", job.ID), zap.String("kind", string(job.Kind)))
		return nil
	}
	q.pending[job.key()] = struct{}{}
	q.mu.Unlock()

	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	if err := q.push(job); err != nil {
		q.done(job)
		return err
	}
	return nil
}

func (q *Queue) push(job Job) error {
	select {
	case <-q.ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, q.ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) done(job Job) {
	q.mu.Lock()
	delete(q.pending, job.key())
	q.mu.Unlock()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.mu.Lock()
			handler := q.handlers[job.Kind]
			q.mu.Unlock()
			if err := handler(q.ctx, job); err != nil {
				q.handleFailure(job, err)
				continue
			}
			q.done(job)
		}
	}
}

func (q *Queue) handleFailure(job Job, err error) {
	fields := []zap.Field{zap.String("queue", q.name), zap.String("job_id", job.ID), zap.String("kind", string(job.Kind)), zap.String("dataset", job.Dataset), zap.Error(err)}
	if IsPermanent(err) {
		q.done(job)
		q.cfg.Logger.Error("job failed permanently", fields...)
		return
	}
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.done(job)
		q.cfg.Logger.Error("job exceeded retries", fields...)
		return
	}
	q.cfg.Logger.Warn("job failed, retrying", append(fields, zap.Int("attempt", job.Attempt))...)

	go func(j Job) {
		timer := time.NewTimer(q.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.done(j)
		case <-timer.C:
			if err := q.push(j); err != nil {
				q.done(j)
				q.cfg.Logger.Error("failed to requeue job", zap.String("queue", q.name), zap.String("job_id", j.ID), zap.Error(err))
			}
		}
	}(job)
}
