// Package worker runs jobs on a fixed number of goroutines pulling from a
// shared bounded queue.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrPoolNotStarted = errors.New("worker pool not started")
	ErrPoolClosed     = errors.New("worker pool is draining")
)

// Job represents a unit of work to be executed.
type Job interface {
	Execute(ctx context.Context) error
	ID() string
}

// Result records the outcome of one job.
type Result struct {
	JobID string
	Err   error
}

// Pool is a bounded task queue served by Size workers. Its lifecycle is
// Start, any number of Submit calls, then Drain.
type Pool struct {
	Size int

	queue   chan Job
	logger  logrus.FieldLogger
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	closed  bool

	resultsMu sync.Mutex
	results   []Result
}

// NewPool creates a pool of size workers whose queue holds up to queueSize
// pending jobs. Submit blocks while the queue is full.
func NewPool(size, queueSize int, logger logrus.FieldLogger) *Pool {
	if size < 1 {
		size = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Pool{
		Size:   size,
		queue:  make(chan Job, queueSize),
		logger: logger,
	}
}

// Start launches the workers. Jobs still queued after ctx is cancelled are
// not executed and report ctx's error.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 1; i <= p.Size; i++ {
		p.wg.Add(1)
		go p.work(ctx, i)
	}
	p.logger.Debugf("Worker pool started with %d workers", p.Size)
}

// work runs jobs until the queue is closed and empty.
func (p *Pool) work(ctx context.Context, id int) {
	defer p.wg.Done()
	log := p.logger.WithField("worker", id)

	for job := range p.queue {
		var err error
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else {
			log.Debugf("Started job %s", job.ID())
			err = job.Execute(ctx)
		}

		if err != nil {
			log.WithError(err).Warnf("Job %s failed", job.ID())
		} else {
			log.Debugf("Finished job %s", job.ID())
		}
		p.record(Result{JobID: job.ID(), Err: err})
	}
	log.Debug("Queue empty, worker stopping")
}

func (p *Pool) record(r Result) {
	p.resultsMu.Lock()
	defer p.resultsMu.Unlock()
	p.results = append(p.results, r)
}

// Submit enqueues job, blocking while the queue is full.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch {
	case !p.started:
		return ErrPoolNotStarted
	case p.closed:
		return ErrPoolClosed
	}
	p.queue <- job
	return nil
}

// Drain closes the queue, waits for every worker to finish the remaining
// jobs and returns the results in completion order.
func (p *Pool) Drain() []Result {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	p.wg.Wait()

	p.resultsMu.Lock()
	defer p.resultsMu.Unlock()
	out := make([]Result, len(p.results))
	copy(out, p.results)
	return out
}
