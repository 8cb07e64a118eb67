package probepool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"firemaps/pkg/logger"
	"firemaps/pkg/ratelimit"
)

// Job is one URL to probe
type Job struct {
	Label string
	URL   string
}

// Result is the outcome of probing one Job. Status is 0 when no HTTP
// response was received.
type Result struct {
	Job      Job
	Status   int
	Method   string
	Error    error
	Duration time.Duration
}

// OK reports whether the probe got a 200
func (r Result) OK() bool {
	return r.Error == nil && r.Status == 200
}

// Prober performs a single reachability check
type Prober interface {
	Probe(ctx context.Context, url string) (status int, method string, err error)
}

// Pool runs probes on a fixed number of workers
type Pool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	prober      Prober
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// New creates a pool. rateLimiter may be nil for no limit.
func New(
	ctx context.Context,
	numWorkers int,
	prober Prober,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		prober:      prober,
		rateLimiter: rateLimiter,
		logger:      log,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.logger.DebugWithFields("Starting probe pool", map[string]interface{}{
		"num_workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop waits for queued jobs to finish and closes Results. Results must be
// drained concurrently or Stop blocks.
func (p *Pool) Stop() {
	close(p.jobQueue)
	p.wg.Wait()
	close(p.resultQueue)
	p.cancel()
}

// Submit queues a job, blocking while the queue is full
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("probe pool is shutting down: %w", p.ctx.Err())
	}
}

// Results returns the channel completed probes are delivered on, in
// completion order
func (p *Pool) Results() <-chan Result {
	return p.resultQueue
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		result := p.process(job, id)

		select {
		case p.resultQueue <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) process(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	if p.rateLimiter != nil {
		if err := p.rateLimiter.Wait(p.ctx); err != nil {
			result.Error = err
			result.Duration = time.Since(start)
			return result
		}
	}

	result.Status, result.Method, result.Error = p.prober.Probe(p.ctx, job.URL)
	result.Duration = time.Since(start)

	p.logger.DebugWithFields("Probe finished", map[string]interface{}{
		"worker_id": workerID,
		"label":     job.Label,
		"status":    result.Status,
		"method":    result.Method,
		"duration":  result.Duration,
	})
	return result
}
