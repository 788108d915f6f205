package worker

import (
	"context"
	"sync"
)

// Job is a unit of work producing an R
type Job[R any] func(ctx context.Context) R

// Pool runs jobs on a fixed number of goroutines
type Pool[R any] struct {
	workers   int
	jobs      chan Job[R]
	results   chan R
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeJobs sync.Once
	closeOnce sync.Once
}

// NewPool creates a pool bound to ctx; cancelling ctx stops the workers
func NewPool[R any](ctx context.Context, workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Pool[R]{
		workers: workers,
		jobs:    make(chan Job[R], workers*2),
		results: make(chan R, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers
func (p *Pool[R]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
}

func (p *Pool[R]) work() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			result := job(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. It reports false once the pool has been cancelled.
func (p *Pool[R]) Submit(job Job[R]) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// Close stops accepting jobs. Results is closed once the queued jobs finish.
// Submit must not be called after Close.
func (p *Pool[R]) Close() {
	p.closeJobs.Do(func() {
		close(p.jobs)
		go func() {
			p.wg.Wait()
			p.closeResults()
		}()
	})
}

// Results streams job results in completion order
func (p *Pool[R]) Results() <-chan R {
	return p.results
}

// Wait closes the pool and collects every result.
// Use Close and Results instead when submitting more jobs than 2x workers.
func (p *Pool[R]) Wait() []R {
	p.Close()

	var results []R
	for r := range p.results {
		results = append(results, r)
	}
	p.cancel()
	return results
}

// Shutdown cancels running jobs and stops the workers
func (p *Pool[R]) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool[R]) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
