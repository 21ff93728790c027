package utils

import (
	"context"
	"sync"
	"time"
)

// WorkerPool runs jobs on a bounded number of goroutines and starts at most
// one job per interval.
type WorkerPool struct {
	semaphore chan struct{}
	throttle  *Throttle
	wg        sync.WaitGroup
}

// NewWorkerPool creates a WorkerPool with the given concurrency and start interval.
func NewWorkerPool(maxWorkers int, interval time.Duration) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		semaphore: make(chan struct{}, maxWorkers),
		throttle:  NewThrottle(interval),
	}
}

// Submit enqueues a job for execution in the pool. It blocks while all workers
// are busy and returns false without running job once ctx is done.
func (wp *WorkerPool) Submit(ctx context.Context, job func()) bool {
	select {
	case wp.semaphore <- struct{}{}:
	case <-ctx.Done():
		return false
	}

	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if err := wp.throttle.Wait(ctx); err != nil {
			return
		}
		job()
	}()
	return true
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}
