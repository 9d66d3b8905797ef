// Package worker provides concurrency primitives for batch transforms and
// chat bot jobs.
package worker

import (
	"context"
	"sync"
)

// Semaphore provides a counting semaphore for controlling concurrency.
// It bounds how many ffmpeg or yt-dlp processes run at once.
type Semaphore struct {
	permits chan struct{}
}

// NewSemaphore creates a new semaphore with the given number of permits.
func NewSemaphore(count int) *Semaphore {
	if count <= 0 {
		count = 1
	}
	s := &Semaphore{
		permits: make(chan struct{}, count),
	}
	// Pre-fill the permits
	for i := 0; i < count; i++ {
		s.permits <- struct{}{}
	}
	return s
}

// Acquire blocks until a permit is available or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case <-s.permits:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a permit without blocking.
func (s *Semaphore) TryAcquire() bool {
	select {
	case <-s.permits:
		return true
	default:
		return false
	}
}

// Release returns a permit to the semaphore.
func (s *Semaphore) Release() {
	select {
	case s.permits <- struct{}{}:
	default:
		// Semaphore is full, this shouldn't happen in normal use
	}
}

// Chan returns the underlying permit channel for use with select.
// This allows context-aware acquisition of permits.
func (s *Semaphore) Chan() <-chan struct{} {
	return s.permits
}

// Available returns the number of free permits.
func (s *Semaphore) Available() int {
	return len(s.permits)
}

// Job is one unit of work run by Pool.
type Job func(ctx context.Context) error

// JobResult carries the outcome of the job at Index.
type JobResult struct {
	Index int
	Error error
}

// Run executes jobs with at most sem's permits in flight and returns one
// result per job, in job order. Jobs not started before ctx ends report
// ctx.Err().
func Run(ctx context.Context, sem *Semaphore, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	var wg sync.WaitGroup

	for i, job := range jobs {
		results[i].Index = i
		if err := sem.Acquire(ctx); err != nil {
			results[i].Error = err
			continue
		}
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			defer sem.Release()
			results[i].Error = job(ctx)
		}(i, job)
	}

	wg.Wait()
	return results
}
