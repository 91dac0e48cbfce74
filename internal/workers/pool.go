// Package workers provides a pool for parallel fan-out of independent
// computations: partition candidates within one Phi evaluation, and
// configurations within a noise sweep.
package workers

import (
	"runtime"
	"sync"
)

// Pool manages a fixed number of worker goroutines for parallel batch work.
type Pool struct {
	numWorkers int
}

// NewPool creates a new worker pool with the specified number of workers.
// A non-positive count defaults to the number of CPUs.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{numWorkers: numWorkers}
}

// NumWorkers returns the configured worker count.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

type jobItem[T any] struct {
	index int
	item  T
}

type resultItem[R any] struct {
	index  int
	result R
	err    error
}

// Map applies fn to every item in parallel and returns results in input order.
// Items share no state; fn must be safe to call concurrently. If any call
// fails, the error of the lowest-index failing item is returned so that
// repeated runs on identical input fail identically.
func Map[T, R any](p *Pool, items []T, fn func(index int, item T) (R, error)) ([]R, error) {
	n := len(items)
	if n == 0 {
		return []R{}, nil
	}

	jobs := make(chan jobItem[T], n)
	results := make(chan resultItem[R], n)

	numWorkers := p.numWorkers
	if n < numWorkers {
		numWorkers = n
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				r, err := fn(job.index, job.item)
				results <- resultItem[R]{index: job.index, result: r, err: err}
			}
		}()
	}

	for idx, item := range items {
		jobs <- jobItem[T]{index: idx, item: item}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]R, n)
	var firstErr error
	firstErrIdx := n
	for r := range results {
		out[r.index] = r.result
		if r.err != nil && r.index < firstErrIdx {
			firstErr = r.err
			firstErrIdx = r.index
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
