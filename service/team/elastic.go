package team

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Elastic starts a goroutine per assignment.  With a positive bound, at most
// MaxConcurrent assignments run at once; the rest wait for a slot on their own
// goroutine so Execute never blocks the caller.
type Elastic struct {
	name    string
	sem     *semaphore.Weighted
	stopped bool
	running sync.WaitGroup
	mux     sync.Mutex
	base    context.Context
	cancel  context.CancelFunc
}

// Name returns team name
func (e *Elastic) Name() string { return e.name }

// Execute schedules the assignment
func (e *Elastic) Execute(ctx context.Context, assignment Assignment) error {
	e.mux.Lock()
	if e.stopped {
		e.mux.Unlock()
		return fmt.Errorf("%v: %w", e.name, ErrStopped)
	}
	e.running.Add(1)
	e.mux.Unlock()
	go func() {
		defer e.running.Done()
		if e.sem != nil {
			if err := e.sem.Acquire(e.base, 1); err != nil {
				// stopped while waiting: the assignment still runs, unbounded
				assignment.Run(ctx)
				return
			}
			defer e.sem.Release(1)
		}
		assignment.Run(ctx)
	}()
	return nil
}

// Start is a no-op; elastic teams are usable right away
func (e *Elastic) Start(ctx context.Context) error {
	return nil
}

// Stop rejects new assignments and waits for running ones
func (e *Elastic) Stop(ctx context.Context) error {
	e.mux.Lock()
	e.stopped = true
	e.mux.Unlock()
	e.cancel()
	done := make(chan struct{})
	go func() {
		e.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewElastic creates an elastic team; maxConcurrent <= 0 means unbounded
func NewElastic(name string, maxConcurrent int) *Elastic {
	ret := &Elastic{name: name}
	if maxConcurrent > 0 {
		ret.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	ret.base, ret.cancel = context.WithCancel(context.Background())
	return ret
}
