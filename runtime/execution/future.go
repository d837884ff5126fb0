package execution

import (
	"context"
	"sync"
)

// Future resolves once, with an optional error
type Future struct {
	done chan struct{}
	err  error
	once sync.Once
}

// Done returns a channel closed on resolution
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Err returns the resolution error
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Resolve settles the future; later calls are ignored
func (f *Future) Resolve(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Wait blocks until resolution or ctx is done
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewFuture creates an unresolved future
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}
