package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/jobflow/model/graph"
)

// Pool keeps idle instances of one pooled resource type
type Pool struct {
	name    string
	maxIdle int
	cleanup graph.CleanupFunc
	idle    []interface{}
	closed  bool
	mu      sync.Mutex
}

// NewPool creates a pool for definition
func NewPool(definition *graph.Resource, maxIdle int) *Pool {
	return &Pool{name: definition.Name, maxIdle: maxIdle, cleanup: definition.Cleanup}
}

// Acquire takes an idle instance
func (p *Pool) Acquire() (interface{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.idle) == 0 {
		return nil, false
	}
	last := len(p.idle) - 1
	ret := p.idle[last]
	p.idle[last] = nil
	p.idle = p.idle[:last]
	return ret, true
}

// Release returns an instance; instances beyond capacity are cleaned up
func (p *Pool) Release(ctx context.Context, value interface{}) error {
	p.mu.Lock()
	if !p.closed && len(p.idle) < p.maxIdle {
		p.idle = append(p.idle, value)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.destroy(ctx, value)
}

// Drain closes the pool and cleans every idle instance
func (p *Pool) Drain(ctx context.Context) []error {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.closed = true
	p.mu.Unlock()
	var errs []error
	for _, value := range idle {
		if err := p.destroy(ctx, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Size returns the number of idle instances
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

func (p *Pool) destroy(ctx context.Context, value interface{}) error {
	if p.cleanup == nil {
		return nil
	}
	if err := runCleanup(ctx, p.cleanup, value); err != nil {
		return fmt.Errorf("cleanup %v: %w", p.name, err)
	}
	return nil
}
