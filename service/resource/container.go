package resource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/viant/jobflow/model/graph"
)

// Config represents resource container configuration
type Config struct {
	// MaxIdle is the default number of idle instances kept per pooled resource
	MaxIdle int `json:"maxIdle" yaml:"maxIdle"`
	// Pools overrides MaxIdle per resource name
	Pools map[string]int `json:"pools,omitempty" yaml:"pools,omitempty"`
}

// DefaultConfig returns the default container configuration
func DefaultConfig() Config {
	return Config{MaxIdle: 8}
}

// Observer is notified about loads and cleanups
type Observer interface {
	Loaded(resource string, took time.Duration, err error)
	Cleaned(resource string, err error)
}

// Option customises a Container
type Option func(c *Container)

// WithConfig sets the container configuration
func WithConfig(config Config) Option {
	return func(c *Container) {
		c.config = config
	}
}

// WithObserver sets the load/cleanup observer
func WithObserver(observer Observer) Option {
	return func(c *Container) {
		c.observer = observer
	}
}

// Container acquires, pools and cleans up managed objects
type Container struct {
	config   Config
	observer Observer
	pools    map[string]*Pool
	mux      sync.Mutex
}

// New creates a container
func New(options ...Option) *Container {
	ret := &Container{config: DefaultConfig(), pools: make(map[string]*Pool)}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// EnsureReady reports whether object is settled.  Otherwise notify is queued
// (waiters are notified in registration order) and, for the first caller
// only, start is returned; the caller must invoke it after releasing the scope
// lock to trigger the one underlying acquisition.
//
// Caller holds the scope lock.
func (c *Container) EnsureReady(ctx context.Context, object *ManagedObject, notify Notify) (ready bool, start func()) {
	if object.Settled() {
		return true, nil
	}
	object.waiters = append(object.waiters, notify)
	if object.state != stateIdle {
		return false, nil
	}
	object.state = stateLoading
	return false, func() { c.load(ctx, object) }
}

func (c *Container) load(ctx context.Context, object *ManagedObject) {
	definition := object.Definition
	started := time.Now()
	if definition.Pooled {
		if value, ok := c.Pool(definition).Acquire(); ok {
			c.resolve(ctx, object, value, nil, started)
			return
		}
	}
	if definition.IsAsync() {
		var once sync.Once
		ready := func(value interface{}, err error) {
			once.Do(func() { c.resolve(ctx, object, value, err, started) })
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					ready(nil, fmt.Errorf("panic: %v", r))
				}
			}()
			definition.CreateAsync(ctx, ready)
		}()
		return
	}
	value, err := create(ctx, definition.Create)
	c.resolve(ctx, object, value, err, started)
}

func (c *Container) resolve(ctx context.Context, object *ManagedObject, value interface{}, err error, started time.Time) {
	scope := object.scope
	scope.locker.Lock()
	if err != nil {
		object.state = stateFailed
		object.err = fmt.Errorf("failed to load %v: %w", object.Name(), err)
	} else {
		object.state = stateReady
		object.value = value
	}
	late := scope.closed && err == nil
	if err == nil && !late {
		scope.loaded = append(scope.loaded, object)
	}
	waiters := object.waiters
	object.waiters = nil
	var resumes []func()
	for _, notify := range waiters {
		if resume := notify(); resume != nil {
			resumes = append(resumes, resume)
		}
	}
	scope.locker.Unlock()

	if c.observer != nil {
		c.observer.Loaded(object.Name(), time.Since(started), err)
	}
	if late {
		_ = c.Cleanup(ctx, []*ManagedObject{object})
	}
	for _, resume := range resumes {
		resume()
	}
}

// Cleanup releases objects returned by Scope.Release in reverse load order.
// Pooled instances go back to their pool.  Called without the scope lock.
func (c *Container) Cleanup(ctx context.Context, objects []*ManagedObject) []error {
	var errs []error
	for i := len(objects) - 1; i >= 0; i-- {
		object := objects[i]
		if object.released {
			continue
		}
		object.released = true
		value := object.value
		object.value = nil
		definition := object.Definition
		var err error
		switch {
		case definition.Pooled:
			err = c.Pool(definition).Release(ctx, value)
		case definition.Cleanup != nil:
			if err = runCleanup(ctx, definition.Cleanup, value); err != nil {
				err = fmt.Errorf("cleanup %v: %w", definition.Name, err)
			}
		}
		if c.observer != nil {
			c.observer.Cleaned(definition.Name, err)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Pool returns the pool for a pooled definition
func (c *Container) Pool(definition *graph.Resource) *Pool {
	c.mux.Lock()
	defer c.mux.Unlock()
	if ret, ok := c.pools[definition.Name]; ok {
		return ret
	}
	maxIdle := c.config.MaxIdle
	if size, ok := c.config.Pools[definition.Name]; ok {
		maxIdle = size
	}
	ret := NewPool(definition, maxIdle)
	c.pools[definition.Name] = ret
	return ret
}

// Drain empties every pool
func (c *Container) Drain(ctx context.Context) error {
	c.mux.Lock()
	pools := make([]*Pool, 0, len(c.pools))
	for _, pool := range c.pools {
		pools = append(pools, pool)
	}
	c.mux.Unlock()
	var errs []error
	for _, pool := range pools {
		errs = append(errs, pool.Drain(ctx)...)
	}
	return errors.Join(errs...)
}

func create(ctx context.Context, fn graph.CreateFunc) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

func runCleanup(ctx context.Context, fn graph.CleanupFunc, value interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, value)
}
