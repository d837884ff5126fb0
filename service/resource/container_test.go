package resource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jobflow/model/graph"
)

func TestContainer_EnsureReady_Coalesces(t *testing.T) {
	var created int32
	release := make(chan struct{})
	definition := &graph.Resource{
		Name:  "conn",
		Scope: graph.ScopeProcess,
		CreateAsync: func(ctx context.Context, ready func(interface{}, error)) {
			atomic.AddInt32(&created, 1)
			go func() {
				<-release
				ready("connection", nil)
			}()
		},
	}
	container := New()
	lock := &sync.Mutex{}
	scope := NewScope(graph.ScopeProcess, "p1", lock)

	const waiters = 5
	var notified []int
	var resumed []int
	var resumedMu sync.Mutex
	done := make(chan struct{})
	var starts []func()
	lock.Lock()
	object, err := scope.Object(definition)
	require.NoError(t, err)
	for i := 0; i < waiters; i++ {
		i := i
		ready, start := container.EnsureReady(context.Background(), object, func() func() {
			notified = append(notified, i)
			return func() {
				resumedMu.Lock()
				resumed = append(resumed, i)
				if len(resumed) == waiters {
					close(done)
				}
				resumedMu.Unlock()
			}
		})
		assert.False(t, ready)
		if start != nil {
			starts = append(starts, start)
		}
	}
	lock.Unlock()
	require.Len(t, starts, 1)
	starts[0]()
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiters were not notified")
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&created))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, notified)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, resumed)

	lock.Lock()
	value, err := object.Value()
	ready, start := container.EnsureReady(context.Background(), object, func() func() { return nil })
	lock.Unlock()
	assert.NoError(t, err)
	assert.Equal(t, "connection", value)
	assert.True(t, ready)
	assert.Nil(t, start)
}

func TestContainer_Cleanup_Once(t *testing.T) {
	var cleaned int32
	definition := &graph.Resource{
		Name:   "buffer",
		Scope:  graph.ScopeThread,
		Create: func(ctx context.Context) (interface{}, error) { return []byte{}, nil },
		Cleanup: func(ctx context.Context, value interface{}) error {
			atomic.AddInt32(&cleaned, 1)
			return nil
		},
	}
	container := New()
	lock := &sync.Mutex{}
	scope := NewScope(graph.ScopeThread, "t1", lock)

	lock.Lock()
	for i := 0; i < 3; i++ {
		scope.Retain()
	}
	object, _ := scope.Object(definition)
	_, start := container.EnsureReady(context.Background(), object, func() func() { return nil })
	lock.Unlock()
	start()

	var released [][]*ManagedObject
	for i := 0; i < 4; i++ {
		lock.Lock()
		if objects, ok := scope.Release(); ok {
			released = append(released, objects)
		}
		lock.Unlock()
	}
	require.Len(t, released, 1)
	assert.Empty(t, container.Cleanup(context.Background(), released[0]))
	assert.Empty(t, container.Cleanup(context.Background(), released[0]))
	assert.EqualValues(t, 1, atomic.LoadInt32(&cleaned))

	lock.Lock()
	_, err := scope.Object(&graph.Resource{Name: "other"})
	lock.Unlock()
	assert.ErrorIs(t, err, ErrScopeClosed)
}

func TestContainer_LoadFailure(t *testing.T) {
	boom := errors.New("boom")
	definition := &graph.Resource{
		Name:   "db",
		Create: func(ctx context.Context) (interface{}, error) { return nil, boom },
	}
	container := New()
	lock := &sync.Mutex{}
	scope := NewScope(graph.ScopeProcess, "p", lock)
	lock.Lock()
	object, _ := scope.Object(definition)
	_, start := container.EnsureReady(context.Background(), object, func() func() { return nil })
	lock.Unlock()
	start()
	lock.Lock()
	defer lock.Unlock()
	_, err := object.Value()
	assert.ErrorIs(t, err, boom)
	objects, ok := scope.Release()
	assert.True(t, ok)
	assert.Empty(t, objects)
}

func TestContainer_LateArrivalIsCleaned(t *testing.T) {
	var cleaned int32
	var ready func(interface{}, error)
	definition := &graph.Resource{
		Name: "slow",
		CreateAsync: func(ctx context.Context, fn func(interface{}, error)) {
			ready = fn
		},
		Cleanup: func(ctx context.Context, value interface{}) error {
			atomic.AddInt32(&cleaned, 1)
			return nil
		},
	}
	container := New()
	lock := &sync.Mutex{}
	scope := NewScope(graph.ScopeJob, "j", lock)
	lock.Lock()
	object, _ := scope.Object(definition)
	_, start := container.EnsureReady(context.Background(), object, func() func() { return nil })
	lock.Unlock()
	start()

	lock.Lock()
	_, ok := scope.Release()
	lock.Unlock()
	require.True(t, ok)

	ready("late", nil)
	assert.EqualValues(t, 1, atomic.LoadInt32(&cleaned))
}

func TestContainer_Pooled(t *testing.T) {
	var created, cleaned int32
	definition := &graph.Resource{
		Name:   "worker",
		Pooled: true,
		Create: func(ctx context.Context) (interface{}, error) {
			return atomic.AddInt32(&created, 1), nil
		},
		Cleanup: func(ctx context.Context, value interface{}) error {
			atomic.AddInt32(&cleaned, 1)
			return nil
		},
	}
	container := New(WithConfig(Config{MaxIdle: 1}))
	for i := 0; i < 3; i++ {
		lock := &sync.Mutex{}
		scope := NewScope(graph.ScopeJob, "j", lock)
		lock.Lock()
		scope.Retain()
		object, _ := scope.Object(definition)
		_, start := container.EnsureReady(context.Background(), object, func() func() { return nil })
		lock.Unlock()
		if start != nil {
			start()
		}
		lock.Lock()
		value, err := object.Value()
		objects, ok := scope.Release()
		lock.Unlock()
		require.NoError(t, err)
		assert.EqualValues(t, 1, value)
		require.True(t, ok)
		assert.Empty(t, container.Cleanup(context.Background(), objects))
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&created))
	assert.Equal(t, 1, container.Pool(definition).Size())
	assert.NoError(t, container.Drain(context.Background()))
	assert.EqualValues(t, 1, atomic.LoadInt32(&cleaned))
	assert.Equal(t, 0, container.Pool(definition).Size())
}
