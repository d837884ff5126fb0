package team

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeams_ExecuteExactlyOnce(t *testing.T) {
	testCases := []struct {
		description string
		config      Config
	}{
		{description: "passive", config: Config{Name: "inline"}},
		{description: "pool", config: Config{Name: "workers", Kind: KindPool, Workers: 3, QueueSize: 4}},
		{description: "elastic", config: Config{Name: "elastic", Kind: KindElastic}},
		{description: "bounded elastic", config: Config{Name: "bounded", Kind: KindElastic, MaxConcurrent: 2}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			ctx := context.Background()
			aTeam, err := New(testCase.config, nil)
			require.NoError(t, err)
			if lifecycle, ok := aTeam.(Lifecycle); ok {
				require.NoError(t, lifecycle.Start(ctx))
			}
			const count = 20
			var runs [count]int32
			var wg sync.WaitGroup
			wg.Add(count)
			for i := 0; i < count; i++ {
				i := i
				err := aTeam.Execute(ctx, NewFunc(fmt.Sprintf("a%d", i), func(ctx context.Context) {
					defer wg.Done()
					atomic.AddInt32(&runs[i], 1)
				}))
				require.NoError(t, err)
			}
			wg.Wait()
			for i := range runs {
				assert.EqualValues(t, 1, atomic.LoadInt32(&runs[i]), "assignment %d", i)
			}
			if lifecycle, ok := aTeam.(Lifecycle); ok {
				require.NoError(t, lifecycle.Stop(ctx))
				err = aTeam.Execute(ctx, NewFunc("late", func(ctx context.Context) {}))
				assert.ErrorIs(t, err, ErrStopped)
			}
		})
	}
}

func TestPool_NotStarted(t *testing.T) {
	pool := NewPool("idle", 1, 1, 0, nil)
	err := pool.Execute(context.Background(), NewFunc("a", func(ctx context.Context) {}))
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestPool_Saturated(t *testing.T) {
	ctx := context.Background()
	pool := NewPool("tiny", 1, 1, 10*time.Millisecond, nil)
	require.NoError(t, pool.Start(ctx))
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Execute(ctx, NewFunc("blocker", func(ctx context.Context) {
		close(started)
		<-release
	})))
	<-started
	require.NoError(t, pool.Execute(ctx, NewFunc("queued", func(ctx context.Context) {})))
	err := pool.Execute(ctx, NewFunc("rejected", func(ctx context.Context) {}))
	assert.ErrorIs(t, err, ErrSaturated)
	close(release)
	require.NoError(t, pool.Stop(ctx))
}

func TestPool_StopRunsAcceptedAssignments(t *testing.T) {
	for round := 0; round < 20; round++ {
		ctx := context.Background()
		pool := NewPool("drain", 2, 64, 0, nil)
		require.NoError(t, pool.Start(ctx))
		var accepted, ran int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := pool.Execute(ctx, NewFunc(fmt.Sprintf("a%d", i), func(ctx context.Context) {
					atomic.AddInt32(&ran, 1)
				}))
				if err == nil {
					atomic.AddInt32(&accepted, 1)
					return
				}
				assert.ErrorIs(t, err, ErrStopped)
			}(i)
		}
		require.NoError(t, pool.Stop(ctx))
		wg.Wait()
		assert.Equal(t, atomic.LoadInt32(&accepted), atomic.LoadInt32(&ran))
	}
}

func TestElastic_MaxConcurrent(t *testing.T) {
	ctx := context.Background()
	elastic := NewElastic("bounded", 2)
	var current, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, elastic.Execute(ctx, NewFunc(fmt.Sprint(i), func(ctx context.Context) {
			defer wg.Done()
			n := atomic.AddInt32(&current, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
		})))
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	require.NoError(t, elastic.Stop(ctx))
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(NewElastic("io", 0))
	aTeam, ok := registry.Lookup("io")
	assert.True(t, ok)
	assert.Equal(t, "io", aTeam.Name())

	aTeam, ok = registry.Lookup("")
	assert.True(t, ok)
	assert.Equal(t, PassiveName, aTeam.Name())

	_, ok = registry.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, PassiveName, registry.Team("missing").Name())

	require.NoError(t, registry.Start(context.Background()))
	require.NoError(t, registry.Stop(context.Background()))
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		description string
		config      Config
		expectErr   bool
	}{
		{description: "default kind", config: Config{Name: "a"}},
		{description: "missing name", config: Config{Kind: KindElastic}, expectErr: true},
		{description: "pool without workers", config: Config{Name: "p", Kind: KindPool}, expectErr: true},
		{description: "unknown kind", config: Config{Name: "x", Kind: "fork"}, expectErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			err := testCase.config.Validate()
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
