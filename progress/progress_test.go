package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress_Update(t *testing.T) {
	var observed []Progress
	ctx, tracker := WithNewTracker(context.Background(), "p1", "orders", func(p Progress) {
		observed = append(observed, p)
	})
	UpdateCtx(ctx, Delta{Total: 1, Running: 1, Threads: 1})
	UpdateCtx(ctx, Delta{Running: -1, Completed: 1, Threads: -1})

	snapshot, ok := GetSnapshot(ctx)
	require.True(t, ok)
	assert.Equal(t, "p1", snapshot.ProcessID)
	assert.Equal(t, 1, snapshot.TotalJobs)
	assert.Equal(t, 1, snapshot.CompletedJobs)
	assert.Equal(t, 0, snapshot.RunningJobs)
	assert.Equal(t, 0, snapshot.LiveThreads)
	require.Len(t, observed, 2)
	assert.Equal(t, 1, observed[0].RunningJobs)
	assert.Same(t, tracker, mustTracker(t, ctx))
}

func TestProgress_Concurrent(t *testing.T) {
	_, tracker := WithNewTracker(context.Background(), "p2", "g", nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Update(Delta{Total: 1, Escalations: 1})
		}()
	}
	wg.Wait()
	snapshot := tracker.Snapshot()
	assert.Equal(t, 50, snapshot.TotalJobs)
	assert.Equal(t, 50, snapshot.Escalations)
}

func TestProgress_Nil(t *testing.T) {
	var tracker *Progress
	tracker.Update(Delta{Total: 1})
	assert.Equal(t, Progress{}, tracker.Snapshot())
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

func mustTracker(t *testing.T, ctx context.Context) *Progress {
	ret, ok := FromContext(ctx)
	require.True(t, ok)
	return ret
}
