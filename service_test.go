package jobflow

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jobflow/model"
	"github.com/viant/jobflow/model/graph"
	"github.com/viant/jobflow/policy"
	"github.com/viant/jobflow/runtime/execution"
	"github.com/viant/jobflow/service/dao"
	"github.com/viant/jobflow/service/escalation"
	"github.com/viant/jobflow/service/event"
	"github.com/viant/jobflow/service/team"
)

func demoGraph(cleanups *int32) *model.Graph {
	return model.NewGraph("demo").
		AddResource(&graph.Resource{
			Name:  "conn",
			Scope: graph.ScopeProcess,
			CreateAsync: func(ctx context.Context, ready func(interface{}, error)) {
				go func() {
					time.Sleep(5 * time.Millisecond)
					ready("conn", nil)
				}()
			},
			Cleanup: func(ctx context.Context, value interface{}) error {
				atomic.AddInt32(cleanups, 1)
				return nil
			},
		}).
		AddJob(
			graph.NewJob("extract", func(ctx context.Context, job graph.JobContext) error {
				job.SetOutput(job.Parameter().(int) * 2)
				return nil
			}).WithResources("conn").WithTeam("elastic").WithNext("load"),
			graph.NewJob("load", func(ctx context.Context, job graph.JobContext) error {
				if job.Parameter() != 42 {
					return errors.New("unexpected input")
				}
				return nil
			}).WithResources("conn").WithTeam("io").WithPre(graph.NewLogDuty("audit")),
		)
}

func newService(t *testing.T, config *Config, options ...Option) *Service {
	options = append([]Option{
		WithConfig(config),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithTeams(team.NewPool("io", 2, 4, time.Second, nil)),
	}, options...)
	srv, err := New(context.Background(), options...)
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	return srv
}

func TestService_Run(t *testing.T) {
	testCases := []struct {
		description string
		store       StoreConfig
	}{
		{description: "memory store", store: StoreConfig{Driver: StoreMemory}},
		{description: "fs store", store: StoreConfig{Driver: StoreFS, URL: filepath.Join(t.TempDir(), "records")}},
		{description: "sqlite store", store: StoreConfig{Driver: StoreSQLite, URL: filepath.Join(t.TempDir(), "records.db")}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			config := DefaultConfig()
			config.Store = testCase.store
			config.Metrics.Enabled = true
			srv := newService(t, config)
			var cleanups int32

			engine, err := srv.Engine(demoGraph(&cleanups))
			require.NoError(t, err)
			ctx := context.Background()
			process, err := engine.Invoke(ctx, "extract", 21)
			require.NoError(t, err)
			outcome, err := process.Wait(ctx)
			require.NoError(t, err)
			assert.Equal(t, execution.StateCompleted, outcome.State)
			assert.EqualValues(t, 1, atomic.LoadInt32(&cleanups))

			record, err := srv.Records().Load(ctx, process.ID)
			require.NoError(t, err)
			assert.Equal(t, "demo", record.Graph)
			assert.Equal(t, 2, record.Jobs)
			records, err := srv.Records().List(ctx, dao.NewParameter("State", "completed"))
			require.NoError(t, err)
			assert.Len(t, records, 1)

			_, err = srv.Process(ctx, process.ID)
			assert.ErrorIs(t, err, dao.ErrNotFound)
			series, err := testutil.GatherAndCount(srv.Metrics().Registry(), "jobflow_jobs_executed_total")
			require.NoError(t, err)
			assert.Equal(t, 2, series)
		})
	}
}

func TestService_PolicyAndDefaultHandler(t *testing.T) {
	config := DefaultConfig()
	config.Policy = &policy.Config{BlockList: []string{"load"}}
	var failures []*escalation.Failure
	srv := newService(t, config, WithDefaultHandler(func(ctx context.Context, failure *escalation.Failure) {
		failures = append(failures, failure)
	}))
	var cleanups int32

	outcome, err := srv.Run(context.Background(), demoGraph(&cleanups), "extract", 21)
	require.NoError(t, err)
	assert.Equal(t, execution.StateFailed, outcome.State)
	assert.ErrorIs(t, outcome.Err, policy.ErrDenied)
	require.Len(t, failures, 1)
	assert.Equal(t, graph.FailureDuty, failures[0].Kind)
	assert.EqualValues(t, 1, atomic.LoadInt32(&cleanups))
}

func TestNewLogger(t *testing.T) {
	buffer := &bytes.Buffer{}
	logger, err := NewLogger(LogConfig{Level: "warn", Format: "json"}, buffer)
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept", "job", "extract")
	assert.NotContains(t, buffer.String(), "dropped")
	assert.Contains(t, buffer.String(), `"job":"extract"`)

	_, err = NewLogger(LogConfig{Level: "verbose"}, buffer)
	assert.Error(t, err)
}

func TestService_EventListener(t *testing.T) {
	var mux sync.Mutex
	var received []event.Type
	srv, err := New(context.Background(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithTeams(team.NewPool("io", 1, 4, time.Second, nil)),
		WithEventListener(func(e *event.Event[any]) {
			mux.Lock()
			received = append(received, e.Context.EventType)
			mux.Unlock()
		}))
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	var cleanups int32

	outcome, err := srv.Run(context.Background(), demoGraph(&cleanups), "extract", 21)
	require.NoError(t, err)
	require.Equal(t, execution.StateCompleted, outcome.State)
	require.NoError(t, srv.Shutdown(context.Background()))

	mux.Lock()
	defer mux.Unlock()
	assert.Equal(t, []event.Type{event.ProcessStarted, event.JobCompleted, event.JobCompleted, event.ProcessFinished}, received)
}
