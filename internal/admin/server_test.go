package admin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jobflow/metrics"
	"github.com/viant/jobflow/model"
	"github.com/viant/jobflow/model/graph"
	"github.com/viant/jobflow/runtime/execution"
	processdao "github.com/viant/jobflow/service/dao/process/memory"
	recorddao "github.com/viant/jobflow/service/dao/record/memory"
	"github.com/viant/jobflow/service/processor"
)

type interrupter struct {
	processIDs []string
}

func (i *interrupter) Interrupt(ctx context.Context, processID string, cause error) error {
	if processID != "p-1" {
		return processor.ErrNotRunning
	}
	i.processIDs = append(i.processIDs, processID)
	return nil
}

func newTestServer(t *testing.T) (*Server, *interrupter) {
	ctx := context.Background()
	aGraph := model.NewGraph("admin").AddJob(graph.NewJob("A", nil))
	processes := processdao.New()
	require.NoError(t, processes.Save(ctx, execution.NewProcess(ctx, "p-1", aGraph, "A", nil, nil, time.Now())))
	records := recorddao.New()
	require.NoError(t, records.Save(ctx, &execution.Record{ID: "r-1", Graph: "admin", State: "completed", CreatedAt: time.Now()}))
	require.NoError(t, records.Save(ctx, &execution.Record{ID: "r-2", Graph: "admin", State: "failed", CreatedAt: time.Now()}))
	collector := metrics.NewCollector()
	collector.ProcessStarted()
	anInterrupter := &interrupter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(":0", processes, records, logger, WithMetrics(collector.Handler()), WithInterrupter(anInterrupter)), anInterrupter
}

func TestServer_Routes(t *testing.T) {
	srv, anInterrupter := newTestServer(t)
	testCases := []struct {
		description  string
		method       string
		path         string
		expectStatus int
		expectBody   string
	}{
		{description: "health", method: http.MethodGet, path: "/healthz", expectStatus: http.StatusOK, expectBody: `"ok"`},
		{description: "metrics", method: http.MethodGet, path: "/metrics", expectStatus: http.StatusOK, expectBody: "jobflow_processes_started_total 1"},
		{description: "list processes", method: http.MethodGet, path: "/v1/processes", expectStatus: http.StatusOK, expectBody: `"id":"p-1"`},
		{description: "filter processes", method: http.MethodGet, path: "/v1/processes?state=failed", expectStatus: http.StatusOK, expectBody: `[]`},
		{description: "get process", method: http.MethodGet, path: "/v1/processes/p-1", expectStatus: http.StatusOK, expectBody: `"state":"running"`},
		{description: "missing process", method: http.MethodGet, path: "/v1/processes/p-2", expectStatus: http.StatusNotFound},
		{description: "interrupt", method: http.MethodPost, path: "/v1/processes/p-1/interrupt", expectStatus: http.StatusAccepted},
		{description: "interrupt finished", method: http.MethodPost, path: "/v1/processes/p-2/interrupt", expectStatus: http.StatusNotFound},
		{description: "get record", method: http.MethodGet, path: "/v1/records/r-2", expectStatus: http.StatusOK, expectBody: `"state":"failed"`},
		{description: "missing record", method: http.MethodGet, path: "/v1/records/r-3", expectStatus: http.StatusNotFound},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			srv.Router().ServeHTTP(recorder, httptest.NewRequest(testCase.method, testCase.path, nil))
			assert.Equal(t, testCase.expectStatus, recorder.Code)
			if testCase.expectBody != "" {
				assert.Contains(t, recorder.Body.String(), testCase.expectBody)
			}
		})
	}
	assert.Equal(t, []string{"p-1"}, anInterrupter.processIDs)
}

func TestServer_ListRecordsByState(t *testing.T) {
	srv, _ := newTestServer(t)
	recorder := httptest.NewRecorder()
	srv.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/records?state=completed", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	var records []*execution.Record
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "r-1", records[0].ID)
}

func TestServer_Run(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.addr = "127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
