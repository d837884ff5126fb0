package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	collector := NewCollector()
	collector.ProcessStarted()
	collector.ProcessStarted()
	collector.ProcessFinished("completed")
	collector.ThreadStarted()
	collector.JobExecuted("A", 5*time.Millisecond, nil)
	collector.JobExecuted("A", 5*time.Millisecond, errors.New("boom"))
	collector.Escalated("execution", "job")
	collector.Loaded("db", time.Millisecond, nil)
	collector.Cleaned("db", errors.New("close"))

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.processesStarted))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.processesLive))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.processesFinished.WithLabelValues("completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.threadsLive))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.jobsExecuted.WithLabelValues("A", "failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.escalations.WithLabelValues("execution", "job")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.resourceLoads.WithLabelValues("db", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.resourceCleanups.WithLabelValues("db", "failure")))
}

func TestCollector_Nil(t *testing.T) {
	var collector *Collector
	assert.NotPanics(t, func() {
		collector.ProcessStarted()
		collector.JobExecuted("A", time.Second, nil)
		collector.Loaded("db", time.Second, nil)
	})
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector()
	collector.ProcessStarted()
	recorder := httptest.NewRecorder()
	collector.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "jobflow_processes_started_total 1")
}
