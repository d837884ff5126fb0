// Package metrics exposes engine counters to Prometheus.
//
// Metrics:
//   - jobflow_processes_started_total, jobflow_processes_finished_total{state}
//   - jobflow_jobs_executed_total{job,result}, jobflow_job_duration_seconds{job}
//   - jobflow_escalations_total{kind,level}
//   - jobflow_resource_loads_total{resource,result}, jobflow_resource_load_seconds{resource}
//   - jobflow_resource_cleanups_total{resource,result}
//   - jobflow_processes_live, jobflow_threads_live
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobflow"

// Config controls metrics exposure
type Config struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// Collector owns a registry with every engine metric.  A nil *Collector is a
// valid no-op.
type Collector struct {
	registry          *prometheus.Registry
	processesStarted  prometheus.Counter
	processesFinished *prometheus.CounterVec
	jobsExecuted      *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
	escalations       *prometheus.CounterVec
	resourceLoads     *prometheus.CounterVec
	resourceLoadTime  *prometheus.HistogramVec
	resourceCleanups  *prometheus.CounterVec
	processesLive     prometheus.Gauge
	threadsLive       prometheus.Gauge
}

// NewCollector creates a collector with its own registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		processesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processes_started_total",
			Help:      "Total number of processes started",
		}),
		processesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processes_finished_total",
			Help:      "Total number of processes finished by final state",
		}, []string{"state"}),
		jobsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_executed_total",
			Help:      "Total number of job executions by result",
		}, []string{"job", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Job execution time in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Total number of escalations by failure kind and resolution level",
		}, []string{"kind", "level"}),
		resourceLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_loads_total",
			Help:      "Total number of resource loads by result",
		}, []string{"resource", "result"}),
		resourceLoadTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resource_load_seconds",
			Help:      "Resource load time in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"resource"}),
		resourceCleanups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_cleanups_total",
			Help:      "Total number of resource cleanups by result",
		}, []string{"resource", "result"}),
		processesLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "processes_live",
			Help:      "Number of running processes",
		}),
		threadsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "threads_live",
			Help:      "Number of live threads across processes",
		}),
	}
	c.registry.MustRegister(
		c.processesStarted,
		c.processesFinished,
		c.jobsExecuted,
		c.jobDuration,
		c.escalations,
		c.resourceLoads,
		c.resourceLoadTime,
		c.resourceCleanups,
		c.processesLive,
		c.threadsLive,
	)
	return c
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// ProcessStarted records a new process
func (c *Collector) ProcessStarted() {
	if c == nil {
		return
	}
	c.processesStarted.Inc()
	c.processesLive.Inc()
}

// ProcessFinished records a finished process
func (c *Collector) ProcessFinished(state string) {
	if c == nil {
		return
	}
	c.processesFinished.WithLabelValues(state).Inc()
	c.processesLive.Dec()
}

// ThreadStarted records a new thread
func (c *Collector) ThreadStarted() {
	if c == nil {
		return
	}
	c.threadsLive.Inc()
}

// ThreadFinished records a finished thread
func (c *Collector) ThreadFinished() {
	if c == nil {
		return
	}
	c.threadsLive.Dec()
}

// JobExecuted records one job execution
func (c *Collector) JobExecuted(job string, took time.Duration, err error) {
	if c == nil {
		return
	}
	c.jobsExecuted.WithLabelValues(job, result(err)).Inc()
	c.jobDuration.WithLabelValues(job).Observe(took.Seconds())
}

// Escalated records a resolved escalation
func (c *Collector) Escalated(kind, level string) {
	if c == nil {
		return
	}
	c.escalations.WithLabelValues(kind, level).Inc()
}

// Loaded records a resource load
func (c *Collector) Loaded(resource string, took time.Duration, err error) {
	if c == nil {
		return
	}
	c.resourceLoads.WithLabelValues(resource, result(err)).Inc()
	c.resourceLoadTime.WithLabelValues(resource).Observe(took.Seconds())
}

// Cleaned records a resource cleanup
func (c *Collector) Cleaned(resource string, err error) {
	if c == nil {
		return
	}
	c.resourceCleanups.WithLabelValues(resource, result(err)).Inc()
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the scrape handler
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
