package executor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/viant/jobflow/model/graph"
)

// Listener is invoked once job logic returns, whether or not it failed
type Listener func(job *graph.Job, jobCtx graph.JobContext, err error)

// LogListener returns a listener writing a debug line per invocation
func LogListener(logger *slog.Logger) Listener {
	return func(job *graph.Job, jobCtx graph.JobContext, err error) {
		if err != nil {
			logger.Debug("job failed", "process_id", jobCtx.ProcessID(), "thread_id", jobCtx.ThreadID(), "job", job.Name, "error", err)
			return
		}
		logger.Debug("job executed", "process_id", jobCtx.ProcessID(), "thread_id", jobCtx.ThreadID(), "job", job.Name)
	}
}

// Option customises the executor
type Option func(*service)

// WithListener sets the listener invoked after every execution; nil disables it
func WithListener(l Listener) Option {
	return func(s *service) {
		s.listener = l
	}
}

// Service runs job logic
type Service interface {
	Execute(ctx context.Context, job *graph.Job, jobCtx graph.JobContext) error
}

type service struct {
	listener Listener
}

// Execute runs job.Run; a job without logic succeeds
func (s *service) Execute(ctx context.Context, job *graph.Job, jobCtx graph.JobContext) (err error) {
	if job == nil {
		return fmt.Errorf("job was nil")
	}
	if s.listener != nil {
		defer func() { s.listener(job, jobCtx, err) }()
	}
	if job.Run == nil {
		return nil
	}
	return s.run(ctx, job, jobCtx)
}

func (s *service) run(ctx context.Context, job *graph.Job, jobCtx graph.JobContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Job: job.Name, Value: r, Stack: debug.Stack()}
		}
	}()
	return job.Run(ctx, jobCtx)
}

// PanicError is returned when job logic panics
type PanicError struct {
	Job   string
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job %v panicked: %v", e.Job, e.Value)
}

// New creates an executor
func New(opts ...Option) Service {
	ret := &service{}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
