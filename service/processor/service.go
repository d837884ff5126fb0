package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/viant/jobflow/internal/clock"
	"github.com/viant/jobflow/internal/idgen"
	"github.com/viant/jobflow/metrics"
	"github.com/viant/jobflow/model"
	"github.com/viant/jobflow/model/graph"
	"github.com/viant/jobflow/policy"
	"github.com/viant/jobflow/runtime/execution"
	"github.com/viant/jobflow/service/dao"
	processdao "github.com/viant/jobflow/service/dao/process/memory"
	recorddao "github.com/viant/jobflow/service/dao/record/memory"
	"github.com/viant/jobflow/service/escalation"
	"github.com/viant/jobflow/service/event"
	"github.com/viant/jobflow/service/executor"
	"github.com/viant/jobflow/service/resource"
	"github.com/viant/jobflow/service/team"
	"github.com/viant/jobflow/tracing"
)

// Service runs processes of one graph
type Service struct {
	config         Config
	graph          *model.Graph
	teams          *team.Registry
	resources      *resource.Container
	executor       executor.Service
	logger         *slog.Logger
	metrics        *metrics.Collector
	defaultHandler escalation.DefaultHandler
	policy         *policy.Policy
	processDAO     dao.Service[string, execution.Process]
	recordDAO      dao.Service[string, execution.Record]
	events         *event.Service
}

// New creates a processor for a validated graph
func New(aGraph *model.Graph, options ...Option) (*Service, error) {
	s := &Service{config: DefaultConfig(), graph: aGraph}
	for _, opt := range options {
		opt(s)
	}
	if err := aGraph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.teams == nil {
		s.teams = team.NewRegistry()
	}
	if s.resources == nil {
		s.resources = resource.New()
	}
	if s.executor == nil {
		s.executor = executor.New()
	}
	if s.defaultHandler == nil {
		s.defaultHandler = escalation.LogHandler(s.logger)
	}
	if s.processDAO == nil {
		s.processDAO = processdao.New()
	}
	if s.recordDAO == nil {
		s.recordDAO = recorddao.New()
	}
	for name, job := range aGraph.Jobs {
		if _, ok := s.teams.Lookup(job.Team); !ok {
			s.logger.Warn("job bound to unregistered team", "job", name, "team", job.Team)
		}
	}
	return s, nil
}

// Graph returns the graph
func (s *Service) Graph() *model.Graph {
	return s.graph
}

// Start starts lifecycle teams
func (s *Service) Start(ctx context.Context) error {
	return s.teams.Start(ctx)
}

// Shutdown stops teams and drains resource pools
func (s *Service) Shutdown(ctx context.Context) error {
	return errors.Join(s.teams.Stop(ctx), s.resources.Drain(ctx))
}

// Invoke creates a process running entry with parameter
func (s *Service) Invoke(ctx context.Context, entry string, parameter interface{}, options ...InvokeOption) (*execution.Process, error) {
	definition := s.graph.Job(entry)
	if definition == nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownJob, entry)
	}
	invoke := &invocation{}
	for _, opt := range options {
		opt(invoke)
	}
	if invoke.id == "" {
		invoke.id = idgen.New()
	}
	escalations := append(append(graph.Escalations{}, s.graph.Escalations...), invoke.escalations...)
	for _, rule := range invoke.escalations {
		if s.graph.Job(rule.Handler) == nil {
			return nil, fmt.Errorf("%w: escalation handler %v", ErrUnknownJob, rule.Handler)
		}
	}

	process := execution.NewProcess(context.WithoutCancel(ctx), invoke.id, s.graph, entry, parameter, escalations, clock.Now())
	process.Context, process.Span = tracing.StartSpan(process.Context, "jobflow.process "+entry, "INTERNAL")
	process.Span.WithAttributes(map[string]string{"process.id": process.ID, "graph.name": s.graph.Name})
	if err := s.processDAO.Save(ctx, process); err != nil {
		tracing.EndSpan(process.Span, err)
		return nil, fmt.Errorf("failed to register process %v: %w", process.ID, err)
	}
	for _, fn := range invoke.onDone {
		process.OnDone(fn)
	}
	if invoke.timeout > 0 {
		timer := time.AfterFunc(invoke.timeout, func() {
			cause := fmt.Errorf("%w after %v", ErrTimeout, invoke.timeout)
			if err := s.Interrupt(context.Background(), process.ID, cause); err != nil && !errors.Is(err, ErrNotRunning) {
				s.logger.Warn("failed to interrupt process", "process_id", process.ID, "error", err)
			}
		})
		process.OnDone(func(*execution.Outcome) { timer.Stop() })
	}
	s.metrics.ProcessStarted()
	s.logger.Info("process started", "process_id", process.ID, "job", entry)
	s.events.Publish(process.Context, &event.Context{ProcessID: process.ID, Job: entry, EventType: event.ProcessStarted}, parameter)

	process.Mutate(func() []func() {
		root := s.newThread(process, nil, false, nil)
		root.Enqueue(s.newJob(process, definition, parameter, 0))
		return s.advance(root)
	})
	return process, nil
}

// Process returns a live process
func (s *Service) Process(ctx context.Context, id string) (*execution.Process, error) {
	return s.processDAO.Load(ctx, id)
}

// Interrupt injects a synthetic escalation into the root thread of a process,
// or the oldest live thread once the root retired.
func (s *Service) Interrupt(ctx context.Context, processID string, cause error) error {
	return s.InterruptThread(ctx, processID, "", cause)
}

// InterruptThread injects a synthetic escalation into a thread.  The failure
// is resolved against the thread chain and process tables; the queued flow is
// discarded and the active job's continuations are dropped when it finishes.
func (s *Service) InterruptThread(ctx context.Context, processID, threadID string, cause error) error {
	process, err := s.processDAO.Load(ctx, processID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrNotRunning, processID)
		}
		return err
	}
	process.Mutate(func() []func() {
		if process.Failed() || process.Finishing() {
			err = fmt.Errorf("%w: %v", ErrNotRunning, processID)
			return nil
		}
		thread := s.interruptTarget(process, threadID)
		if thread == nil {
			err = fmt.Errorf("%w: thread %v", ErrNotRunning, threadID)
			return nil
		}
		failure := &escalation.Failure{
			Kind:      graph.FailureInterrupt,
			ProcessID: process.ID,
			ThreadID:  thread.ID,
			Err:       cause,
		}
		if thread.Active != nil {
			failure.Job = thread.Active.Name()
			failure.JobID = thread.Active.ID()
			failure.Depth = thread.Active.Depth
		}
		return s.interrupt(process, thread, failure)
	})
	return err
}

func (s *Service) interruptTarget(process *execution.Process, threadID string) *execution.Thread {
	threads := process.Threads()
	if threadID != "" {
		for _, thread := range threads {
			if thread.ID == threadID {
				return thread
			}
		}
		return nil
	}
	var candidates []*execution.Thread
	for _, thread := range threads {
		if thread.Retired {
			continue
		}
		if thread.Parent == nil {
			return thread
		}
		candidates = append(candidates, thread)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Seq < candidates[j].Seq })
	return candidates[0]
}
